package jwt

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-adoption/internal/ports/auth"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	s, err := NewSigner("secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	tok, err := s.Issue(context.Background(), auth.Claims{UserID: "u-1", Email: "ana@example.com", Role: "admin"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := s.Verify(context.Background(), tok.Value)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ana@example.com" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredAndForeignTokens(t *testing.T) {
	s, _ := NewSigner("secret", time.Hour)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	tok, err := s.Issue(context.Background(), auth.Claims{UserID: "u-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := s.Verify(context.Background(), tok.Value); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	other, _ := NewSigner("other-secret", time.Hour)
	other.now = func() time.Time { return base }
	foreign, _ := other.Issue(context.Background(), auth.Claims{UserID: "u-1"})

	s.now = func() time.Time { return base }
	if _, err := s.Verify(context.Background(), foreign.Value); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("  ", time.Hour); !errors.Is(err, ErrSecretEmpty) {
		t.Fatalf("expected ErrSecretEmpty, got %v", err)
	}
}
