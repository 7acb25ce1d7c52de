package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/ports/auth"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty   = errors.New("token is empty")
	ErrSecretEmpty  = errors.New("jwt secret is empty")
	ErrMissingClaim = errors.New("token missing subject")
)

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	gojwt.RegisteredClaims
}

// Signer implementa auth.TokenIssuer y auth.AuthVerifier con HS256.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrSecretEmpty
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *Signer) Issue(_ context.Context, c auth.Claims) (auth.Token, error) {
	if strings.TrimSpace(c.UserID) == "" {
		return auth.Token{}, ErrMissingClaim
	}

	now := s.now()
	exp := now.Add(s.ttl)
	claims := tokenClaims{
		Email: c.Email,
		Role:  c.Role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(exp),
		},
	}

	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return auth.Token{}, fmt.Errorf("sign token: %w", err)
	}
	return auth.Token{Value: signed, ExpiresAt: exp}, nil
}

func (s *Signer) Verify(_ context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var claims tokenClaims
	_, err := gojwt.ParseWithClaims(token, &claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, gojwt.WithTimeFunc(s.now), gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return auth.Claims{}, ErrMissingClaim
	}

	return auth.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
