package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/capabilities"
)

type stubVerifier struct {
	claims auth.Claims
	err    error
}

func (s stubVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return s.claims, s.err
}

func captureCaller(t *testing.T, h func(http.Handler) http.Handler, req *http.Request) (capabilities.Caller, bool) {
	t.Helper()

	var (
		got capabilities.Caller
		ok  bool
	)
	h(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = GetCaller(r.Context())
	})).ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Debug-User-ID", "admin-1")
	req.Header.Set("X-Debug-Role", "admin")
	req.Header.Set("X-Debug-Email", "Boss@Example.com")

	c, ok := captureCaller(t, AuthContext(nil), req)
	if !ok || !c.IsAdmin() || c.Email != "boss@example.com" {
		t.Fatalf("unexpected caller: %+v ok=%v", c, ok)
	}
}

func TestAuthContext_Bearer(t *testing.T) {
	v := stubVerifier{claims: auth.Claims{UserID: "u-1", Role: "user"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	c, ok := captureCaller(t, AuthContext(v), req)
	if !ok || c.UserID != "u-1" || c.IsAdmin() {
		t.Fatalf("unexpected caller: %+v ok=%v", c, ok)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer forged")
	req.Header.Set("X-Debug-User-ID", "admin-1")
	if _, ok := captureCaller(t, AuthContext(v), req); ok {
		t.Fatalf("invalid token or debug header must not authenticate when verifier is set")
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, logger.Nop())
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}

	// otra IP tiene su propio bucket
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected separate bucket per ip, got %d", rec.Code)
	}
}

func TestRecoverReturns500(t *testing.T) {
	h := Recover(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
