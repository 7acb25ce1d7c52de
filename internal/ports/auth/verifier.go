package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite tokens para un usuario autenticado.
type TokenIssuer interface {
	Issue(ctx context.Context, claims Claims) (Token, error)
}
