package users

import (
	"context"

	"pet-adoption/internal/ports/capabilities"
)

type Repository interface {
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UpdateRole(ctx context.Context, id string, role capabilities.Role) error
}
