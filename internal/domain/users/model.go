package users

import (
	"time"

	"pet-adoption/internal/ports/capabilities"
)

// User es una cuenta del sistema. El email es único y se guarda en minúsculas.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         capabilities.Role
	CreatedAt    time.Time
}
