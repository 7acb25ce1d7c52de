package capabilities

import (
	"strings"

	"pet-adoption/internal/ports/auth"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Caller es la capacidad explícita con la que cada operación decide permisos.
// El zero value es un caller anónimo.
type Caller struct {
	UserID string
	Email  string
	Role   Role
}

func FromClaims(c auth.Claims) Caller {
	role, ok := ParseRole(c.Role)
	if !ok {
		role = RoleUser
	}
	return Caller{
		UserID: strings.TrimSpace(c.UserID),
		Email:  strings.ToLower(strings.TrimSpace(c.Email)),
		Role:   role,
	}
}

func (c Caller) Authenticated() bool {
	return c.UserID != ""
}

// IsAdmin solo es true con rol "admin" explícito.
func (c Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == RoleAdmin
}
