package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"pet-adoption/internal/ports/auth"
	"pet-adoption/internal/ports/capabilities"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

const minPasswordLen = 6

type Service struct {
	repo   Repository
	tokens auth.TokenIssuer
	cost   int
	now    func() time.Time
}

func NewService(repo Repository, tokens auth.TokenIssuer) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Session es el resultado de signup/login.
type Session struct {
	User  User
	Token auth.Token
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	email := normalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)

	if email == "" || in.Password == "" || first == "" || last == "" {
		return Session{}, fmt.Errorf("%w: email, password, first_name and last_name are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Session{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLen {
		return Session{}, fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    first,
		LastName:     last,
		Role:         capabilities.RoleUser,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return Session{}, err
	}

	return s.session(ctx, u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.session(ctx, u)
}

func (s *Service) session(ctx context.Context, u User) (Session, error) {
	// Sin issuer (modo dev) la sesión va sin token.
	if s.tokens == nil {
		return Session{User: u}, nil
	}
	tok, err := s.tokens.Issue(ctx, auth.Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   string(u.Role),
	})
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// EmailOf devuelve el email de la cuenta (directorio para applications).
func (s *Service) EmailOf(ctx context.Context, userID string) (string, error) {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}

// Promote cambia el rol de una cuenta. Se usa desde el CLI de administración.
func (s *Service) Promote(ctx context.Context, email string, role capabilities.Role) (User, error) {
	if _, ok := capabilities.ParseRole(string(role)); !ok {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return User{}, err
	}
	if err := s.repo.UpdateRole(ctx, u.ID, role); err != nil {
		return User{}, err
	}
	u.Role = role
	return u, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
