package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/ports/capabilities"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrForbidden    = errors.New("forbidden")
)

// PendingApplicationsError bloquea el borrado de un animal con solicitudes Pending.
type PendingApplicationsError struct {
	Count int
}

func (e *PendingApplicationsError) Error() string {
	return fmt.Sprintf("cannot delete pet: %d pending application(s)", e.Count)
}

type Service struct {
	repo    Repository
	catalog Catalog
	now     func() time.Time
}

func NewService(repo Repository, catalog Catalog) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		now:     time.Now,
	}
}

type CreateInput struct {
	Name         string
	Gender       string
	HealthStatus string
	DateOfBirth  *time.Time
	ImageData    string

	// Raza: por id, o por nombre + especie (se crean si no existen).
	BreedID     string
	BreedName   string
	SpeciesName string

	// Refugio: por id, o por nombre (+ ciudad).
	ShelterID   string
	ShelterName string
	ShelterCity string
}

func (s *Service) Create(ctx context.Context, caller capabilities.Caller, in CreateInput) (Animal, error) {
	if !caller.IsAdmin() {
		return Animal{}, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Animal{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	gender, ok := ParseGender(in.Gender)
	if !ok {
		return Animal{}, fmt.Errorf("%w: gender must be M or F", ErrInvalidInput)
	}
	health := HealthHealthy
	if strings.TrimSpace(in.HealthStatus) != "" {
		if health, ok = ParseHealthStatus(in.HealthStatus); !ok {
			return Animal{}, fmt.Errorf("%w: unknown health status %q", ErrInvalidInput, in.HealthStatus)
		}
	}

	breedID, err := s.resolveBreed(ctx, in)
	if err != nil {
		return Animal{}, err
	}
	shelterID, err := s.resolveShelter(ctx, in)
	if err != nil {
		return Animal{}, err
	}

	now := s.now()
	a := Animal{
		ID:           uuid.NewString(),
		Name:         name,
		BreedID:      breedID,
		ShelterID:    shelterID,
		Gender:       gender,
		HealthStatus: health,
		Status:       StatusAvailable,
		DateOfBirth:  in.DateOfBirth,
		IntakeDate:   truncateDay(now),
		ImageData:    in.ImageData,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return s.repo.GetByID(ctx, a.ID)
}

func (s *Service) resolveBreed(ctx context.Context, in CreateInput) (string, error) {
	if id := strings.TrimSpace(in.BreedID); id != "" {
		ok, err := s.catalog.BreedExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: breed %s", ErrNotFound, id)
		}
		return id, nil
	}

	breed := strings.TrimSpace(in.BreedName)
	species := strings.TrimSpace(in.SpeciesName)
	if breed == "" || species == "" {
		return "", fmt.Errorf("%w: breed_id or breed_name with species_name is required", ErrInvalidInput)
	}
	return s.catalog.EnsureBreed(ctx, species, breed)
}

func (s *Service) resolveShelter(ctx context.Context, in CreateInput) (string, error) {
	if id := strings.TrimSpace(in.ShelterID); id != "" {
		ok, err := s.catalog.ShelterExists(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: shelter %s", ErrNotFound, id)
		}
		return id, nil
	}

	name := strings.TrimSpace(in.ShelterName)
	if name == "" {
		return "", fmt.Errorf("%w: shelter_id or shelter_name is required", ErrInvalidInput)
	}
	city := strings.TrimSpace(in.ShelterCity)
	if city == "" {
		city = "Unknown"
	}
	return s.catalog.EnsureShelter(ctx, name, city)
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	Name         *string
	Gender       *string
	HealthStatus *string
	Status       *string
	DateOfBirth  *time.Time
	ImageData    *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.Gender == nil && in.HealthStatus == nil &&
		in.Status == nil && in.DateOfBirth == nil && in.ImageData == nil
}

func (s *Service) Update(ctx context.Context, caller capabilities.Caller, id string, in UpdateInput) (Animal, error) {
	if !caller.IsAdmin() {
		return Animal{}, ErrForbidden
	}
	if in.empty() {
		return Animal{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	a, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Animal{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Animal{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		a.Name = name
	}
	if in.Gender != nil {
		g, ok := ParseGender(*in.Gender)
		if !ok {
			return Animal{}, fmt.Errorf("%w: gender must be M or F", ErrInvalidInput)
		}
		a.Gender = g
	}
	if in.HealthStatus != nil {
		h, ok := ParseHealthStatus(*in.HealthStatus)
		if !ok {
			return Animal{}, fmt.Errorf("%w: unknown health status %q", ErrInvalidInput, *in.HealthStatus)
		}
		a.HealthStatus = h
	}
	if in.Status != nil {
		st, ok := ParseStatus(*in.Status)
		if !ok {
			return Animal{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		a.Status = st
	}
	if in.DateOfBirth != nil {
		a.DateOfBirth = in.DateOfBirth
	}
	if in.ImageData != nil {
		a.ImageData = *in.ImageData
	}
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, caller capabilities.Caller, id string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) GetByID(ctx context.Context, id string) (Animal, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

// List oculta los adoptados a no-admins cuando no hay filtro de estado.
func (s *Service) List(ctx context.Context, caller capabilities.Caller, status string) ([]Animal, error) {
	var f ListFilter
	if strings.TrimSpace(status) != "" {
		st, ok := ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		f.Status = &st
	} else if !caller.IsAdmin() {
		adopted := StatusAdopted
		f.ExcludeStatus = &adopted
	}
	return s.repo.List(ctx, f)
}

// Exists lo usan otros módulos (medical) para validar referencias.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
