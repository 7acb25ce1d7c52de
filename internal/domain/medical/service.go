package medical

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
	ErrNotFound     = errors.New("medical record not found")
	ErrNoAnimal     = errors.New("animal not found")
	ErrForbidden    = errors.New("forbidden")
)

type Service struct {
	repo    Repository
	animals AnimalLookup
	now     func() time.Time
}

func NewService(repo Repository, animals AnimalLookup) *Service {
	return &Service{
		repo:    repo,
		animals: animals,
		now:     time.Now,
	}
}

type AddInput struct {
	AnimalID     string
	RecordDate   *time.Time
	RecordType   string
	Description  string
	Veterinarian string
	Notes        string
}

func (s *Service) Add(ctx context.Context, caller capabilities.Caller, in AddInput) (Record, error) {
	if !caller.IsAdmin() {
		return Record{}, ErrForbidden
	}

	rec := Record{
		ID:           uuid.NewString(),
		AnimalID:     strings.TrimSpace(in.AnimalID),
		RecordType:   strings.TrimSpace(in.RecordType),
		Description:  strings.TrimSpace(in.Description),
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedAt:    s.now(),
	}
	if rec.AnimalID == "" || in.RecordDate == nil || rec.RecordType == "" {
		return Record{}, fmt.Errorf("%w: animal_id, record_date and record_type are required", ErrInvalidInput)
	}
	rec.RecordDate = *in.RecordDate

	ok, err := s.animals.Exists(ctx, rec.AnimalID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, ErrNoAnimal
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// UpdateInput usa punteros: nil = no tocar.
type UpdateInput struct {
	RecordDate   *time.Time
	RecordType   *string
	Description  *string
	Veterinarian *string
	Notes        *string
}

func (s *Service) Update(ctx context.Context, caller capabilities.Caller, id string, in UpdateInput) (Record, error) {
	if !caller.IsAdmin() {
		return Record{}, ErrForbidden
	}
	if in.RecordDate == nil && in.RecordType == nil && in.Description == nil && in.Veterinarian == nil && in.Notes == nil {
		return Record{}, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}

	rec, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Record{}, err
	}

	if in.RecordDate != nil {
		rec.RecordDate = *in.RecordDate
	}
	if in.RecordType != nil {
		t := strings.TrimSpace(*in.RecordType)
		if t == "" {
			return Record{}, fmt.Errorf("%w: record_type cannot be empty", ErrInvalidInput)
		}
		rec.RecordType = t
	}
	if in.Description != nil {
		rec.Description = strings.TrimSpace(*in.Description)
	}
	if in.Veterinarian != nil {
		rec.Veterinarian = strings.TrimSpace(*in.Veterinarian)
	}
	if in.Notes != nil {
		rec.Notes = strings.TrimSpace(*in.Notes)
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, caller capabilities.Caller, id string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]Record, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return nil, fmt.Errorf("%w: animal id is required", ErrInvalidInput)
	}
	return s.repo.ListByAnimal(ctx, animalID)
}
