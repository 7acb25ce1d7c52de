package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-adoption/internal/ports/capabilities"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicate    = errors.New("already exists")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListSpecies(ctx context.Context) ([]Species, error) {
	return s.repo.ListSpecies(ctx)
}

func (s *Service) ListBreeds(ctx context.Context) ([]Breed, error) {
	return s.repo.ListBreeds(ctx)
}

func (s *Service) ListShelters(ctx context.Context) ([]Shelter, error) {
	return s.repo.ListShelters(ctx)
}

func (s *Service) CreateSpecies(ctx context.Context, caller capabilities.Caller, name string) (Species, error) {
	if !caller.IsAdmin() {
		return Species{}, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Species{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := s.repo.FindSpeciesByName(ctx, name); err == nil {
		return Species{}, fmt.Errorf("%w: species %q", ErrDuplicate, name)
	} else if !errors.Is(err, ErrNotFound) {
		return Species{}, err
	}

	sp := Species{ID: uuid.NewString(), Name: name}
	if err := s.repo.CreateSpecies(ctx, sp); err != nil {
		return Species{}, err
	}
	return sp, nil
}

func (s *Service) CreateBreed(ctx context.Context, caller capabilities.Caller, speciesID, name string) (Breed, error) {
	if !caller.IsAdmin() {
		return Breed{}, ErrForbidden
	}
	speciesID = strings.TrimSpace(speciesID)
	name = strings.TrimSpace(name)
	if speciesID == "" || name == "" {
		return Breed{}, fmt.Errorf("%w: species_id and name are required", ErrInvalidInput)
	}

	species, err := s.speciesByID(ctx, speciesID)
	if err != nil {
		return Breed{}, err
	}
	if _, err := s.repo.FindBreed(ctx, species.ID, name); err == nil {
		return Breed{}, fmt.Errorf("%w: breed %q", ErrDuplicate, name)
	} else if !errors.Is(err, ErrNotFound) {
		return Breed{}, err
	}

	b := Breed{ID: uuid.NewString(), SpeciesID: species.ID, SpeciesName: species.Name, Name: name}
	if err := s.repo.CreateBreed(ctx, b); err != nil {
		return Breed{}, err
	}
	return b, nil
}

type ShelterInput struct {
	Name     string
	City     string
	Capacity int
	Phone    string
}

func (s *Service) CreateShelter(ctx context.Context, caller capabilities.Caller, in ShelterInput) (Shelter, error) {
	if !caller.IsAdmin() {
		return Shelter{}, ErrForbidden
	}
	sh := Shelter{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(in.Name),
		City:     strings.TrimSpace(in.City),
		Capacity: in.Capacity,
		Phone:    strings.TrimSpace(in.Phone),
	}
	if sh.Name == "" || sh.City == "" {
		return Shelter{}, fmt.Errorf("%w: name and city are required", ErrInvalidInput)
	}
	if sh.Capacity < 0 {
		return Shelter{}, fmt.Errorf("%w: capacity cannot be negative", ErrInvalidInput)
	}
	if sh.Capacity == 0 {
		sh.Capacity = DefaultShelterCapacity
	}
	if err := s.repo.CreateShelter(ctx, sh); err != nil {
		return Shelter{}, err
	}
	return sh, nil
}

// speciesByID busca en la lista; son pocas filas.
func (s *Service) speciesByID(ctx context.Context, id string) (Species, error) {
	items, err := s.repo.ListSpecies(ctx)
	if err != nil {
		return Species{}, err
	}
	for _, sp := range items {
		if sp.ID == id {
			return sp, nil
		}
	}
	return Species{}, fmt.Errorf("%w: species %s", ErrNotFound, id)
}

// --- pets.Catalog ---

func (s *Service) BreedExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetBreed(ctx, id)
	return found(err)
}

func (s *Service) ShelterExists(ctx context.Context, id string) (bool, error) {
	_, err := s.repo.GetShelter(ctx, id)
	return found(err)
}

// EnsureBreed reutiliza especie y raza por nombre, o las crea.
func (s *Service) EnsureBreed(ctx context.Context, speciesName, breedName string) (string, error) {
	speciesName = strings.TrimSpace(speciesName)
	breedName = strings.TrimSpace(breedName)
	if speciesName == "" || breedName == "" {
		return "", fmt.Errorf("%w: species and breed names are required", ErrInvalidInput)
	}

	sp, err := s.repo.FindSpeciesByName(ctx, speciesName)
	if errors.Is(err, ErrNotFound) {
		sp = Species{ID: uuid.NewString(), Name: speciesName}
		err = s.repo.CreateSpecies(ctx, sp)
	}
	if err != nil {
		return "", err
	}

	b, err := s.repo.FindBreed(ctx, sp.ID, breedName)
	if errors.Is(err, ErrNotFound) {
		b = Breed{ID: uuid.NewString(), SpeciesID: sp.ID, SpeciesName: sp.Name, Name: breedName}
		err = s.repo.CreateBreed(ctx, b)
	}
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

// EnsureShelter reutiliza el refugio por nombre o lo crea con capacidad por defecto.
func (s *Service) EnsureShelter(ctx context.Context, name, city string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: shelter name is required", ErrInvalidInput)
	}

	sh, err := s.repo.FindShelterByName(ctx, name)
	if err == nil {
		return sh.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	sh = Shelter{ID: uuid.NewString(), Name: name, City: strings.TrimSpace(city), Capacity: DefaultShelterCapacity}
	if err := s.repo.CreateShelter(ctx, sh); err != nil {
		return "", err
	}
	return sh.ID, nil
}

func found(err error) (bool, error) {
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
