package reference

import "context"

type Repository interface {
	ListSpecies(ctx context.Context) ([]Species, error)
	ListBreeds(ctx context.Context) ([]Breed, error)
	ListShelters(ctx context.Context) ([]Shelter, error)

	GetBreed(ctx context.Context, id string) (Breed, error)
	GetShelter(ctx context.Context, id string) (Shelter, error)

	FindSpeciesByName(ctx context.Context, name string) (Species, error)
	FindBreed(ctx context.Context, speciesID, name string) (Breed, error)
	FindShelterByName(ctx context.Context, name string) (Shelter, error)

	CreateSpecies(ctx context.Context, s Species) error
	CreateBreed(ctx context.Context, b Breed) error
	CreateShelter(ctx context.Context, s Shelter) error
}
