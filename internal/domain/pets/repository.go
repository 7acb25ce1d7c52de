package pets

import "context"

type Repository interface {
	Create(ctx context.Context, a Animal) error
	Update(ctx context.Context, a Animal) error
	GetByID(ctx context.Context, id string) (Animal, error)
	List(ctx context.Context, f ListFilter) ([]Animal, error)

	// Delete borra el animal y sus dependientes en una transacción.
	// Devuelve *PendingApplicationsError si hay solicitudes Pending.
	Delete(ctx context.Context, id string) error
}

// Catalog resuelve raza y refugio al crear un animal.
// Se define acá para evitar ciclos de imports (pets <-> reference).
type Catalog interface {
	BreedExists(ctx context.Context, breedID string) (bool, error)
	EnsureBreed(ctx context.Context, speciesName, breedName string) (string, error)
	ShelterExists(ctx context.Context, shelterID string) (bool, error)
	EnsureShelter(ctx context.Context, name, city string) (string, error)
}
