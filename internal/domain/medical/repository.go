package medical

import "context"

type Repository interface {
	Create(ctx context.Context, r Record) error
	Update(ctx context.Context, r Record) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Record, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Record, error)
}

// AnimalLookup valida que el animal exista.
// Se define acá para evitar ciclos de imports (medical <-> pets).
type AnimalLookup interface {
	Exists(ctx context.Context, animalID string) (bool, error)
}
