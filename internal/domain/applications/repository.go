package applications

import (
	"context"

	"pet-adoption/internal/domain/pets"
)

// Store expone lecturas y abre unidades de trabajo atómicas.
type Store interface {
	// WithinTx ejecuta fn en una transacción: commit si fn devuelve nil, rollback si no.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	FindAdopterByEmail(ctx context.Context, email string) (Adopter, error)
	List(ctx context.Context, f ListFilter) ([]ApplicationView, error)
	GetByID(ctx context.Context, id string) (ApplicationView, error)
	ListFollowUps(ctx context.Context, applicationID string) ([]FollowUp, error)
}

// Tx son las operaciones disponibles dentro de una unidad de trabajo.
// Los "Lock*" toman lock de fila donde el motor lo soporta.
type Tx interface {
	LockAnimal(ctx context.Context, animalID string) (pets.Status, error)
	// MarkAnimalAdopted es un compare-and-swap: false si ya estaba Adopted.
	MarkAnimalAdopted(ctx context.Context, animalID string) (bool, error)

	FindAdopterByEmail(ctx context.Context, email string) (Adopter, error)
	// CreateAdopter devuelve el adoptante que quedó guardado: si otra transacción
	// ya insertó el mismo email, devuelve ese.
	CreateAdopter(ctx context.Context, a Adopter) (Adopter, error)
	UpdateAdopterPhone(ctx context.Context, adopterID, phone string) error

	CountApplications(ctx context.Context, adopterID, animalID string, status Status) (int, error)
	CreateApplication(ctx context.Context, a Application) error
	LockApplication(ctx context.Context, id string) (Application, error)
	UpdateApplication(ctx context.Context, a Application) error
	// CountAdoptions cuenta las Approved/Completed del animal sin contar excludeID.
	CountAdoptions(ctx context.Context, animalID, excludeID string) (int, error)
	// RejectPendingSiblings rechaza las Pending del animal excepto keepID.
	RejectPendingSiblings(ctx context.Context, animalID, keepID string) (int, error)

	CreateFollowUp(ctx context.Context, f FollowUp) error
}

// UserDirectory resuelve el email de cuenta de un usuario.
// Se define acá para evitar ciclos de imports (applications <-> users).
type UserDirectory interface {
	EmailOf(ctx context.Context, userID string) (string, error)
}

// Recorder recibe eventos del ciclo de vida (métricas).
type Recorder interface {
	ApplicationSubmitted()
	ApplicationStatusChanged(status string, cascadeRejected int)
}

type nopRecorder struct{}

func (nopRecorder) ApplicationSubmitted() {}
func (nopRecorder) ApplicationStatusChanged(string, int) {}
