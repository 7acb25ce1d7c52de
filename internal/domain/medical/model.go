package medical

import "time"

// Record es una entrada del historial médico de un animal.
type Record struct {
	ID           string
	AnimalID     string
	AnimalName   string // solo lectura
	RecordDate   time.Time
	RecordType   string
	Description  string
	Veterinarian string
	Notes        string
	CreatedAt    time.Time
}
