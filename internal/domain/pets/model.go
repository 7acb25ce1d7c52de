package pets

import (
	"strings"
	"time"
)

// Status es el estado de adopción de un animal.
// @Enum Available, Pending, Adopted
type Status string

const (
	StatusAvailable Status = "Available"
	StatusPending   Status = "Pending"
	StatusAdopted   Status = "Adopted"
)

func ParseStatus(s string) (Status, bool) {
	switch v := Status(strings.TrimSpace(s)); v {
	case StatusAvailable, StatusPending, StatusAdopted:
		return v, true
	default:
		return "", false
	}
}

// Gender
// @Enum M, F
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func ParseGender(s string) (Gender, bool) {
	switch v := Gender(strings.ToUpper(strings.TrimSpace(s))); v {
	case GenderMale, GenderFemale:
		return v, true
	default:
		return "", false
	}
}

// HealthStatus
// @Enum Healthy, Under Treatment, Special Needs
type HealthStatus string

const (
	HealthHealthy        HealthStatus = "Healthy"
	HealthUnderTreatment HealthStatus = "Under Treatment"
	HealthSpecialNeeds   HealthStatus = "Special Needs"
)

func ParseHealthStatus(s string) (HealthStatus, bool) {
	switch v := HealthStatus(strings.TrimSpace(s)); v {
	case HealthHealthy, HealthUnderTreatment, HealthSpecialNeeds:
		return v, true
	default:
		return "", false
	}
}

// Animal es una mascota en adopción.
type Animal struct {
	ID        string
	Name      string
	BreedID   string
	ShelterID string

	Gender       Gender
	HealthStatus HealthStatus
	Status       Status

	DateOfBirth *time.Time
	IntakeDate  time.Time
	ImageData   string

	// Solo lectura (join con breeds/species/shelters).
	BreedName    string
	SpeciesName  string
	ShelterName  string
	ShelterCity  string
	ShelterPhone string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type ListFilter struct {
	Status *Status
	// ExcludeStatus se usa para ocultar adoptados a no-admins.
	ExcludeStatus *Status
}
