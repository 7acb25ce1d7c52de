package applications

import (
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
)

// Status del ciclo de vida de una solicitud.
// @Enum Pending, Approved, Rejected, Completed
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCompleted Status = "Completed"
)

func ParseStatus(s string) (Status, bool) {
	switch v := Status(strings.TrimSpace(s)); v {
	case StatusPending, StatusApproved, StatusRejected, StatusCompleted:
		return v, true
	default:
		return "", false
	}
}

// FollowUpStatus
// @Enum Scheduled, Completed, Missed, Cancelled
type FollowUpStatus string

const (
	FollowUpScheduled FollowUpStatus = "Scheduled"
	FollowUpCompleted FollowUpStatus = "Completed"
	FollowUpMissed    FollowUpStatus = "Missed"
	FollowUpCancelled FollowUpStatus = "Cancelled"
)

func ParseFollowUpStatus(s string) (FollowUpStatus, bool) {
	switch v := FollowUpStatus(strings.TrimSpace(s)); v {
	case FollowUpScheduled, FollowUpCompleted, FollowUpMissed, FollowUpCancelled:
		return v, true
	default:
		return "", false
	}
}

// Adopter se identifica por email (normalizado a minúsculas).
type Adopter struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Application struct {
	ID        string
	AdopterID string
	AnimalID  string
	AppDate   time.Time
	Status    Status
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApplicationView es la solicitud con datos del adoptante, animal, raza y refugio.
type ApplicationView struct {
	Application

	AdopterFirstName string
	AdopterLastName  string
	AdopterEmail     string
	AdopterPhone     string

	AnimalName         string
	AnimalStatus       pets.Status
	AnimalGender       pets.Gender
	AnimalHealthStatus pets.HealthStatus
	AnimalDateOfBirth  *time.Time

	BreedName    string
	SpeciesName  string
	ShelterName  string
	ShelterCity  string
	ShelterPhone string
}

type FollowUp struct {
	ID            string
	ApplicationID string
	FollowUpDate  time.Time
	FollowUpType  string
	Status        FollowUpStatus
	Notes         string
	CreatedAt     time.Time
}

// StatusChange resume el efecto de UpdateStatus.
type StatusChange struct {
	ApplicationID    string
	AnimalID         string
	Previous         Status
	Current          Status
	AnimalAdopted    bool
	RejectedSiblings int
}

type ListFilter struct {
	Status    *Status
	AdopterID string
}
