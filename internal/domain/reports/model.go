package reports

import "strings"

// Name identifica un reporte. Es también la clave de cache.
type Name string

const (
	AdoptionRates      Name = "adoption-rates"
	PopularBreeds      Name = "popular-breeds"
	WaitingTimes       Name = "waiting-times"
	HealthStatus       Name = "health-status"
	ShelterPerformance Name = "shelter-performance"
	FollowUps          Name = "follow-ups"
)

var titles = map[Name]string{
	AdoptionRates:      "Adoption Rates Report",
	PopularBreeds:      "Popular Breeds Report",
	WaitingTimes:       "Average Waiting Times Report",
	HealthStatus:       "Health Status Report",
	ShelterPerformance: "Shelter Performance Report",
	FollowUps:          "Follow-Up Report",
}

func ParseName(s string) (Name, bool) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	_, ok := titles[n]
	return n, ok
}

func (n Name) Title() string { return titles[n] }

// Names devuelve los reportes disponibles en orden estable.
func Names() []Name {
	return []Name{AdoptionRates, PopularBreeds, WaitingTimes, HealthStatus, ShelterPerformance, FollowUps}
}

// PopularBreedsLimit es el tope del ranking de razas.
const PopularBreedsLimit = 10

type AdoptionRateSummary struct {
	TotalAnimals        int     `db:"total_animals" json:"total_animals"`
	AdoptedCount        int     `db:"adopted_count" json:"adopted_count"`
	AvailableCount      int     `db:"available_count" json:"available_count"`
	PendingCount        int     `db:"pending_count" json:"pending_count"`
	AdoptionRatePercent float64 `db:"adoption_rate_percent" json:"adoption_rate_percent"`
}

type BreedPopularity struct {
	BreedName      string `db:"breed_name" json:"breed_name"`
	SpeciesName    string `db:"species_name" json:"species_name"`
	TotalAnimals   int    `db:"total_animals" json:"total_animals"`
	AdoptedCount   int    `db:"adopted_count" json:"adopted_count"`
	AvailableCount int    `db:"available_count" json:"available_count"`
}

// WaitingTimeSummary mide días entre ingreso del animal y fecha de solicitud.
type WaitingTimeSummary struct {
	AvgDaysToApplication float64 `db:"avg_days_to_application" json:"avg_days_to_application"`
	AvgDaysToApproval    float64 `db:"avg_days_to_approval" json:"avg_days_to_approval"`
	MinDays              int     `db:"min_days" json:"min_days"`
	MaxDays              int     `db:"max_days" json:"max_days"`
}

type HealthSummary struct {
	HealthStatus        string `db:"health_status" json:"health_status"`
	AnimalCount         int    `db:"animal_count" json:"animal_count"`
	TotalMedicalRecords int    `db:"total_medical_records" json:"total_medical_records"`
	VaccinationCount    int    `db:"vaccination_count" json:"vaccination_count"`
	TreatmentCount      int    `db:"treatment_count" json:"treatment_count"`
}

type ShelterSummary struct {
	ShelterName                string  `db:"shelter_name" json:"shelter_name"`
	City                       string  `db:"city" json:"city"`
	Capacity                   int     `db:"capacity" json:"capacity"`
	TotalAnimals               int     `db:"total_animals" json:"total_animals"`
	AdoptedCount               int     `db:"adopted_count" json:"adopted_count"`
	AvailableCount             int     `db:"available_count" json:"available_count"`
	AdoptionRatePercent        float64 `db:"adoption_rate_percent" json:"adoption_rate_percent"`
	CapacityUtilizationPercent float64 `db:"capacity_utilization_percent" json:"capacity_utilization_percent"`
}

type FollowUpSummary struct {
	ApplicationID      string  `db:"application_id" json:"application_id"`
	PetName            string  `db:"pet_name" json:"pet_name"`
	BreedName          string  `db:"breed_name" json:"breed_name"`
	AdopterFirstName   string  `db:"adopter_first_name" json:"adopter_first_name"`
	AdopterLastName    string  `db:"adopter_last_name" json:"adopter_last_name"`
	AppDate            string  `db:"app_date" json:"app_date"`
	ApplicationStatus  string  `db:"application_status" json:"application_status"`
	TotalFollowUps     int     `db:"total_followups" json:"total_followups"`
	CompletedFollowUps int     `db:"completed_followups" json:"completed_followups"`
	LastFollowUpDate   *string `db:"last_followup_date" json:"last_followup_date"`
}
