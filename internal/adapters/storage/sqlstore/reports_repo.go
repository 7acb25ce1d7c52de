package sqlstore

import (
	"context"
	"fmt"

	"pet-adoption/internal/domain/reports"

	"github.com/jmoiron/sqlx"
)

// reportsRepo escanea los agregados con sqlx (tags db en los modelos).
type reportsRepo struct {
	x *sqlx.DB
	d dialect
}

func (r *reportsRepo) AdoptionRates(ctx context.Context) (reports.AdoptionRateSummary, error) {
	var out reports.AdoptionRateSummary
	err := r.x.GetContext(ctx, &out, `
		SELECT
			COUNT(a.id) AS total_animals,
			COALESCE(SUM(CASE WHEN a.status = 'Adopted' THEN 1 ELSE 0 END), 0) AS adopted_count,
			COALESCE(SUM(CASE WHEN a.status = 'Available' THEN 1 ELSE 0 END), 0) AS available_count,
			COALESCE(SUM(CASE WHEN a.status = 'Pending' THEN 1 ELSE 0 END), 0) AS pending_count,
			COALESCE(ROUND(SUM(CASE WHEN a.status = 'Adopted' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(a.id), 0), 2), 0) AS adoption_rate_percent
		FROM animals a
	`)
	return out, err
}

func (r *reportsRepo) PopularBreeds(ctx context.Context, limit int) ([]reports.BreedPopularity, error) {
	out := make([]reports.BreedPopularity, 0)
	err := r.x.SelectContext(ctx, &out, `
		SELECT
			b.name AS breed_name,
			s.name AS species_name,
			COUNT(a.id) AS total_animals,
			COALESCE(SUM(CASE WHEN a.status = 'Adopted' THEN 1 ELSE 0 END), 0) AS adopted_count,
			COALESCE(SUM(CASE WHEN a.status = 'Available' THEN 1 ELSE 0 END), 0) AS available_count
		FROM breeds b
		JOIN species s ON s.id = b.species_id
		LEFT JOIN animals a ON a.breed_id = b.id
		GROUP BY b.id, b.name, s.name
		ORDER BY total_animals DESC, b.name
		LIMIT $1
	`, limit)
	return out, err
}

func (r *reportsRepo) WaitingTimes(ctx context.Context) (reports.WaitingTimeSummary, error) {
	days := r.d.daysBetween("a.intake_date", "app.app_date")

	var out reports.WaitingTimeSummary
	err := r.x.GetContext(ctx, &out, fmt.Sprintf(`
		SELECT
			COALESCE(ROUND(AVG(%[1]s), 2), 0) AS avg_days_to_application,
			COALESCE(ROUND(AVG(CASE WHEN app.status = 'Approved' THEN %[1]s END), 2), 0) AS avg_days_to_approval,
			COALESCE(MIN(%[1]s), 0) AS min_days,
			COALESCE(MAX(%[1]s), 0) AS max_days
		FROM animals a
		JOIN applications app ON app.animal_id = a.id
		WHERE a.status = 'Adopted' OR app.status IN ('Approved', 'Completed')
	`, days))
	return out, err
}

func (r *reportsRepo) HealthStatus(ctx context.Context) ([]reports.HealthSummary, error) {
	out := make([]reports.HealthSummary, 0)
	err := r.x.SelectContext(ctx, &out, `
		SELECT
			a.health_status AS health_status,
			COUNT(DISTINCT a.id) AS animal_count,
			COUNT(m.id) AS total_medical_records,
			COUNT(DISTINCT CASE WHEN m.record_type = 'Vaccination' THEN m.id END) AS vaccination_count,
			COUNT(DISTINCT CASE WHEN m.record_type = 'Treatment' THEN m.id END) AS treatment_count
		FROM animals a
		LEFT JOIN medical_records m ON m.animal_id = a.id
		GROUP BY a.health_status
		ORDER BY animal_count DESC, a.health_status
	`)
	return out, err
}

func (r *reportsRepo) ShelterPerformance(ctx context.Context) ([]reports.ShelterSummary, error) {
	out := make([]reports.ShelterSummary, 0)
	err := r.x.SelectContext(ctx, &out, `
		SELECT
			s.name AS shelter_name,
			s.city AS city,
			s.capacity AS capacity,
			COUNT(a.id) AS total_animals,
			COALESCE(SUM(CASE WHEN a.status = 'Adopted' THEN 1 ELSE 0 END), 0) AS adopted_count,
			COALESCE(SUM(CASE WHEN a.status = 'Available' THEN 1 ELSE 0 END), 0) AS available_count,
			COALESCE(ROUND(SUM(CASE WHEN a.status = 'Adopted' THEN 1 ELSE 0 END) * 100.0 / NULLIF(COUNT(a.id), 0), 2), 0) AS adoption_rate_percent,
			COALESCE(ROUND(COUNT(a.id) * 100.0 / NULLIF(s.capacity, 0), 2), 0) AS capacity_utilization_percent
		FROM shelters s
		LEFT JOIN animals a ON a.shelter_id = s.id
		GROUP BY s.id, s.name, s.city, s.capacity
		ORDER BY adoption_rate_percent DESC, s.name
	`)
	return out, err
}

func (r *reportsRepo) FollowUps(ctx context.Context) ([]reports.FollowUpSummary, error) {
	out := make([]reports.FollowUpSummary, 0)
	err := r.x.SelectContext(ctx, &out, fmt.Sprintf(`
		SELECT
			app.id AS application_id,
			a.name AS pet_name,
			COALESCE(b.name, '') AS breed_name,
			ad.first_name AS adopter_first_name,
			ad.last_name AS adopter_last_name,
			%s AS app_date,
			app.status AS application_status,
			COUNT(fu.id) AS total_followups,
			COALESCE(SUM(CASE WHEN fu.status = 'Completed' THEN 1 ELSE 0 END), 0) AS completed_followups,
			%s AS last_followup_date
		FROM applications app
		JOIN animals a ON a.id = app.animal_id
		LEFT JOIN breeds b ON b.id = a.breed_id
		JOIN adopters ad ON ad.id = app.adopter_id
		LEFT JOIN follow_ups fu ON fu.application_id = app.id
		WHERE app.status IN ('Approved', 'Completed')
		GROUP BY app.id, a.name, b.name, ad.first_name, ad.last_name, app.app_date, app.status
		ORDER BY app.app_date DESC
	`, r.d.dateText("app.app_date"), r.d.dateText("MAX(fu.follow_up_date)")))
	return out, err
}
