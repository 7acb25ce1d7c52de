package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
)

type applicationsStore struct {
	db *sql.DB
	d  dialect
}

func (s *applicationsStore) WithinTx(ctx context.Context, fn func(tx applications.Tx) error) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&appTx{tx: tx, d: s.d})
	})
}

func (s *applicationsStore) FindAdopterByEmail(ctx context.Context, email string) (applications.Adopter, error) {
	return findAdopter(ctx, s.db, email)
}

const applicationViewSelect = `
	SELECT
		app.id, app.adopter_id, app.animal_id, app.app_date, app.status, app.notes,
		app.created_at, app.updated_at,
		ad.first_name, ad.last_name, ad.email, ad.phone,
		a.name, a.status, a.gender, a.health_status, a.date_of_birth,
		COALESCE(b.name, ''), COALESCE(sp.name, ''),
		COALESCE(sh.name, ''), COALESCE(sh.city, ''), COALESCE(sh.phone, '')
	FROM applications app
	JOIN adopters ad ON ad.id = app.adopter_id
	JOIN animals a ON a.id = app.animal_id
	LEFT JOIN breeds b ON b.id = a.breed_id
	LEFT JOIN species sp ON sp.id = b.species_id
	LEFT JOIN shelters sh ON sh.id = a.shelter_id
`

func scanApplicationView(row scanner) (applications.ApplicationView, error) {
	var (
		v   applications.ApplicationView
		dob sql.NullTime
	)
	err := row.Scan(
		&v.ID,
		&v.AdopterID,
		&v.AnimalID,
		&v.AppDate,
		&v.Status,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.AdopterFirstName,
		&v.AdopterLastName,
		&v.AdopterEmail,
		&v.AdopterPhone,
		&v.AnimalName,
		&v.AnimalStatus,
		&v.AnimalGender,
		&v.AnimalHealthStatus,
		&dob,
		&v.BreedName,
		&v.SpeciesName,
		&v.ShelterName,
		&v.ShelterCity,
		&v.ShelterPhone,
	)
	if err != nil {
		return applications.ApplicationView{}, err
	}
	v.AnimalDateOfBirth = fromNullTime(dob)
	return v, nil
}

func (s *applicationsStore) List(ctx context.Context, f applications.ListFilter) ([]applications.ApplicationView, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, "app.status = $"+strconv.Itoa(len(args)))
	}
	if f.AdopterID != "" {
		args = append(args, f.AdopterID)
		where = append(where, "app.adopter_id = $"+strconv.Itoa(len(args)))
	}

	q := applicationViewSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY app.app_date DESC, app.created_at DESC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applications.ApplicationView, 0)
	for rows.Next() {
		v, err := scanApplicationView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *applicationsStore) GetByID(ctx context.Context, id string) (applications.ApplicationView, error) {
	v, err := scanApplicationView(s.db.QueryRowContext(ctx, applicationViewSelect+` WHERE app.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return applications.ApplicationView{}, applications.ErrNotFound
	}
	return v, err
}

func (s *applicationsStore) ListFollowUps(ctx context.Context, applicationID string) ([]applications.FollowUp, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, follow_up_date, follow_up_type, status, notes, created_at
		FROM follow_ups
		WHERE application_id = $1
		ORDER BY follow_up_date DESC, created_at DESC
	`, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]applications.FollowUp, 0)
	for rows.Next() {
		var f applications.FollowUp
		if err := rows.Scan(&f.ID, &f.ApplicationID, &f.FollowUpDate, &f.FollowUpType, &f.Status, &f.Notes, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// queryRower lo cumplen *sql.DB y *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findAdopter(ctx context.Context, q queryRower, email string) (applications.Adopter, error) {
	var a applications.Adopter
	err := q.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at
		FROM adopters
		WHERE email = $1
	`, email).Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return applications.Adopter{}, applications.ErrNoAdopter
	}
	return a, err
}

// appTx implementa applications.Tx sobre una *sql.Tx.
type appTx struct {
	tx *sql.Tx
	d  dialect
}

func (t *appTx) LockAnimal(ctx context.Context, animalID string) (pets.Status, error) {
	var st pets.Status
	err := t.tx.QueryRowContext(ctx, `SELECT status FROM animals WHERE id = $1`+t.d.forUpdate(), animalID).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return "", applications.ErrAnimalMissing
	}
	return st, err
}

func (t *appTx) MarkAnimalAdopted(ctx context.Context, animalID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE animals SET status = 'Adopted', updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status <> 'Adopted'
	`, animalID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// 0 filas: o no existe o ya estaba adoptado.
	var exists int
	err = t.tx.QueryRowContext(ctx, `SELECT 1 FROM animals WHERE id = $1`, animalID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, applications.ErrAnimalMissing
	}
	return false, err
}

func (t *appTx) FindAdopterByEmail(ctx context.Context, email string) (applications.Adopter, error) {
	return findAdopter(ctx, t.tx, email)
}

func (t *appTx) CreateAdopter(ctx context.Context, a applications.Adopter) (applications.Adopter, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO adopters (id, first_name, last_name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`, a.ID, a.FirstName, a.LastName, a.Email, a.Phone, utc(a.CreatedAt))
	if err != nil {
		return applications.Adopter{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return applications.Adopter{}, err
	}
	if n > 0 {
		return a, nil
	}
	// Otra transacción insertó el email primero.
	return findAdopter(ctx, t.tx, a.Email)
}

func (t *appTx) UpdateAdopterPhone(ctx context.Context, adopterID, phone string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE adopters SET phone = $2 WHERE id = $1`, adopterID, phone)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return applications.ErrNoAdopter
	}
	return nil
}

func (t *appTx) CountApplications(ctx context.Context, adopterID, animalID string, status applications.Status) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE adopter_id = $1 AND animal_id = $2 AND status = $3
	`, adopterID, animalID, string(status)).Scan(&n)
	return n, err
}

func (t *appTx) CreateApplication(ctx context.Context, a applications.Application) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO applications (id, adopter_id, animal_id, app_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		a.ID,
		a.AdopterID,
		a.AnimalID,
		day(a.AppDate),
		string(a.Status),
		a.Notes,
		utc(a.CreatedAt),
		utc(a.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return applications.ErrDuplicatePending
	}
	return err
}

func (t *appTx) LockApplication(ctx context.Context, id string) (applications.Application, error) {
	var a applications.Application
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, adopter_id, animal_id, app_date, status, notes, created_at, updated_at
		FROM applications
		WHERE id = $1`+t.d.forUpdate(), id).Scan(
		&a.ID,
		&a.AdopterID,
		&a.AnimalID,
		&a.AppDate,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return applications.Application{}, applications.ErrNotFound
	}
	return a, err
}

func (t *appTx) UpdateApplication(ctx context.Context, a applications.Application) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications SET status = $2, notes = $3, updated_at = $4
		WHERE id = $1
	`, a.ID, string(a.Status), a.Notes, utc(a.UpdatedAt))
	if isUniqueViolation(err) {
		return applications.ErrDuplicatePending
	}
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return applications.ErrNotFound
	}
	return nil
}

func (t *appTx) CountAdoptions(ctx context.Context, animalID, excludeID string) (int, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM applications
		WHERE animal_id = $1 AND id <> $2 AND status IN ('Approved', 'Completed')
	`, animalID, excludeID).Scan(&n)
	return n, err
}

func (t *appTx) RejectPendingSiblings(ctx context.Context, animalID, keepID string) (int, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE applications SET status = 'Rejected', updated_at = CURRENT_TIMESTAMP
		WHERE animal_id = $1 AND id <> $2 AND status = 'Pending'
	`, animalID, keepID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (t *appTx) CreateFollowUp(ctx context.Context, f applications.FollowUp) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO follow_ups (id, application_id, follow_up_date, follow_up_type, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		f.ID,
		f.ApplicationID,
		day(f.FollowUpDate),
		f.FollowUpType,
		string(f.Status),
		f.Notes,
		utc(f.CreatedAt),
	)
	return err
}
