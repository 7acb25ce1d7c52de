package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"pet-adoption/internal/domain/pets"
)

type petsRepo struct {
	db *sql.DB
	d  dialect
}

const animalSelect = `
	SELECT
		a.id, a.name, a.breed_id, a.shelter_id,
		a.gender, a.health_status, a.status,
		a.date_of_birth, a.intake_date, a.image_data,
		COALESCE(b.name, ''), COALESCE(sp.name, ''),
		COALESCE(sh.name, ''), COALESCE(sh.city, ''), COALESCE(sh.phone, ''),
		a.created_at, a.updated_at
	FROM animals a
	LEFT JOIN breeds b ON b.id = a.breed_id
	LEFT JOIN species sp ON sp.id = b.species_id
	LEFT JOIN shelters sh ON sh.id = a.shelter_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnimal(row scanner) (pets.Animal, error) {
	var (
		a   pets.Animal
		dob sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.BreedID,
		&a.ShelterID,
		&a.Gender,
		&a.HealthStatus,
		&a.Status,
		&dob,
		&a.IntakeDate,
		&a.ImageData,
		&a.BreedName,
		&a.SpeciesName,
		&a.ShelterName,
		&a.ShelterCity,
		&a.ShelterPhone,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return pets.Animal{}, err
	}
	a.DateOfBirth = fromNullTime(dob)
	return a, nil
}

func (r *petsRepo) Create(ctx context.Context, a pets.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO animals (
			id, name, breed_id, shelter_id,
			gender, health_status, status,
			date_of_birth, intake_date, image_data,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		a.ID,
		a.Name,
		a.BreedID,
		a.ShelterID,
		string(a.Gender),
		string(a.HealthStatus),
		string(a.Status),
		nullDay(a.DateOfBirth),
		day(a.IntakeDate),
		a.ImageData,
		utc(a.CreatedAt),
		utc(a.UpdatedAt),
	)
	return err
}

func (r *petsRepo) Update(ctx context.Context, a pets.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE animals
		SET
			name = $2,
			gender = $3,
			health_status = $4,
			status = $5,
			date_of_birth = $6,
			image_data = $7,
			updated_at = $8
		WHERE id = $1
	`,
		a.ID,
		a.Name,
		string(a.Gender),
		string(a.HealthStatus),
		string(a.Status),
		nullDay(a.DateOfBirth),
		a.ImageData,
		utc(a.UpdatedAt),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *petsRepo) GetByID(ctx context.Context, id string) (pets.Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Animal{}, pets.ErrNotFound
	}

	a, err := scanAnimal(r.db.QueryRowContext(ctx, animalSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return pets.Animal{}, pets.ErrNotFound
	}
	return a, err
}

func (r *petsRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Animal, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, "a.status = $1")
	}
	if f.ExcludeStatus != nil {
		args = append(args, string(*f.ExcludeStatus))
		where = append(where, "a.status <> $"+strconv.Itoa(len(args)))
	}

	q := animalSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY a.created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete corre en una transacción: lock del animal, guarda de Pending y borrado en cascada
// (seguimientos, solicitudes, historial médico, animal).
func (r *petsRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var got string
		err := tx.QueryRowContext(ctx, `SELECT id FROM animals WHERE id = $1`+r.d.forUpdate(), id).Scan(&got)
		if errors.Is(err, sql.ErrNoRows) {
			return pets.ErrNotFound
		}
		if err != nil {
			return err
		}

		var pending int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM applications WHERE animal_id = $1 AND status = 'Pending'
		`, id).Scan(&pending); err != nil {
			return err
		}
		if pending > 0 {
			return &pets.PendingApplicationsError{Count: pending}
		}

		for _, q := range []string{
			`DELETE FROM follow_ups WHERE application_id IN (SELECT id FROM applications WHERE animal_id = $1)`,
			`DELETE FROM applications WHERE animal_id = $1`,
			`DELETE FROM medical_records WHERE animal_id = $1`,
			`DELETE FROM animals WHERE id = $1`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}
