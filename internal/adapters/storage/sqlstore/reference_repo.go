package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"pet-adoption/internal/domain/reference"
)

type referenceRepo struct {
	db *sql.DB
}

func (r *referenceRepo) ListSpecies(ctx context.Context) ([]reference.Species, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM species ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reference.Species, 0)
	for rows.Next() {
		var s reference.Species
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const breedColumns = `b.id, b.species_id, s.name, b.name`

func (r *referenceRepo) ListBreeds(ctx context.Context) ([]reference.Breed, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+breedColumns+`
		FROM breeds b
		JOIN species s ON s.id = b.species_id
		ORDER BY s.name, b.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reference.Breed, 0)
	for rows.Next() {
		var b reference.Breed
		if err := rows.Scan(&b.ID, &b.SpeciesID, &b.SpeciesName, &b.Name); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *referenceRepo) ListShelters(ctx context.Context) ([]reference.Shelter, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, city, capacity, phone FROM shelters ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reference.Shelter, 0)
	for rows.Next() {
		var s reference.Shelter
		if err := rows.Scan(&s.ID, &s.Name, &s.City, &s.Capacity, &s.Phone); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *referenceRepo) GetBreed(ctx context.Context, id string) (reference.Breed, error) {
	return r.breed(ctx, `WHERE b.id = $1`, id)
}

func (r *referenceRepo) FindBreed(ctx context.Context, speciesID, name string) (reference.Breed, error) {
	return r.breed(ctx, `WHERE b.species_id = $1 AND lower(b.name) = lower($2)`, speciesID, name)
}

func (r *referenceRepo) breed(ctx context.Context, where string, args ...any) (reference.Breed, error) {
	var b reference.Breed
	err := r.db.QueryRowContext(ctx, `
		SELECT `+breedColumns+`
		FROM breeds b
		JOIN species s ON s.id = b.species_id
		`+where, args...).Scan(&b.ID, &b.SpeciesID, &b.SpeciesName, &b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Breed{}, reference.ErrNotFound
	}
	return b, err
}

func (r *referenceRepo) GetShelter(ctx context.Context, id string) (reference.Shelter, error) {
	return r.shelter(ctx, `WHERE id = $1`, id)
}

func (r *referenceRepo) FindShelterByName(ctx context.Context, name string) (reference.Shelter, error) {
	return r.shelter(ctx, `WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`, name)
}

func (r *referenceRepo) shelter(ctx context.Context, where, arg string) (reference.Shelter, error) {
	var s reference.Shelter
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, city, capacity, phone
		FROM shelters
		`+where, arg).Scan(&s.ID, &s.Name, &s.City, &s.Capacity, &s.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Shelter{}, reference.ErrNotFound
	}
	return s, err
}

func (r *referenceRepo) FindSpeciesByName(ctx context.Context, name string) (reference.Species, error) {
	var s reference.Species
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM species WHERE lower(name) = lower($1)`, name).Scan(&s.ID, &s.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Species{}, reference.ErrNotFound
	}
	return s, err
}

func (r *referenceRepo) CreateSpecies(ctx context.Context, s reference.Species) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO species (id, name) VALUES ($1, $2)`, s.ID, s.Name)
	return mapReferenceErr(err)
}

func (r *referenceRepo) CreateBreed(ctx context.Context, b reference.Breed) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO breeds (id, species_id, name) VALUES ($1, $2, $3)`, b.ID, b.SpeciesID, b.Name)
	return mapReferenceErr(err)
}

func (r *referenceRepo) CreateShelter(ctx context.Context, s reference.Shelter) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shelters (id, name, city, capacity, phone)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Name, s.City, s.Capacity, s.Phone)
	return mapReferenceErr(err)
}

func mapReferenceErr(err error) error {
	if isUniqueViolation(err) {
		return reference.ErrDuplicate
	}
	return err
}
