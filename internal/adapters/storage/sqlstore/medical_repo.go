package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"pet-adoption/internal/domain/medical"
)

type medicalRepo struct {
	db *sql.DB
}

const recordSelect = `
	SELECT
		m.id, m.animal_id, COALESCE(a.name, ''),
		m.record_date, m.record_type, m.description, m.veterinarian, m.notes,
		m.created_at
	FROM medical_records m
	LEFT JOIN animals a ON a.id = m.animal_id
`

func scanRecord(row scanner) (medical.Record, error) {
	var rec medical.Record
	err := row.Scan(
		&rec.ID,
		&rec.AnimalID,
		&rec.AnimalName,
		&rec.RecordDate,
		&rec.RecordType,
		&rec.Description,
		&rec.Veterinarian,
		&rec.Notes,
		&rec.CreatedAt,
	)
	return rec, err
}

func (r *medicalRepo) Create(ctx context.Context, rec medical.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medical_records (
			id, animal_id, record_date, record_type, description, veterinarian, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		rec.ID,
		rec.AnimalID,
		day(rec.RecordDate),
		rec.RecordType,
		rec.Description,
		rec.Veterinarian,
		rec.Notes,
		utc(rec.CreatedAt),
	)
	return err
}

func (r *medicalRepo) Update(ctx context.Context, rec medical.Record) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_records
		SET record_date = $2, record_type = $3, description = $4, veterinarian = $5, notes = $6
		WHERE id = $1
	`,
		rec.ID,
		day(rec.RecordDate),
		rec.RecordType,
		rec.Description,
		rec.Veterinarian,
		rec.Notes,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medical.ErrNotFound
	}
	return nil
}

func (r *medicalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medical.ErrNotFound
	}
	return nil
}

func (r *medicalRepo) GetByID(ctx context.Context, id string) (medical.Record, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, recordSelect+` WHERE m.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return medical.Record{}, medical.ErrNotFound
	}
	return rec, err
}

func (r *medicalRepo) ListByAnimal(ctx context.Context, animalID string) ([]medical.Record, error) {
	rows, err := r.db.QueryContext(ctx, recordSelect+`
		WHERE m.animal_id = $1
		ORDER BY m.record_date DESC, m.created_at DESC
	`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medical.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
