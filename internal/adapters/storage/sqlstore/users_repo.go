package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/capabilities"
)

type usersRepo struct {
	db *sql.DB
}

func (r *usersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		string(u.Role),
		utc(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	return err
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, role, created_at
		FROM users
		`+where, arg)

	var u users.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return u, nil
}

func (r *usersRepo) UpdateRole(ctx context.Context, id string, role capabilities.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}
