package memory

import (
	"context"

	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/capabilities"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	return r.s.update(func(d *data) error {
		for _, existing := range d.users {
			if existing.Email == u.Email {
				return users.ErrEmailTaken
			}
		}
		d.users[u.ID] = u
		return nil
	})
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	r.s.read(func(d *data) { u, ok = d.users[id] })
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	r.s.read(func(d *data) {
		for _, candidate := range d.users {
			if candidate.Email == email {
				u, ok = candidate, true
				return
			}
		}
	})
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) UpdateRole(ctx context.Context, id string, role capabilities.Role) error {
	return r.s.update(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return users.ErrNotFound
		}
		u.Role = role
		d.users[id] = u
		return nil
	})
}
