package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
)

type petRepo struct {
	s *Store
}

func (r *petRepo) Create(ctx context.Context, a pets.Animal) error {
	return r.s.update(func(d *data) error {
		if strings.TrimSpace(a.ID) == "" {
			return errors.New("pet id required")
		}
		if _, exists := d.animals[a.ID]; exists {
			return errors.New("pet already exists")
		}
		d.animals[a.ID] = a
		return nil
	})
}

func (r *petRepo) Update(ctx context.Context, a pets.Animal) error {
	return r.s.update(func(d *data) error {
		if _, exists := d.animals[a.ID]; !exists {
			return pets.ErrNotFound
		}
		d.animals[a.ID] = a
		return nil
	})
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Animal, error) {
	var (
		a  pets.Animal
		ok bool
	)
	r.s.read(func(d *data) { a, ok = d.animals[id] })
	if !ok {
		return pets.Animal{}, pets.ErrNotFound
	}
	return a, nil
}

func (r *petRepo) List(ctx context.Context, f pets.ListFilter) ([]pets.Animal, error) {
	out := make([]pets.Animal, 0)
	r.s.read(func(d *data) {
		for _, a := range d.animals {
			if f.Status != nil && a.Status != *f.Status {
				continue
			}
			if f.ExcludeStatus != nil && a.Status == *f.ExcludeStatus {
				continue
			}
			out = append(out, a)
		}
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete rechaza si hay Pending; si no, borra solicitudes y seguimientos del animal.
func (r *petRepo) Delete(ctx context.Context, id string) error {
	return r.s.update(func(d *data) error {
		if _, ok := d.animals[id]; !ok {
			return pets.ErrNotFound
		}

		pending := 0
		for _, app := range d.applications {
			if app.AnimalID == id && app.Status == applications.StatusPending {
				pending++
			}
		}
		if pending > 0 {
			return &pets.PendingApplicationsError{Count: pending}
		}

		for appID, app := range d.applications {
			if app.AnimalID != id {
				continue
			}
			for fid, f := range d.followUps {
				if f.ApplicationID == appID {
					delete(d.followUps, fid)
				}
			}
			delete(d.applications, appID)
		}
		delete(d.animals, id)
		return nil
	})
}
