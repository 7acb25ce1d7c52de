package memory

import (
	"context"
	"sort"

	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
)

type applicationStore struct {
	s *Store
}

func (a *applicationStore) WithinTx(ctx context.Context, fn func(tx applications.Tx) error) error {
	return a.s.update(func(d *data) error {
		return fn(&memTx{d: d})
	})
}

func (a *applicationStore) FindAdopterByEmail(ctx context.Context, email string) (applications.Adopter, error) {
	var (
		out applications.Adopter
		err error
	)
	a.s.read(func(d *data) { out, err = (&memTx{d: d}).FindAdopterByEmail(ctx, email) })
	return out, err
}

func (a *applicationStore) List(ctx context.Context, f applications.ListFilter) ([]applications.ApplicationView, error) {
	out := make([]applications.ApplicationView, 0)
	a.s.read(func(d *data) {
		for _, app := range d.applications {
			if f.Status != nil && app.Status != *f.Status {
				continue
			}
			if f.AdopterID != "" && app.AdopterID != f.AdopterID {
				continue
			}
			out = append(out, view(d, app))
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].AppDate.Equal(out[j].AppDate) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].AppDate.After(out[j].AppDate)
	})
	return out, nil
}

func (a *applicationStore) GetByID(ctx context.Context, id string) (applications.ApplicationView, error) {
	var (
		out applications.ApplicationView
		ok  bool
	)
	a.s.read(func(d *data) {
		var app applications.Application
		if app, ok = d.applications[id]; ok {
			out = view(d, app)
		}
	})
	if !ok {
		return applications.ApplicationView{}, applications.ErrNotFound
	}
	return out, nil
}

func (a *applicationStore) ListFollowUps(ctx context.Context, applicationID string) ([]applications.FollowUp, error) {
	out := make([]applications.FollowUp, 0)
	a.s.read(func(d *data) {
		for _, f := range d.followUps {
			if f.ApplicationID == applicationID {
				out = append(out, f)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].FollowUpDate.After(out[j].FollowUpDate)
	})
	return out, nil
}

func view(d *data, app applications.Application) applications.ApplicationView {
	v := applications.ApplicationView{Application: app}
	if ad, ok := d.adopters[app.AdopterID]; ok {
		v.AdopterFirstName = ad.FirstName
		v.AdopterLastName = ad.LastName
		v.AdopterEmail = ad.Email
		v.AdopterPhone = ad.Phone
	}
	if an, ok := d.animals[app.AnimalID]; ok {
		v.AnimalName = an.Name
		v.AnimalStatus = an.Status
		v.AnimalGender = an.Gender
		v.AnimalHealthStatus = an.HealthStatus
		v.AnimalDateOfBirth = an.DateOfBirth
		v.BreedName = an.BreedName
		v.SpeciesName = an.SpeciesName
		v.ShelterName = an.ShelterName
		v.ShelterCity = an.ShelterCity
		v.ShelterPhone = an.ShelterPhone
	}
	return v
}

// memTx opera sobre la copia abierta por WithinTx.
type memTx struct {
	d *data
}

func (t *memTx) LockAnimal(ctx context.Context, animalID string) (pets.Status, error) {
	an, ok := t.d.animals[animalID]
	if !ok {
		return "", applications.ErrAnimalMissing
	}
	return an.Status, nil
}

func (t *memTx) MarkAnimalAdopted(ctx context.Context, animalID string) (bool, error) {
	an, ok := t.d.animals[animalID]
	if !ok {
		return false, applications.ErrAnimalMissing
	}
	if an.Status == pets.StatusAdopted {
		return false, nil
	}
	an.Status = pets.StatusAdopted
	t.d.animals[animalID] = an
	return true, nil
}

func (t *memTx) FindAdopterByEmail(ctx context.Context, email string) (applications.Adopter, error) {
	for _, a := range t.d.adopters {
		if a.Email == email {
			return a, nil
		}
	}
	return applications.Adopter{}, applications.ErrNoAdopter
}

func (t *memTx) CreateAdopter(ctx context.Context, a applications.Adopter) (applications.Adopter, error) {
	if existing, err := t.FindAdopterByEmail(ctx, a.Email); err == nil {
		return existing, nil
	}
	t.d.adopters[a.ID] = a
	return a, nil
}

func (t *memTx) UpdateAdopterPhone(ctx context.Context, adopterID, phone string) error {
	a, ok := t.d.adopters[adopterID]
	if !ok {
		return applications.ErrNoAdopter
	}
	a.Phone = phone
	t.d.adopters[adopterID] = a
	return nil
}

func (t *memTx) CountApplications(ctx context.Context, adopterID, animalID string, status applications.Status) (int, error) {
	n := 0
	for _, app := range t.d.applications {
		if app.AdopterID == adopterID && app.AnimalID == animalID && app.Status == status {
			n++
		}
	}
	return n, nil
}

func (t *memTx) CreateApplication(ctx context.Context, a applications.Application) error {
	if a.Status == applications.StatusPending && t.hasOtherPending(a) {
		return applications.ErrDuplicatePending
	}
	t.d.applications[a.ID] = a
	return nil
}

func (t *memTx) LockApplication(ctx context.Context, id string) (applications.Application, error) {
	a, ok := t.d.applications[id]
	if !ok {
		return applications.Application{}, applications.ErrNotFound
	}
	return a, nil
}

func (t *memTx) UpdateApplication(ctx context.Context, a applications.Application) error {
	if _, ok := t.d.applications[a.ID]; !ok {
		return applications.ErrNotFound
	}
	if a.Status == applications.StatusPending && t.hasOtherPending(a) {
		return applications.ErrDuplicatePending
	}
	t.d.applications[a.ID] = a
	return nil
}

func (t *memTx) CountAdoptions(ctx context.Context, animalID, excludeID string) (int, error) {
	n := 0
	for id, app := range t.d.applications {
		if id == excludeID || app.AnimalID != animalID {
			continue
		}
		if app.Status == applications.StatusApproved || app.Status == applications.StatusCompleted {
			n++
		}
	}
	return n, nil
}

func (t *memTx) RejectPendingSiblings(ctx context.Context, animalID, keepID string) (int, error) {
	n := 0
	for id, app := range t.d.applications {
		if id == keepID || app.AnimalID != animalID || app.Status != applications.StatusPending {
			continue
		}
		app.Status = applications.StatusRejected
		t.d.applications[id] = app
		n++
	}
	return n, nil
}

func (t *memTx) CreateFollowUp(ctx context.Context, f applications.FollowUp) error {
	if _, ok := t.d.applications[f.ApplicationID]; !ok {
		return applications.ErrNotFound
	}
	t.d.followUps[f.ID] = f
	return nil
}

// hasOtherPending emula el índice único parcial (adopter, animal) WHERE Pending.
func (t *memTx) hasOtherPending(a applications.Application) bool {
	for id, other := range t.d.applications {
		if id != a.ID && other.AdopterID == a.AdopterID && other.AnimalID == a.AnimalID &&
			other.Status == applications.StatusPending {
			return true
		}
	}
	return false
}
