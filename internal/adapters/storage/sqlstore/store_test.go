package sqlstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pet-adoption/internal/adapters/storage/sqlstore"
	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/medical"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/domain/reference"
	"pet-adoption/internal/domain/reports"
	"pet-adoption/internal/domain/users"
	"pet-adoption/internal/ports/capabilities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = capabilities.Caller{UserID: "admin-1", Email: "admin@example.com", Role: capabilities.RoleAdmin}

type fixture struct {
	store   *sqlstore.Store
	ref     *reference.Service
	pets    *pets.Service
	apps    *applications.Service
	medical *medical.Service
	reports *reports.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlstore.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ref := reference.NewService(st.Reference())
	petSvc := pets.NewService(st.Pets(), ref)
	return &fixture{
		store:   st,
		ref:     ref,
		pets:    petSvc,
		apps:    applications.NewService(st.Applications(), nil),
		medical: medical.NewService(st.Medical(), petSvc),
		reports: reports.NewService(st.Reports(), nil, 0, nil),
	}
}

func (f *fixture) createPet(t *testing.T, name string) pets.Animal {
	t.Helper()
	a, err := f.pets.Create(context.Background(), admin, pets.CreateInput{
		Name:        name,
		Gender:      "M",
		BreedName:   "Labrador",
		SpeciesName: "Dog",
		ShelterName: "Central Shelter",
		ShelterCity: "Springfield",
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) submit(t *testing.T, animalID, email string) applications.Application {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), capabilities.Caller{UserID: email, Email: email}, applications.SubmitInput{
		AnimalID:  animalID,
		FirstName: "First",
		LastName:  "Last",
		Email:     email,
	})
	require.NoError(t, err)
	return app
}

func TestMigrate_Idempotent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, sqlstore.Migrate(f.store.DB(), sqlstore.DriverSQLite))

	v, dirty, err := sqlstore.MigrationVersion(f.store.DB(), sqlstore.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
	assert.False(t, dirty)
}

func TestUsersRepo(t *testing.T) {
	f := newFixture(t)
	repo := f.store.Users()
	ctx := context.Background()

	u := users.User{
		ID:           "u1",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		FirstName:    "Ana",
		LastName:     "Diaz",
		Role:         capabilities.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, u))

	dup := u
	dup.ID = "u2"
	assert.ErrorIs(t, repo.Create(ctx, dup), users.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, capabilities.RoleUser, got.Role)

	require.NoError(t, repo.UpdateRole(ctx, "u1", capabilities.RoleAdmin))
	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, capabilities.RoleAdmin, got.Role)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, users.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateRole(ctx, "missing", capabilities.RoleAdmin), users.ErrNotFound)
}

func TestPets_CreateResolvesCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createPet(t, "Rex")
	second := f.createPet(t, "Toby")

	assert.Equal(t, first.BreedID, second.BreedID, "breed must be reused by name")
	assert.Equal(t, first.ShelterID, second.ShelterID, "shelter must be reused by name")

	got, err := f.pets.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Labrador", got.BreedName)
	assert.Equal(t, "Dog", got.SpeciesName)
	assert.Equal(t, "Springfield", got.ShelterCity)
	assert.Equal(t, pets.StatusAvailable, got.Status)
	assert.Nil(t, got.DateOfBirth)

	shelters, err := f.ref.ListShelters(ctx)
	require.NoError(t, err)
	require.Len(t, shelters, 1)
	assert.Equal(t, reference.DefaultShelterCapacity, shelters[0].Capacity)
}

func TestApplications_ApprovalCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Luna")

	a1 := f.submit(t, pet.ID, "one@example.com")
	a2 := f.submit(t, pet.ID, "two@example.com")
	a3 := f.submit(t, pet.ID, "three@example.com")

	_, err := f.apps.Submit(ctx, capabilities.Caller{UserID: "x", Email: "one@example.com"}, applications.SubmitInput{
		AnimalID: pet.ID, FirstName: "First", LastName: "Last", Email: "ONE@example.com",
	})
	assert.ErrorIs(t, err, applications.ErrDuplicatePending)

	change, err := f.apps.UpdateStatus(ctx, admin, a2.ID, applications.UpdateStatusInput{Status: "Approved"})
	require.NoError(t, err)
	assert.True(t, change.AnimalAdopted)
	assert.Equal(t, 2, change.RejectedSiblings)

	for id, want := range map[string]applications.Status{
		a1.ID: applications.StatusRejected,
		a2.ID: applications.StatusApproved,
		a3.ID: applications.StatusRejected,
	} {
		v, err := f.apps.Get(ctx, admin, id)
		require.NoError(t, err)
		assert.Equal(t, want, v.Status, id)
		assert.Equal(t, pets.StatusAdopted, v.AnimalStatus)
	}

	// Aprobar otra con el animal ya adoptado es conflicto y no toca nada.
	_, err = f.apps.UpdateStatus(ctx, admin, a1.ID, applications.UpdateStatusInput{Status: "Approved"})
	assert.ErrorIs(t, err, applications.ErrAlreadyAdopted)
	v, err := f.apps.Get(ctx, admin, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusRejected, v.Status)

	notes := "home visit ok"
	change, err = f.apps.UpdateStatus(ctx, admin, a2.ID, applications.UpdateStatusInput{Status: "Approved", Notes: &notes})
	require.NoError(t, err)
	assert.False(t, change.AnimalAdopted)
	assert.Zero(t, change.RejectedSiblings)

	_, err = f.apps.Submit(ctx, capabilities.Caller{UserID: "n", Email: "new@example.com"}, applications.SubmitInput{
		AnimalID: pet.ID, FirstName: "N", LastName: "N", Email: "new@example.com",
	})
	assert.ErrorIs(t, err, applications.ErrAlreadyAdopted)
}

func TestApplications_ApproveAgainAfterCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Kira")

	a1 := f.submit(t, pet.ID, "one@example.com")
	_, err := f.apps.UpdateStatus(ctx, admin, a1.ID, applications.UpdateStatusInput{Status: "Approved"})
	require.NoError(t, err)
	_, err = f.apps.UpdateStatus(ctx, admin, a1.ID, applications.UpdateStatusInput{Status: "Completed"})
	require.NoError(t, err)

	change, err := f.apps.UpdateStatus(ctx, admin, a1.ID, applications.UpdateStatusInput{Status: "Approved"})
	require.NoError(t, err)
	assert.False(t, change.AnimalAdopted)

	v, err := f.apps.Get(ctx, admin, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, applications.StatusApproved, v.Status)
	assert.Equal(t, pets.StatusAdopted, v.AnimalStatus)
}

func TestApplications_CreateAdopterKeepsExistingEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	var first, second applications.Adopter
	err := f.store.Applications().WithinTx(ctx, func(tx applications.Tx) error {
		var err error
		first, err = tx.CreateAdopter(ctx, applications.Adopter{
			ID: "ad-1", FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", CreatedAt: now,
		})
		if err != nil {
			return err
		}
		second, err = tx.CreateAdopter(ctx, applications.Adopter{
			ID: "ad-2", FirstName: "Ana", LastName: "D", Email: "ana@example.com", CreatedAt: now,
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "ad-1", first.ID)
	assert.Equal(t, "ad-1", second.ID, "the adopter already stored for the email wins")
	assert.Equal(t, "Diaz", second.LastName)
}

func TestApplications_PartialUniqueIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Milo")
	app := f.submit(t, pet.ID, "dup@example.com")

	err := f.store.Applications().WithinTx(ctx, func(tx applications.Tx) error {
		return tx.CreateApplication(ctx, applications.Application{
			ID:        "manual",
			AdopterID: app.AdopterID,
			AnimalID:  pet.ID,
			AppDate:   time.Now(),
			Status:    applications.StatusPending,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	})
	assert.ErrorIs(t, err, applications.ErrDuplicatePending)
}

func TestApplications_FollowUpsAndScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Kira")
	app := f.submit(t, pet.ID, "owner@example.com")
	f.submit(t, f.createPet(t, "Other").ID, "someone@example.com")

	d1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{d1, d2} {
		_, err := f.apps.AddFollowUp(ctx, admin, app.ID, applications.FollowUpInput{FollowUpDate: &d, FollowUpType: "Home Visit"})
		require.NoError(t, err)
	}
	_, err := f.apps.AddFollowUp(ctx, admin, "missing", applications.FollowUpInput{FollowUpDate: &d1, FollowUpType: "Call"})
	assert.ErrorIs(t, err, applications.ErrNotFound)

	owner := capabilities.Caller{UserID: "owner", Email: "Owner@Example.com"}
	items, err := f.apps.ListFollowUps(ctx, owner, app.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].FollowUpDate.Equal(d2), "newest first")
	assert.Equal(t, applications.FollowUpScheduled, items[0].Status)

	mine, err := f.apps.List(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Kira", mine[0].AnimalName)
	assert.Equal(t, "Labrador", mine[0].BreedName)

	all, err := f.apps.List(ctx, admin, "Pending")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.apps.Get(ctx, capabilities.Caller{UserID: "stranger", Email: "stranger@example.com"}, app.ID)
	assert.ErrorIs(t, err, applications.ErrForbidden)
}

func TestPets_DeleteGuardAndCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Nala")
	app := f.submit(t, pet.ID, "a@example.com")

	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := f.medical.Add(ctx, admin, medical.AddInput{AnimalID: pet.ID, RecordDate: &date, RecordType: "Vaccination"})
	require.NoError(t, err)

	err = f.pets.Delete(ctx, admin, pet.ID)
	var pending *pets.PendingApplicationsError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, 1, pending.Count)

	_, err = f.apps.UpdateStatus(ctx, admin, app.ID, applications.UpdateStatusInput{Status: "Approved"})
	require.NoError(t, err)
	_, err = f.apps.AddFollowUp(ctx, admin, app.ID, applications.FollowUpInput{FollowUpDate: &date, FollowUpType: "Call"})
	require.NoError(t, err)

	require.NoError(t, f.pets.Delete(ctx, admin, pet.ID))

	_, err = f.pets.GetByID(ctx, pet.ID)
	assert.ErrorIs(t, err, pets.ErrNotFound)
	_, err = f.apps.Get(ctx, admin, app.ID)
	assert.ErrorIs(t, err, applications.ErrNotFound)
	records, err := f.store.Medical().ListByAnimal(ctx, pet.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.ErrorIs(t, f.pets.Delete(ctx, admin, pet.ID), pets.ErrNotFound)
}

func TestMedicalRepo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pet := f.createPet(t, "Coco")

	older := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	r1, err := f.medical.Add(ctx, admin, medical.AddInput{AnimalID: pet.ID, RecordDate: &older, RecordType: "Checkup"})
	require.NoError(t, err)
	_, err = f.medical.Add(ctx, admin, medical.AddInput{AnimalID: pet.ID, RecordDate: &newer, RecordType: "Treatment"})
	require.NoError(t, err)

	items, err := f.medical.ListByAnimal(ctx, pet.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Treatment", items[0].RecordType)
	assert.Equal(t, "Coco", items[0].AnimalName)
	assert.True(t, items[1].RecordDate.Equal(older))

	vet := "Dr. House"
	updated, err := f.medical.Update(ctx, admin, r1.ID, medical.UpdateInput{Veterinarian: &vet})
	require.NoError(t, err)
	assert.Equal(t, vet, updated.Veterinarian)

	require.NoError(t, f.medical.Delete(ctx, admin, r1.ID))
	assert.ErrorIs(t, f.medical.Delete(ctx, admin, r1.ID), medical.ErrNotFound)
}

func TestReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.createPet(t, "A")
	f.createPet(t, "B")
	app := f.submit(t, p1.ID, "r@example.com")
	_, err := f.apps.UpdateStatus(ctx, admin, app.ID, applications.UpdateStatusInput{Status: "Approved"})
	require.NoError(t, err)
	fu := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.apps.AddFollowUp(ctx, admin, app.ID, applications.FollowUpInput{FollowUpDate: &fu, FollowUpType: "Call", Status: "Completed"})
	require.NoError(t, err)

	res, err := f.reports.Get(ctx, admin, "adoption-rates")
	require.NoError(t, err)
	var rates reports.AdoptionRateSummary
	require.NoError(t, json.Unmarshal(res.Data, &rates))
	assert.Equal(t, 2, rates.TotalAnimals)
	assert.Equal(t, 1, rates.AdoptedCount)
	assert.InDelta(t, 50.0, rates.AdoptionRatePercent, 0.001)

	res, err = f.reports.Get(ctx, admin, "follow-ups")
	require.NoError(t, err)
	var follow []reports.FollowUpSummary
	require.NoError(t, json.Unmarshal(res.Data, &follow))
	require.Len(t, follow, 1)
	assert.Equal(t, 1, follow[0].TotalFollowUps)
	assert.Equal(t, 1, follow[0].CompletedFollowUps)
	require.NotNil(t, follow[0].LastFollowUpDate)
	assert.Equal(t, "2025-02-01", *follow[0].LastFollowUpDate)

	for _, name := range reports.Names() {
		_, err := f.reports.Get(ctx, admin, string(name))
		assert.NoError(t, err, string(name))
	}

	waiting, err := f.store.Reports().WaitingTimes(ctx)
	require.NoError(t, err)
	assert.Zero(t, waiting.MinDays, "applied the same day as intake")

	breeds, err := f.store.Reports().PopularBreeds(ctx, reports.PopularBreedsLimit)
	require.NoError(t, err)
	require.Len(t, breeds, 1)
	assert.Equal(t, 2, breeds[0].TotalAnimals)
}
