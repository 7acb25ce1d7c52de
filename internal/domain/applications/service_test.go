package applications_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pet-adoption/internal/adapters/storage/memory"
	"pet-adoption/internal/domain/applications"
	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/capabilities"
)

var (
	admin = capabilities.Caller{UserID: "admin-1", Email: "admin@shelter.org", Role: capabilities.RoleAdmin}
	ana   = capabilities.Caller{UserID: "user-ana", Email: "ana@example.com", Role: capabilities.RoleUser}
	bob   = capabilities.Caller{UserID: "user-bob", Email: "bob@example.com", Role: capabilities.RoleUser}
)

type fixture struct {
	store *memory.Store
	svc   *applications.Service
	rec   *countingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.NewStore()
	rec := &countingRecorder{}
	// Sin directorio de usuarios: se usa el email del token.
	svc := applications.NewService(st.Applications(), nil).WithRecorder(rec)
	return &fixture{store: st, svc: svc, rec: rec}
}

func (f *fixture) addAnimal(t *testing.T, id string, status pets.Status) {
	t.Helper()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	err := f.store.Pets().Create(context.Background(), pets.Animal{
		ID:           id,
		Name:         "Animal " + id,
		Gender:       pets.GenderFemale,
		HealthStatus: pets.HealthHealthy,
		Status:       status,
		IntakeDate:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("create animal: %v", err)
	}
}

func (f *fixture) animalStatus(t *testing.T, id string) pets.Status {
	t.Helper()

	a, err := f.store.Pets().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get animal: %v", err)
	}
	return a.Status
}

func (f *fixture) submit(t *testing.T, caller capabilities.Caller, animalID string) applications.Application {
	t.Helper()

	app, err := f.svc.Submit(context.Background(), caller, applications.SubmitInput{
		AnimalID:  animalID,
		FirstName: "First",
		LastName:  "Last",
		Email:     caller.Email,
	})
	if err != nil {
		t.Fatalf("submit %s for %s: %v", caller.Email, animalID, err)
	}
	return app
}

func (f *fixture) setStatus(t *testing.T, appID string, status applications.Status) applications.StatusChange {
	t.Helper()

	ch, err := f.svc.UpdateStatus(context.Background(), admin, appID, applications.UpdateStatusInput{Status: string(status)})
	if err != nil {
		t.Fatalf("update status %s -> %s: %v", appID, status, err)
	}
	return ch
}

type countingRecorder struct {
	mu        sync.Mutex
	submitted int
	changes   map[string]int
	cascades  int
}

func (r *countingRecorder) ApplicationSubmitted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted++
}

func (r *countingRecorder) ApplicationStatusChanged(status string, cascade int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.changes == nil {
		r.changes = map[string]int{}
	}
	r.changes[status]++
	r.cascades += cascade
}

func TestSubmit_CreatesPendingAndReusesAdopter(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "a1", pets.StatusAvailable)
	f.addAnimal(t, "a2", pets.StatusAvailable)
	ctx := context.Background()

	first, err := f.svc.Submit(ctx, ana, applications.SubmitInput{
		AnimalID: "a1", FirstName: "Ana", LastName: "Diaz", Email: " ANA@example.com ", Notes: "big yard",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Status != applications.StatusPending || first.Notes != "big yard" {
		t.Fatalf("unexpected application: %+v", first)
	}

	second, err := f.svc.Submit(ctx, ana, applications.SubmitInput{
		AnimalID: "a2", FirstName: "Ana", LastName: "Diaz", Email: "ana@example.com", Phone: "555-0101",
	})
	if err != nil {
		t.Fatalf("submit second: %v", err)
	}
	if second.AdopterID != first.AdopterID {
		t.Fatalf("adopter must be reused by email: %s vs %s", first.AdopterID, second.AdopterID)
	}

	adopter, err := f.store.Applications().FindAdopterByEmail(ctx, "ana@example.com")
	if err != nil || adopter.Phone != "555-0101" {
		t.Fatalf("phone should be updated on resubmission: %+v err=%v", adopter, err)
	}
	if f.rec.submitted != 2 {
		t.Fatalf("expected 2 submissions recorded, got %d", f.rec.submitted)
	}
}

func TestSubmit_Errors(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "a1", pets.StatusAvailable)
	f.addAnimal(t, "adopted", pets.StatusAdopted)
	ctx := context.Background()

	cases := []struct {
		name   string
		caller capabilities.Caller
		in     applications.SubmitInput
		want   error
	}{
		{"anonymous", capabilities.Caller{}, applications.SubmitInput{AnimalID: "a1", FirstName: "A", LastName: "B", Email: "x@y.z"}, applications.ErrUnauthorized},
		{"missing email", ana, applications.SubmitInput{AnimalID: "a1", FirstName: "A", LastName: "B"}, applications.ErrInvalidInput},
		{"missing animal id", ana, applications.SubmitInput{FirstName: "A", LastName: "B", Email: "x@y.z"}, applications.ErrInvalidInput},
		{"unknown animal", ana, applications.SubmitInput{AnimalID: "nope", FirstName: "A", LastName: "B", Email: "x@y.z"}, applications.ErrAnimalMissing},
		{"adopted animal", ana, applications.SubmitInput{AnimalID: "adopted", FirstName: "A", LastName: "B", Email: "x@y.z"}, applications.ErrAlreadyAdopted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.svc.Submit(ctx, tc.caller, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Un error de validación no deja adoptantes creados.
	if _, err := f.store.Applications().FindAdopterByEmail(ctx, "x@y.z"); !errors.Is(err, applications.ErrNoAdopter) {
		t.Fatalf("failed submissions must not create adopters, got %v", err)
	}
}

func TestSubmit_DuplicatePendingAndReapplication(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "a1", pets.StatusAvailable)
	ctx := context.Background()

	app := f.submit(t, ana, "a1")

	_, err := f.svc.Submit(ctx, ana, applications.SubmitInput{AnimalID: "a1", FirstName: "A", LastName: "D", Email: ana.Email})
	if !errors.Is(err, applications.ErrDuplicatePending) {
		t.Fatalf("expected ErrDuplicatePending, got %v", err)
	}

	f.setStatus(t, app.ID, applications.StatusRejected)

	_, err = f.svc.Submit(ctx, ana, applications.SubmitInput{AnimalID: "a1", FirstName: "A", LastName: "D", Email: ana.Email})
	if !errors.Is(err, applications.ErrReapplicationBlocked) {
		t.Fatalf("expected ErrReapplicationBlocked, got %v", err)
	}

	// Otro adoptante sí puede.
	f.submit(t, bob, "a1")
}

func TestUpdateStatus_ApproveCascades(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	carl := capabilities.Caller{UserID: "user-carl", Email: "carl@example.com"}

	app101 := f.submit(t, ana, "x")
	app102 := f.submit(t, bob, "x")
	app103 := f.submit(t, carl, "x")
	f.setStatus(t, app103.ID, applications.StatusCompleted)

	ch := f.setStatus(t, app101.ID, applications.StatusApproved)
	if !ch.AnimalAdopted || ch.RejectedSiblings != 1 || ch.Previous != applications.StatusPending {
		t.Fatalf("unexpected change: %+v", ch)
	}

	if got := f.animalStatus(t, "x"); got != pets.StatusAdopted {
		t.Fatalf("animal should be Adopted, got %s", got)
	}

	want := map[string]applications.Status{
		app101.ID: applications.StatusApproved,
		app102.ID: applications.StatusRejected,
		app103.ID: applications.StatusCompleted,
	}
	for id, status := range want {
		v, err := f.svc.Get(context.Background(), admin, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if v.Status != status {
			t.Fatalf("application %s: expected %s, got %s", id, status, v.Status)
		}
	}

	if f.rec.cascades != 1 || f.rec.changes["Approved"] != 1 {
		t.Fatalf("recorder not notified: %+v", f.rec)
	}
}

func TestUpdateStatus_ReapproveIsIdempotentAndSecondApprovalConflicts(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	ctx := context.Background()

	a := f.submit(t, ana, "x")
	b := f.submit(t, bob, "x")

	f.setStatus(t, a.ID, applications.StatusApproved)

	notes := "signed contract"
	ch, err := f.svc.UpdateStatus(ctx, admin, a.ID, applications.UpdateStatusInput{Status: "Approved", Notes: &notes})
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if ch.AnimalAdopted || ch.RejectedSiblings != 0 {
		t.Fatalf("re-approve must not cascade again: %+v", ch)
	}
	v, _ := f.svc.Get(ctx, admin, a.ID)
	if v.Notes != notes {
		t.Fatalf("notes not updated: %q", v.Notes)
	}

	// b fue rechazada por la cascada; volver a Pending y aprobar debe chocar.
	f.setStatus(t, b.ID, applications.StatusPending)
	_, err = f.svc.UpdateStatus(ctx, admin, b.ID, applications.UpdateStatusInput{Status: "Approved"})
	if !errors.Is(err, applications.ErrAlreadyAdopted) {
		t.Fatalf("expected ErrAlreadyAdopted, got %v", err)
	}
	vb, _ := f.svc.Get(ctx, admin, b.ID)
	if vb.Status != applications.StatusPending {
		t.Fatalf("failed approval must roll back, got %s", vb.Status)
	}
}

func TestUpdateStatus_ApprovingTheAdoptingApplicationAgainSucceeds(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	ctx := context.Background()

	a := f.submit(t, ana, "x")
	b := f.submit(t, bob, "x")
	f.setStatus(t, a.ID, applications.StatusApproved)

	// Completed -> Approved sobre la misma solicitud.
	f.setStatus(t, a.ID, applications.StatusCompleted)
	ch, err := f.svc.UpdateStatus(ctx, admin, a.ID, applications.UpdateStatusInput{Status: "Approved"})
	if err != nil {
		t.Fatalf("approve after Completed: %v", err)
	}
	if ch.AnimalAdopted || ch.Previous != applications.StatusCompleted {
		t.Fatalf("unexpected change: %+v", ch)
	}

	// Pending -> Approved; la cascada vuelve a rechazar a b, reabierta mientras tanto.
	f.setStatus(t, a.ID, applications.StatusPending)
	f.setStatus(t, b.ID, applications.StatusPending)
	ch, err = f.svc.UpdateStatus(ctx, admin, a.ID, applications.UpdateStatusInput{Status: "Approved"})
	if err != nil {
		t.Fatalf("approve after Pending: %v", err)
	}
	if ch.RejectedSiblings != 1 {
		t.Fatalf("expected 1 rejected sibling, got %+v", ch)
	}
	vb, _ := f.svc.Get(ctx, admin, b.ID)
	if vb.Status != applications.StatusRejected {
		t.Fatalf("sibling should be Rejected, got %s", vb.Status)
	}
	if got := f.animalStatus(t, "x"); got != pets.StatusAdopted {
		t.Fatalf("animal should stay Adopted, got %s", got)
	}

	// Una solicitud distinta sigue chocando.
	f.setStatus(t, b.ID, applications.StatusPending)
	if _, err := f.svc.UpdateStatus(ctx, admin, b.ID, applications.UpdateStatusInput{Status: "Approved"}); !errors.Is(err, applications.ErrAlreadyAdopted) {
		t.Fatalf("expected ErrAlreadyAdopted, got %v", err)
	}
}

func TestSubmit_ConcurrentFirstSubmissionsShareAdopter(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "a1", pets.StatusAvailable)
	f.addAnimal(t, "a2", pets.StatusAvailable)

	var (
		wg   sync.WaitGroup
		apps [2]applications.Application
		errs [2]error
	)
	for i, animal := range []string{"a1", "a2"} {
		wg.Add(1)
		go func(i int, animal string) {
			defer wg.Done()
			apps[i], errs[i] = f.svc.Submit(context.Background(), ana, applications.SubmitInput{
				AnimalID: animal, FirstName: "Ana", LastName: "Diaz", Email: ana.Email,
			})
		}(i, animal)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if apps[0].AdopterID != apps[1].AdopterID {
		t.Fatalf("expected one adopter, got %s and %s", apps[0].AdopterID, apps[1].AdopterID)
	}
}

func TestUpdateStatus_NonApprovedLeavesAnimalUntouched(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusPending)

	app := f.submit(t, ana, "x")
	for _, st := range []applications.Status{applications.StatusRejected, applications.StatusCompleted, applications.StatusPending} {
		f.setStatus(t, app.ID, st)
		if got := f.animalStatus(t, "x"); got != pets.StatusPending {
			t.Fatalf("animal status changed to %s after %s", got, st)
		}
	}
}

func TestUpdateStatus_Errors(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	app := f.submit(t, ana, "x")
	ctx := context.Background()

	// No-admin: forbidden aunque el payload sea inválido.
	if _, err := f.svc.UpdateStatus(ctx, ana, app.ID, applications.UpdateStatusInput{Status: "bogus"}); !errors.Is(err, applications.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, admin, app.ID, applications.UpdateStatusInput{Status: "Withdrawn"}); !errors.Is(err, applications.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, admin, "missing", applications.UpdateStatusInput{Status: "Approved"}); !errors.Is(err, applications.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// failingStore envuelve el store real y hace fallar un paso dentro de la transacción.
type failingStore struct {
	applications.Store
	failReject bool
}

type failingTx struct {
	applications.Tx
	failReject bool
}

var errInjected = errors.New("injected failure")

func (s failingStore) WithinTx(ctx context.Context, fn func(tx applications.Tx) error) error {
	return s.Store.WithinTx(ctx, func(tx applications.Tx) error {
		return fn(failingTx{Tx: tx, failReject: s.failReject})
	})
}

func (t failingTx) RejectPendingSiblings(ctx context.Context, animalID, keepID string) (int, error) {
	if t.failReject {
		return 0, errInjected
	}
	return t.Tx.RejectPendingSiblings(ctx, animalID, keepID)
}

func TestUpdateStatus_FailedCascadeRollsBackApproval(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	a := f.submit(t, ana, "x")
	b := f.submit(t, bob, "x")
	ctx := context.Background()

	svc := applications.NewService(failingStore{Store: f.store.Applications(), failReject: true}, nil)
	if _, err := svc.UpdateStatus(ctx, admin, a.ID, applications.UpdateStatusInput{Status: "Approved"}); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected error, got %v", err)
	}

	if got := f.animalStatus(t, "x"); got != pets.StatusAvailable {
		t.Fatalf("animal must not stay Adopted after rollback, got %s", got)
	}
	for _, id := range []string{a.ID, b.ID} {
		v, _ := f.svc.Get(ctx, admin, id)
		if v.Status != applications.StatusPending {
			t.Fatalf("application %s must stay Pending, got %s", id, v.Status)
		}
	}
}

func TestUpdateStatus_ConcurrentApprovalsOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)

	ids := []string{
		f.submit(t, ana, "x").ID,
		f.submit(t, bob, "x").ID,
		f.submit(t, capabilities.Caller{UserID: "u3", Email: "c@example.com"}, "x").ID,
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(context.Background(), admin, id, applications.UpdateStatusInput{Status: "Approved"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, applications.ErrAlreadyAdopted):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	if wins != 1 || conflicts != 2 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestAddFollowUp(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	app := f.submit(t, ana, "x")
	ctx := context.Background()
	date := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)

	fu, err := f.svc.AddFollowUp(ctx, admin, app.ID, applications.FollowUpInput{FollowUpDate: &date, FollowUpType: "Home Visit"})
	if err != nil {
		t.Fatalf("add follow-up: %v", err)
	}
	if fu.Status != applications.FollowUpScheduled {
		t.Fatalf("default status should be Scheduled, got %s", fu.Status)
	}

	if _, err := f.svc.AddFollowUp(ctx, ana, app.ID, applications.FollowUpInput{FollowUpDate: &date, FollowUpType: "Phone Call"}); !errors.Is(err, applications.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.AddFollowUp(ctx, admin, app.ID, applications.FollowUpInput{FollowUpType: "Phone Call"}); !errors.Is(err, applications.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing date, got %v", err)
	}
	if _, err := f.svc.AddFollowUp(ctx, admin, "missing", applications.FollowUpInput{FollowUpDate: &date, FollowUpType: "Email Check-in"}); !errors.Is(err, applications.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	items, err := f.svc.ListFollowUps(ctx, ana, app.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("owner should list follow-ups: %v len=%d", err, len(items))
	}
	if _, err := f.svc.ListFollowUps(ctx, bob, app.ID); !errors.Is(err, applications.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other user, got %v", err)
	}
}

func TestListAndGet_ScopedToCallerEmail(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	f.addAnimal(t, "y", pets.StatusAvailable)
	ctx := context.Background()

	mine := f.submit(t, ana, "x")
	theirs := f.submit(t, bob, "y")

	all, err := f.svc.List(ctx, admin, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("admin should see all: %v len=%d", err, len(all))
	}

	own, err := f.svc.List(ctx, ana, "")
	if err != nil || len(own) != 1 || own[0].ID != mine.ID {
		t.Fatalf("ana should see only her application: %v %+v", err, own)
	}
	if own[0].AnimalName != "Animal x" || own[0].AdopterEmail != ana.Email {
		t.Fatalf("view not joined: %+v", own[0])
	}

	none, err := f.svc.List(ctx, capabilities.Caller{UserID: "u-new", Email: "new@example.com"}, "")
	if err != nil || len(none) != 0 {
		t.Fatalf("caller without adopter record sees nothing: %v len=%d", err, len(none))
	}

	if _, err := f.svc.Get(ctx, ana, theirs.ID); !errors.Is(err, applications.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.List(ctx, admin, "Bogus"); !errors.Is(err, applications.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status filter, got %v", err)
	}
}

type directory map[string]string

func (d directory) EmailOf(ctx context.Context, userID string) (string, error) {
	if e, ok := d[userID]; ok {
		return e, nil
	}
	return "", applications.ErrNoAccount
}

func TestList_PrefersAccountEmailOverToken(t *testing.T) {
	f := newFixture(t)
	f.addAnimal(t, "x", pets.StatusAvailable)
	app := f.submit(t, ana, "x")

	svc := applications.NewService(f.store.Applications(), directory{"user-mallory": "ana@example.com"})

	// El token dice otro email, pero la cuenta apunta a ana.
	mallory := capabilities.Caller{UserID: "user-mallory", Email: "mallory@example.com"}
	items, err := svc.List(context.Background(), mallory, "")
	if err != nil || len(items) != 1 || items[0].ID != app.ID {
		t.Fatalf("account email should win: %v %+v", err, items)
	}
}
