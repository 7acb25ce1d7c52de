package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/ports/capabilities"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("application not found")
	ErrAnimalMissing = errors.New("animal not found")
	ErrNoAdopter     = errors.New("adopter not found")
	// ErrNoAccount lo devuelve UserDirectory cuando el usuario no existe.
	ErrNoAccount = errors.New("account not found")

	// Conflictos de estado (409).
	ErrAlreadyAdopted       = errors.New("animal already adopted")
	ErrDuplicatePending     = errors.New("duplicate pending application for this animal")
	ErrReapplicationBlocked = errors.New("a previous application for this animal was rejected")
)

// IsConflict agrupa los errores que el handler traduce a 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAdopted) ||
		errors.Is(err, ErrDuplicatePending) ||
		errors.Is(err, ErrReapplicationBlocked)
}

type Service struct {
	store   Store
	users   UserDirectory
	metrics Recorder
	now     func() time.Time
}

func NewService(store Store, users UserDirectory) *Service {
	return &Service{
		store:   store,
		users:   users,
		metrics: nopRecorder{},
		now:     time.Now,
	}
}

// WithRecorder engancha métricas del ciclo de vida.
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.metrics = r
	}
	return s
}

type SubmitInput struct {
	AnimalID  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Notes     string
}

// Submit crea una solicitud Pending. Todo corre en una transacción:
// lock del animal, alta/actualización del adoptante, chequeos de duplicado e insert.
func (s *Service) Submit(ctx context.Context, caller capabilities.Caller, in SubmitInput) (Application, error) {
	if !caller.Authenticated() {
		return Application{}, ErrUnauthorized
	}

	in.AnimalID = strings.TrimSpace(in.AnimalID)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Notes = strings.TrimSpace(in.Notes)

	if in.AnimalID == "" || in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return Application{}, fmt.Errorf("%w: animal_id, first_name, last_name and email are required", ErrInvalidInput)
	}

	now := s.now()
	var created Application

	err := s.store.WithinTx(ctx, func(tx Tx) error {
		status, err := tx.LockAnimal(ctx, in.AnimalID)
		if err != nil {
			return err
		}
		if status == pets.StatusAdopted {
			return ErrAlreadyAdopted
		}

		adopter, err := s.upsertAdopter(ctx, tx, in, now)
		if err != nil {
			return err
		}

		if err := checkEligibility(ctx, tx, adopter.ID, in.AnimalID); err != nil {
			return err
		}

		created = Application{
			ID:        uuid.NewString(),
			AdopterID: adopter.ID,
			AnimalID:  in.AnimalID,
			AppDate:   truncateDay(now),
			Status:    StatusPending,
			Notes:     in.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.CreateApplication(ctx, created)
	})
	if err != nil {
		return Application{}, err
	}

	s.metrics.ApplicationSubmitted()
	return created, nil
}

// upsertAdopter reutiliza el adoptante por email; si trae teléfono nuevo lo actualiza.
func (s *Service) upsertAdopter(ctx context.Context, tx Tx, in SubmitInput, now time.Time) (Adopter, error) {
	a, err := tx.FindAdopterByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, ErrNoAdopter):
		// Una solicitud concurrente con el mismo email puede ganar el insert.
		a, err = tx.CreateAdopter(ctx, Adopter{
			ID:        uuid.NewString(),
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Phone:     in.Phone,
			CreatedAt: now,
		})
		if err != nil {
			return Adopter{}, err
		}
	case err != nil:
		return Adopter{}, err
	}

	if in.Phone != "" && in.Phone != a.Phone {
		if err := tx.UpdateAdopterPhone(ctx, a.ID, in.Phone); err != nil {
			return Adopter{}, err
		}
		a.Phone = in.Phone
	}
	return a, nil
}

// checkEligibility: no puede haber otra Pending ni una Rejected previa para el par adoptante/animal.
func checkEligibility(ctx context.Context, tx Tx, adopterID, animalID string) error {
	pending, err := tx.CountApplications(ctx, adopterID, animalID, StatusPending)
	if err != nil {
		return err
	}
	if pending > 0 {
		return ErrDuplicatePending
	}

	rejected, err := tx.CountApplications(ctx, adopterID, animalID, StatusRejected)
	if err != nil {
		return err
	}
	if rejected > 0 {
		return ErrReapplicationBlocked
	}
	return nil
}

type UpdateStatusInput struct {
	Status string
	Notes  *string
}

// UpdateStatus cambia el estado de una solicitud (solo admin).
// Aprobar marca el animal como Adopted (compare-and-swap) y rechaza las Pending hermanas,
// todo en la misma transacción.
func (s *Service) UpdateStatus(ctx context.Context, caller capabilities.Caller, appID string, in UpdateStatusInput) (StatusChange, error) {
	if !caller.IsAdmin() {
		return StatusChange{}, ErrForbidden
	}

	target, ok := ParseStatus(in.Status)
	if !ok {
		return StatusChange{}, fmt.Errorf("%w: status must be one of Pending, Approved, Rejected, Completed", ErrInvalidInput)
	}
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return StatusChange{}, fmt.Errorf("%w: application id is required", ErrInvalidInput)
	}

	var change StatusChange
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		app, err := tx.LockApplication(ctx, appID)
		if err != nil {
			return err
		}

		change = StatusChange{
			ApplicationID: app.ID,
			AnimalID:      app.AnimalID,
			Previous:      app.Status,
			Current:       target,
		}

		// Re-aprobar es idempotente: solo se actualizan notas.
		cascade := target == StatusApproved && app.Status != StatusApproved
		if cascade {
			adopted, err := tx.MarkAnimalAdopted(ctx, app.AnimalID)
			if err != nil {
				return err
			}
			if !adopted {
				// El animal ya estaba Adopted: conflicto solo si lo adoptó otra solicitud.
				others, err := tx.CountAdoptions(ctx, app.AnimalID, app.ID)
				if err != nil {
					return err
				}
				if others > 0 {
					return ErrAlreadyAdopted
				}
			}
			change.AnimalAdopted = adopted
		}

		app.Status = target
		if in.Notes != nil {
			app.Notes = strings.TrimSpace(*in.Notes)
		}
		app.UpdatedAt = s.now()
		if err := tx.UpdateApplication(ctx, app); err != nil {
			return err
		}

		if cascade {
			n, err := tx.RejectPendingSiblings(ctx, app.AnimalID, app.ID)
			if err != nil {
				return err
			}
			change.RejectedSiblings = n
		}
		return nil
	})
	if err != nil {
		return StatusChange{}, err
	}

	s.metrics.ApplicationStatusChanged(string(target), change.RejectedSiblings)
	return change, nil
}

type FollowUpInput struct {
	FollowUpDate *time.Time
	FollowUpType string
	Status       string
	Notes        string
}

func (s *Service) AddFollowUp(ctx context.Context, caller capabilities.Caller, appID string, in FollowUpInput) (FollowUp, error) {
	if !caller.IsAdmin() {
		return FollowUp{}, ErrForbidden
	}

	typ := strings.TrimSpace(in.FollowUpType)
	if in.FollowUpDate == nil || in.FollowUpDate.IsZero() || typ == "" {
		return FollowUp{}, fmt.Errorf("%w: follow_up_date and follow_up_type are required", ErrInvalidInput)
	}
	status := FollowUpScheduled
	if strings.TrimSpace(in.Status) != "" {
		var ok bool
		if status, ok = ParseFollowUpStatus(in.Status); !ok {
			return FollowUp{}, fmt.Errorf("%w: unknown follow-up status %q", ErrInvalidInput, in.Status)
		}
	}

	f := FollowUp{
		ID:            uuid.NewString(),
		ApplicationID: strings.TrimSpace(appID),
		FollowUpDate:  *in.FollowUpDate,
		FollowUpType:  typ,
		Status:        status,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     s.now(),
	}

	err := s.store.WithinTx(ctx, func(tx Tx) error {
		if _, err := tx.LockApplication(ctx, f.ApplicationID); err != nil {
			return err
		}
		return tx.CreateFollowUp(ctx, f)
	})
	if err != nil {
		return FollowUp{}, err
	}
	return f, nil
}

// List: admin ve todo; el resto solo las solicitudes del adoptante con su email de cuenta.
func (s *Service) List(ctx context.Context, caller capabilities.Caller, status string) ([]ApplicationView, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthorized
	}

	var f ListFilter
	if strings.TrimSpace(status) != "" {
		st, ok := ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
		f.Status = &st
	}

	if !caller.IsAdmin() {
		email, err := s.callerEmail(ctx, caller)
		if err != nil {
			return nil, err
		}
		if email == "" {
			return []ApplicationView{}, nil
		}
		adopter, err := s.store.FindAdopterByEmail(ctx, email)
		if errors.Is(err, ErrNoAdopter) {
			return []ApplicationView{}, nil
		}
		if err != nil {
			return nil, err
		}
		f.AdopterID = adopter.ID
	}

	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, caller capabilities.Caller, appID string) (ApplicationView, error) {
	if !caller.Authenticated() {
		return ApplicationView{}, ErrUnauthorized
	}

	v, err := s.store.GetByID(ctx, strings.TrimSpace(appID))
	if err != nil {
		return ApplicationView{}, err
	}
	if err := s.authorizeOwner(ctx, caller, v); err != nil {
		return ApplicationView{}, err
	}
	return v, nil
}

func (s *Service) ListFollowUps(ctx context.Context, caller capabilities.Caller, appID string) ([]FollowUp, error) {
	if _, err := s.Get(ctx, caller, appID); err != nil {
		return nil, err
	}
	return s.store.ListFollowUps(ctx, strings.TrimSpace(appID))
}

func (s *Service) authorizeOwner(ctx context.Context, caller capabilities.Caller, v ApplicationView) error {
	if caller.IsAdmin() {
		return nil
	}
	email, err := s.callerEmail(ctx, caller)
	if err != nil {
		return err
	}
	if email == "" || email != normalizeEmail(v.AdopterEmail) {
		return ErrForbidden
	}
	return nil
}

// callerEmail prioriza el email de la cuenta; si no hay cuenta usa el del token.
func (s *Service) callerEmail(ctx context.Context, caller capabilities.Caller) (string, error) {
	if s.users != nil {
		email, err := s.users.EmailOf(ctx, caller.UserID)
		if err == nil && strings.TrimSpace(email) != "" {
			return normalizeEmail(email), nil
		}
		if err != nil && !errors.Is(err, ErrNoAccount) {
			return "", err
		}
	}
	return normalizeEmail(caller.Email), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
