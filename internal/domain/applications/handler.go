package applications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/domain/pets"
	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/applications", func(ar chi.Router) {
		ar.Get("/", listApplicationsHandler(svc, log))
		ar.Post("/", submitApplicationHandler(svc, log))

		ar.Get("/{appID}", getApplicationHandler(svc, log))
		// Solo admin
		ar.Put("/{appID}", updateStatusHandler(svc, log))

		ar.Get("/{appID}/follow-ups", listFollowUpsHandler(svc, log))
		ar.Post("/{appID}/follow-ups", addFollowUpHandler(svc, log))
	})
}

type submitRequest struct {
	AnimalID  string `json:"animal_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

type updateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

type followUpRequest struct {
	FollowUpDate string `json:"follow_up_date"` // YYYY-MM-DD
	FollowUpType string `json:"follow_up_type"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
}

type applicationResponse struct {
	ID        string    `json:"id"`
	AdopterID string    `json:"adopter_id"`
	AnimalID  string    `json:"animal_id"`
	AppDate   string    `json:"app_date"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type applicationViewResponse struct {
	applicationResponse

	Adopter struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone,omitempty"`
	} `json:"adopter"`

	Animal struct {
		Name         string            `json:"name"`
		Status       pets.Status       `json:"status"`
		Gender       pets.Gender       `json:"gender"`
		HealthStatus pets.HealthStatus `json:"health_status"`
		DateOfBirth  *time.Time        `json:"date_of_birth,omitempty"`
		BreedName    string            `json:"breed_name"`
		SpeciesName  string            `json:"species_name"`
		ShelterName  string            `json:"shelter_name"`
		ShelterCity  string            `json:"shelter_city"`
		ShelterPhone string            `json:"shelter_phone,omitempty"`
	} `json:"animal"`
}

type statusChangeResponse struct {
	ApplicationID    string `json:"application_id"`
	AnimalID         string `json:"animal_id"`
	PreviousStatus   Status `json:"previous_status"`
	Status           Status `json:"status"`
	AnimalAdopted    bool   `json:"animal_adopted"`
	RejectedSiblings int    `json:"rejected_siblings"`
}

type followUpResponse struct {
	ID            string         `json:"id"`
	ApplicationID string         `json:"application_id"`
	FollowUpDate  string         `json:"follow_up_date"`
	FollowUpType  string         `json:"follow_up_type"`
	Status        FollowUpStatus `json:"status"`
	Notes         string         `json:"notes"`
	CreatedAt     time.Time      `json:"created_at"`
}

// listApplicationsHandler godoc
// @Summary Listar solicitudes de adopción
// @Description Admin ve todas las solicitudes. El resto solo las del adoptante asociado a su email de cuenta.
// @Tags applications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param status query string false "Pending, Approved, Rejected o Completed"
// @Success 200 {array} applicationViewResponse
// @Failure 400 {string} string "unknown status"
// @Failure 401 {string} string "unauthorized"
// @Router /applications [get]
func listApplicationsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.List(r.Context(), caller, r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]applicationViewResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toViewResponse(v))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// submitApplicationHandler godoc
// @Summary Enviar solicitud de adopción
// @Description Crea una solicitud Pending. Reutiliza el adoptante por email. Rechaza animales adoptados, duplicados Pending y re-solicitudes tras un rechazo.
// @Tags applications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body submitRequest true "Datos del adoptante y animal"
// @Success 201 {object} applicationResponse
// @Failure 400 {string} string "invalid json / campos requeridos"
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "animal not found"
// @Failure 409 {string} string "animal already adopted / duplicate pending / rejected before"
// @Router /applications [post]
func submitApplicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		app, err := svc.Submit(r.Context(), caller, SubmitInput{
			AnimalID:  req.AnimalID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Notes:     req.Notes,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			ApplicationID string `json:"application_id"`
			applicationResponse
		}{app.ID, toApplicationResponse(app)})
	}
}

// getApplicationHandler godoc
// @Summary Ver una solicitud
// @Tags applications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param appID path string true "ID de la solicitud"
// @Success 200 {object} applicationViewResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "application not found"
// @Router /applications/{appID} [get]
func getApplicationHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		v, err := svc.Get(r.Context(), caller, chi.URLParam(r, "appID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toViewResponse(v))
	}
}

// updateStatusHandler godoc
// @Summary Cambiar estado de una solicitud
// @Description Solo admin. Aprobar marca el animal como Adopted y rechaza las demás solicitudes Pending del mismo animal en la misma transacción.
// @Tags applications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param appID path string true "ID de la solicitud"
// @Param payload body updateStatusRequest true "Nuevo estado y notas opcionales"
// @Success 200 {object} statusChangeResponse
// @Failure 400 {string} string "invalid json / invalid status"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "application not found"
// @Failure 409 {string} string "animal already adopted"
// @Router /applications/{appID} [put]
func updateStatusHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		// Autorización antes de mirar el payload.
		if !caller.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		change, err := svc.UpdateStatus(r.Context(), caller, chi.URLParam(r, "appID"), UpdateStatusInput{
			Status: req.Status,
			Notes:  req.Notes,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, statusChangeResponse{
			ApplicationID:    change.ApplicationID,
			AnimalID:         change.AnimalID,
			PreviousStatus:   change.Previous,
			Status:           change.Current,
			AnimalAdopted:    change.AnimalAdopted,
			RejectedSiblings: change.RejectedSiblings,
		})
	}
}

// addFollowUpHandler godoc
// @Summary Registrar seguimiento post-adopción
// @Tags applications
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param appID path string true "ID de la solicitud"
// @Param payload body followUpRequest true "follow_up_date en formato YYYY-MM-DD"
// @Success 201 {object} followUpResponse
// @Failure 400 {string} string "invalid json / follow_up_date inválida"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "application not found"
// @Router /applications/{appID}/follow-ups [post]
func addFollowUpHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !caller.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req followUpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if s := strings.TrimSpace(req.FollowUpDate); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				http.Error(w, "follow_up_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = &t
		}

		f, err := svc.AddFollowUp(r.Context(), caller, chi.URLParam(r, "appID"), FollowUpInput{
			FollowUpDate: date,
			FollowUpType: req.FollowUpType,
			Status:       req.Status,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			FollowUpID string `json:"follow_up_id"`
			followUpResponse
		}{f.ID, toFollowUpResponse(f)})
	}
}

// listFollowUpsHandler godoc
// @Summary Listar seguimientos de una solicitud
// @Tags applications
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param appID path string true "ID de la solicitud"
// @Success 200 {array} followUpResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "application not found"
// @Router /applications/{appID}/follow-ups [get]
func listFollowUpsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListFollowUps(r.Context(), caller, chi.URLParam(r, "appID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]followUpResponse, 0, len(items))
		for _, f := range items {
			out = append(out, toFollowUpResponse(f))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAnimalMissing):
		http.Error(w, err.Error(), http.StatusNotFound)
	case IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error("applications request failed", map[string]any{"err": err, "path": r.URL.Path, "method": r.Method})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

const dateLayout = "2006-01-02"

func toApplicationResponse(a Application) applicationResponse {
	return applicationResponse{
		ID:        a.ID,
		AdopterID: a.AdopterID,
		AnimalID:  a.AnimalID,
		AppDate:   a.AppDate.Format(dateLayout),
		Status:    a.Status,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toViewResponse(v ApplicationView) applicationViewResponse {
	out := applicationViewResponse{applicationResponse: toApplicationResponse(v.Application)}

	out.Adopter.FirstName = v.AdopterFirstName
	out.Adopter.LastName = v.AdopterLastName
	out.Adopter.Email = v.AdopterEmail
	out.Adopter.Phone = v.AdopterPhone

	out.Animal.Name = v.AnimalName
	out.Animal.Status = v.AnimalStatus
	out.Animal.Gender = v.AnimalGender
	out.Animal.HealthStatus = v.AnimalHealthStatus
	out.Animal.DateOfBirth = v.AnimalDateOfBirth
	out.Animal.BreedName = v.BreedName
	out.Animal.SpeciesName = v.SpeciesName
	out.Animal.ShelterName = v.ShelterName
	out.Animal.ShelterCity = v.ShelterCity
	out.Animal.ShelterPhone = v.ShelterPhone
	return out
}

func toFollowUpResponse(f FollowUp) followUpResponse {
	return followUpResponse{
		ID:            f.ID,
		ApplicationID: f.ApplicationID,
		FollowUpDate:  f.FollowUpDate.Format(dateLayout),
		FollowUpType:  f.FollowUpType,
		Status:        f.Status,
		Notes:         f.Notes,
		CreatedAt:     f.CreatedAt,
	}
}

// writeJSON está duplicado en cada módulo (pets/applications/medical/...).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
