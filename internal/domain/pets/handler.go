package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/pets", func(pr chi.Router) {
		// Catálogo público (auth opcional: admins ven adoptados)
		pr.Get("/", listPetsHandler(svc, log))
		pr.Get("/{petID}", getPetHandler(svc, log))

		// Admin CRUD
		pr.Post("/", createPetHandler(svc, log))
		pr.Put("/{petID}", updatePetHandler(svc, log))
		pr.Delete("/{petID}", deletePetHandler(svc, log))
	})
}

type createPetRequest struct {
	Name         string `json:"name"`
	Gender       string `json:"gender"`
	HealthStatus string `json:"health_status"`
	DateOfBirth  string `json:"date_of_birth"` // YYYY-MM-DD opcional
	ImageData    string `json:"image_data"`

	BreedID     string `json:"breed_id"`
	BreedName   string `json:"breed_name"`
	SpeciesName string `json:"species_name"`

	ShelterID   string `json:"shelter_id"`
	ShelterName string `json:"shelter_name"`
	ShelterCity string `json:"shelter_city"`
}

type updatePetRequest struct {
	Name         *string `json:"name"`
	Gender       *string `json:"gender"`
	HealthStatus *string `json:"health_status"`
	Status       *string `json:"status"`
	DateOfBirth  *string `json:"date_of_birth"`
	ImageData    *string `json:"image_data"`
}

type petResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	BreedID      string       `json:"breed_id"`
	BreedName    string       `json:"breed_name"`
	SpeciesName  string       `json:"species_name"`
	ShelterID    string       `json:"shelter_id"`
	ShelterName  string       `json:"shelter_name"`
	ShelterCity  string       `json:"shelter_city"`
	ShelterPhone string       `json:"shelter_phone,omitempty"`
	Gender       Gender       `json:"gender"`
	HealthStatus HealthStatus `json:"health_status"`
	Status       Status       `json:"status"`
	DateOfBirth  *time.Time   `json:"date_of_birth,omitempty"`
	IntakeDate   time.Time    `json:"intake_date"`
	ImageData    string       `json:"image_data,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// listPetsHandler godoc
// @Summary Listar animales
// @Description Catálogo público. Sin filtro, los no-admin no ven animales adoptados.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param status query string false "Available, Pending o Adopted"
// @Success 200 {array} petResponse
// @Failure 400 {string} string "unknown status"
// @Router /pets [get]
func listPetsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, _ := middleware.GetCaller(r.Context())

		items, err := svc.List(r.Context(), caller, r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toPetResponse(a))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(a))
	}
}

// createPetHandler godoc
// @Summary Crear animal
// @Description Solo admin. Acepta breed_id/shelter_id o nombres; los nombres crean raza y refugio si no existen.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param payload body createPetRequest true "Datos del animal; date_of_birth en formato YYYY-MM-DD"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / reglas de negocio"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /pets [post]
func createPetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		dob, err := parseOptionalDate(req.DateOfBirth)
		if err != nil {
			http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), caller, CreateInput{
			Name:         req.Name,
			Gender:       req.Gender,
			HealthStatus: req.HealthStatus,
			DateOfBirth:  dob,
			ImageData:    req.ImageData,
			BreedID:      req.BreedID,
			BreedName:    req.BreedName,
			SpeciesName:  req.SpeciesName,
			ShelterID:    req.ShelterID,
			ShelterName:  req.ShelterName,
			ShelterCity:  req.ShelterCity,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(a))
	}
}

func updatePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var dob *time.Time
		if req.DateOfBirth != nil {
			parsed, err := parseOptionalDate(*req.DateOfBirth)
			if err != nil || parsed == nil {
				http.Error(w, "date_of_birth must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			dob = parsed
		}

		a, err := svc.Update(r.Context(), caller, chi.URLParam(r, "petID"), UpdateInput{
			Name:         req.Name,
			Gender:       req.Gender,
			HealthStatus: req.HealthStatus,
			Status:       req.Status,
			DateOfBirth:  dob,
			ImageData:    req.ImageData,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, toPetResponse(a))
	}
}

// deletePetHandler godoc
// @Summary Eliminar animal
// @Description Solo admin. Se rechaza con 409 si quedan solicitudes Pending; si no, borra solicitudes, seguimientos e historial médico.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param X-Debug-Role header string false "Solo en modo dev, rol (user/admin)"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID del animal"
// @Success 200 {object} map[string]any
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {object} map[string]any "pending_applications"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		if err := svc.Delete(r.Context(), caller, petID); err != nil {
			var pending *PendingApplicationsError
			if errors.As(err, &pending) {
				writeJSON(w, http.StatusConflict, map[string]any{
					"error":                pending.Error(),
					"pending_applications": pending.Count,
				})
				return
			}
			writeError(w, r, log, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": petID})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("pets request failed", map[string]any{"err": err, "path": r.URL.Path})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func toPetResponse(a Animal) petResponse {
	return petResponse{
		ID:           a.ID,
		Name:         a.Name,
		BreedID:      a.BreedID,
		BreedName:    a.BreedName,
		SpeciesName:  a.SpeciesName,
		ShelterID:    a.ShelterID,
		ShelterName:  a.ShelterName,
		ShelterCity:  a.ShelterCity,
		ShelterPhone: a.ShelterPhone,
		Gender:       a.Gender,
		HealthStatus: a.HealthStatus,
		Status:       a.Status,
		DateOfBirth:  a.DateOfBirth,
		IntakeDate:   a.IntakeDate,
		ImageData:    a.ImageData,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// writeJSON está duplicado en cada módulo (pets/applications/medical/...).
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
