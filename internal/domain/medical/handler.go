package medical

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
	r.Route("/pets/{petID}/medical-records", func(pr chi.Router) {
		pr.Get("/", listRecordsHandler(svc, log))
	})

	// Mutaciones: solo admin
	r.Route("/medical", func(mr chi.Router) {
		mr.Post("/", addRecordHandler(svc, log))
		mr.Put("/{recordID}", updateRecordHandler(svc, log))
		mr.Delete("/{recordID}", deleteRecordHandler(svc, log))
	})
}

type addRecordRequest struct {
	AnimalID     string `json:"animal_id"`
	RecordDate   string `json:"record_date"` // YYYY-MM-DD
	RecordType   string `json:"record_type"`
	Description  string `json:"description"`
	Veterinarian string `json:"veterinarian"`
	Notes        string `json:"notes"`
}

type updateRecordRequest struct {
	RecordDate   *string `json:"record_date"`
	RecordType   *string `json:"record_type"`
	Description  *string `json:"description"`
	Veterinarian *string `json:"veterinarian"`
	Notes        *string `json:"notes"`
}

type recordResponse struct {
	ID           string `json:"id"`
	AnimalID     string `json:"animal_id"`
	AnimalName   string `json:"animal_name,omitempty"`
	RecordDate   string `json:"record_date"`
	RecordType   string `json:"record_type"`
	Description  string `json:"description"`
	Veterinarian string `json:"veterinarian"`
	Notes        string `json:"notes"`
}

func listRecordsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetCaller(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func addRecordHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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

		var req addRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if s := strings.TrimSpace(req.RecordDate); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				http.Error(w, "record_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = &t
		}

		rec, err := svc.Add(r.Context(), caller, AddInput{
			AnimalID:     req.AnimalID,
			RecordDate:   date,
			RecordType:   req.RecordType,
			Description:  req.Description,
			Veterinarian: req.Veterinarian,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

func updateRecordHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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

		var req updateRecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if req.RecordDate != nil {
			t, err := time.Parse("2006-01-02", strings.TrimSpace(*req.RecordDate))
			if err != nil {
				http.Error(w, "record_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = &t
		}

		rec, err := svc.Update(r.Context(), caller, chi.URLParam(r, "recordID"), UpdateInput{
			RecordDate:   date,
			RecordType:   req.RecordType,
			Description:  req.Description,
			Veterinarian: req.Veterinarian,
			Notes:        req.Notes,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func deleteRecordHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id := chi.URLParam(r, "recordID")
		if err := svc.Delete(r.Context(), caller, id); err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "id": id})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoAnimal):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("medical request failed", map[string]any{"err": err, "path": r.URL.Path})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toRecordResponse(rec Record) recordResponse {
	return recordResponse{
		ID:           rec.ID,
		AnimalID:     rec.AnimalID,
		AnimalName:   rec.AnimalName,
		RecordDate:   rec.RecordDate.Format("2006-01-02"),
		RecordType:   rec.RecordType,
		Description:  rec.Description,
		Veterinarian: rec.Veterinarian,
		Notes:        rec.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
