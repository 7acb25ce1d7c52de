package reference

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/admin", func(ar chi.Router) {
		ar.Get("/species", listSpeciesHandler(svc, log))
		ar.Post("/species", createSpeciesHandler(svc, log))

		ar.Get("/breeds", listBreedsHandler(svc, log))
		ar.Post("/breeds", createBreedHandler(svc, log))

		ar.Get("/shelters", listSheltersHandler(svc, log))
		ar.Post("/shelters", createShelterHandler(svc, log))
	})
}

type speciesResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type breedResponse struct {
	ID          string `json:"id"`
	SpeciesID   string `json:"species_id"`
	SpeciesName string `json:"species_name"`
	Name        string `json:"name"`
}

type shelterResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Capacity int    `json:"capacity"`
	Phone    string `json:"phone,omitempty"`
}

func listSpeciesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetCaller(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListSpecies(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]speciesResponse, 0, len(items))
		for _, s := range items {
			out = append(out, speciesResponse{ID: s.ID, Name: s.Name})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listBreedsHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetCaller(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListBreeds(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]breedResponse, 0, len(items))
		for _, b := range items {
			out = append(out, toBreedResponse(b))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func listSheltersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetCaller(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.ListShelters(r.Context())
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		out := make([]shelterResponse, 0, len(items))
		for _, s := range items {
			out = append(out, toShelterResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createSpeciesHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		sp, err := svc.CreateSpecies(r.Context(), caller, req.Name)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, speciesResponse{ID: sp.ID, Name: sp.Name})
	}
}

func createBreedHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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
		var req struct {
			SpeciesID string `json:"species_id"`
			Name      string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		b, err := svc.CreateBreed(r.Context(), caller, req.SpeciesID, req.Name)
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBreedResponse(b))
	}
}

func createShelterHandler(svc *Service, log logger.Logger) http.HandlerFunc {
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
		var req struct {
			Name     string `json:"name"`
			City     string `json:"city"`
			Capacity int    `json:"capacity"`
			Phone    string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		sh, err := svc.CreateShelter(r.Context(), caller, ShelterInput{
			Name:     req.Name,
			City:     req.City,
			Capacity: req.Capacity,
			Phone:    req.Phone,
		})
		if err != nil {
			writeError(w, r, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toShelterResponse(sh))
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
	case errors.Is(err, ErrDuplicate):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error("reference request failed", map[string]any{"err": err, "path": r.URL.Path})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toBreedResponse(b Breed) breedResponse {
	return breedResponse{ID: b.ID, SpeciesID: b.SpeciesID, SpeciesName: b.SpeciesName, Name: b.Name}
}

func toShelterResponse(s Shelter) shelterResponse {
	return shelterResponse{ID: s.ID, Name: s.Name, City: s.City, Capacity: s.Capacity, Phone: s.Phone}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
