package reports

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-adoption/internal/middleware"
	"pet-adoption/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Route("/reports", func(rr chi.Router) {
		rr.Get("/", listReportsHandler())
		rr.Get("/{report}", getReportHandler(svc, log))
	})
}

type reportResponse struct {
	Success bool            `json:"success"`
	Report  string          `json:"report"`
	Data    json.RawMessage `json:"data"`
}

func listReportsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetCaller(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		out := make([]map[string]string, 0, len(Names()))
		for _, n := range Names() {
			out = append(out, map[string]string{"name": string(n), "title": n.Title()})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getReportHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := middleware.GetCaller(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		res, err := svc.Get(r.Context(), caller, chi.URLParam(r, "report"))
		if err != nil {
			writeError(w, r, log, err)
			return
		}

		if res.Cached {
			w.Header().Set("X-Cache", "HIT")
		} else {
			w.Header().Set("X-Cache", "MISS")
		}
		writeJSON(w, http.StatusOK, reportResponse{Success: true, Report: res.Title, Data: res.Data})
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("report generation failed", map[string]any{"err": err, "path": r.URL.Path})
		http.Error(w, "failed to generate report", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
