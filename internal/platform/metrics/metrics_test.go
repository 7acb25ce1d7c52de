package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentLabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/pets/{petID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/pets/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/pets/{petID}", "418"))
	assert.Equal(t, float64(2), got)
}

func TestLifecycleCounters(t *testing.T) {
	m := New()

	m.ApplicationSubmitted()
	m.ApplicationStatusChanged("Approved", 2)
	m.ApplicationStatusChanged("Rejected", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.submissions))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.statusChanges.WithLabelValues("Approved")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cascades))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pet_adoption_applications_submitted_total 1")
}
