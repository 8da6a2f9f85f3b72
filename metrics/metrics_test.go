package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/surveys/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/surveys/"+id, nil))
		require.Equal(t, http.StatusTeapot, w.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/surveys/{id}", "418")))
}

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordSubmission(2, 1, 3)
	m.RecordSubmission(1, 0, 0)
	m.RecordReport(true)
	m.RecordReport(false)
	m.RecordLogoFailure("x", errors.New("boom"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Submissions.WithLabelValues("by_id")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("by_text")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnresolvedAnswers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsRendered.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogoFailures))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "launchalot_unresolved_answers_total 3")
}
