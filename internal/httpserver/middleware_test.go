package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsMiddlewareCountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/v1/market/price/{symbol}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := metrics.HTTPRequests.WithLabelValues("GET", "/v1/market/price/{symbol}", "200")
	before := testutil.ToFloat64(counter)

	for _, symbol := range []string{"EURUSD", "GBPUSD"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/market/price/"+symbol, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Both requests land on the same pattern label, not two raw paths.
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestMetricsMiddlewareRecordsStatusCode(t *testing.T) {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware)
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	counter := metrics.HTTPRequests.WithLabelValues("GET", "/boom", "500")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestWithUserID(t *testing.T) {
	var got string
	h := withUserID(func(_ http.ResponseWriter, _ *http.Request, userID string) {
		got = userID
	})

	// No user id on the context: rejected before the handler runs.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, got)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, "u1"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "u1", got)
}
