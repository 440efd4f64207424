package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evyataryagoni/udfkit/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsMiddleware tests that requests are counted by route pattern
func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.Get("/v1/geoip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":null,"found":false}`))
	})

	for _, target := range []string{"/v1/geoip?ip=1", "/v1/geoip?ip=2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/geoip", "200")); got != 2 {
		t.Errorf("expected 2 requests for /v1/geoip, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got != 1 {
		t.Errorf("expected 1 unmatched request, got %v", got)
	}
	if n := testutil.CollectAndCount(m.HTTPRequestDuration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
}

// TestMetricsMiddleware_NilMetrics tests that a nil collector is a no-op
func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	handler := MetricsMiddleware(nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}
