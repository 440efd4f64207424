package router

import (
	"net/http"

	"github.com/evyataryagoni/udfkit/internal/handler"
	"github.com/evyataryagoni/udfkit/internal/limiter"
	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/evyataryagoni/udfkit/internal/metrics"
	custommiddleware "github.com/evyataryagoni/udfkit/internal/middleware"
	v1 "github.com/evyataryagoni/udfkit/internal/router/v1"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates the Chi router with all middleware and routes.
//
// Parameters:
//   - functionHandler: the function evaluation handler
//   - rateLimiter: the rate limiter (memory or Redis)
//   - m: metrics collector, may be nil
//   - metricsHandler: serves /metrics; nil means the default Prometheus registry
//   - log: structured logger
func SetupRouter(functionHandler *handler.FunctionHandler, rateLimiter limiter.Limiter, m *metrics.Metrics, metricsHandler http.Handler, log *logger.Logger) chi.Router {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	r := chi.NewRouter()

	// Order matters: request IDs and the real client address must exist
	// before logging and rate limiting read them
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.LoggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(custommiddleware.RateLimitMiddleware(rateLimiter))
	r.Use(custommiddleware.MetricsMiddleware(m))

	r.Mount("/v1", v1.SetupRoutes(functionHandler))

	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", metricsHandler)

	return r
}

// healthCheckHandler reports that the process is serving
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
