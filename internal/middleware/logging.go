package middleware

import (
	"net/http"
	"time"

	"github.com/evyataryagoni/udfkit/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// LoggingMiddleware writes one access log line per request.
// Successful evaluations are logged at Debug since batch callers send many;
// client errors at Warn and server errors at Error.
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("HTTP")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// handler wrote nothing
				status = http.StatusOK
			}

			event := log.Debug()
			switch {
			case status >= 500:
				event = log.Error()
			case status >= 400:
				event = log.Warn()
			}

			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Str("remote_addr", r.RemoteAddr).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}
