package v1

import (
	"github.com/evyataryagoni/udfkit/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures the /v1 function endpoints
func SetupRoutes(functionHandler *handler.FunctionHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/ip-to-long?ip=<dotted quad>
	r.Get("/ip-to-long", functionHandler.IPToLong)
	// GET /v1/long-to-ip?ip=<integer>
	r.Get("/long-to-ip", functionHandler.LongToIP)
	// GET /v1/search-keyword?referrer=<url>
	r.Get("/search-keyword", functionHandler.SearchKeyword)
	// GET /v1/geoip?ip=<integer>&attribute=<name>&database=<path>
	r.Get("/geoip", functionHandler.GeoIP)
	// GET /v1/ucwords?text=<text>
	r.Get("/ucwords", functionHandler.UCWords)

	return r
}
