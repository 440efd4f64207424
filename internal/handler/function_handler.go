package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/evyataryagoni/udfkit/internal/geoip"
	"github.com/evyataryagoni/udfkit/internal/models"
	"github.com/evyataryagoni/udfkit/internal/service"
)

// FunctionHandler exposes the functions over HTTP.
// It deals with HTTP concerns only: query parameters, status codes and JSON.
//
// Absent values are not errors: they are answered with 200 and "found": false.
// Status codes are reserved for bad arguments (400), a missing database (404)
// and databases that cannot be opened (500).
type FunctionHandler struct {
	service *service.FunctionService
}

// NewFunctionHandler creates a new handler with the given service
func NewFunctionHandler(service *service.FunctionService) *FunctionHandler {
	return &FunctionHandler{
		service: service,
	}
}

// IPToLong handles GET /v1/ip-to-long?ip=<dotted quad>
func (h *FunctionHandler) IPToLong(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		h.respondError(w, http.StatusBadRequest, "Missing 'ip' query parameter")
		return
	}

	n, err := h.service.IPToLong(ip)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.FunctionResponse{Value: n, Found: true})
}

// LongToIP handles GET /v1/long-to-ip?ip=<integer>
func (h *FunctionHandler) LongToIP(w http.ResponseWriter, r *http.Request) {
	n, ok := h.intParam(w, r, "ip")
	if !ok {
		return
	}

	text, err := h.service.LongToIP(n)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, models.FunctionResponse{Value: text, Found: true})
}

// SearchKeyword handles GET /v1/search-keyword?referrer=<url>
func (h *FunctionHandler) SearchKeyword(w http.ResponseWriter, r *http.Request) {
	kw, found := h.service.SearchKeyword(r.URL.Query().Get("referrer"))
	if !found {
		h.respondJSON(w, http.StatusOK, models.FunctionResponse{Found: false})
		return
	}

	h.respondJSON(w, http.StatusOK, models.FunctionResponse{Value: kw, Found: true})
}

// GeoIP handles GET /v1/geoip?ip=<integer>&attribute=<name>&database=<file name>
// The database is named relative to the server's GeoIP directory and is
// optional when the server has a default.
func (h *FunctionHandler) GeoIP(w http.ResponseWriter, r *http.Request) {
	n, ok := h.intParam(w, r, "ip")
	if !ok {
		return
	}
	query := r.URL.Query()

	res, err := h.service.GeoIP(n, query.Get("attribute"), query.Get("database"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	resp := models.FunctionResponse{Found: res.OK(), Status: res.Status.String()}
	if res.OK() {
		resp.Value = res.Value
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// UCWords handles GET /v1/ucwords?text=<text>
func (h *FunctionHandler) UCWords(w http.ResponseWriter, r *http.Request) {
	text := h.service.UCWords(r.URL.Query().Get("text"))
	h.respondJSON(w, http.StatusOK, models.FunctionResponse{Value: text, Found: true})
}

// intParam reads a required integer query parameter, answering 400 itself on failure
func (h *FunctionHandler) intParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		h.respondError(w, http.StatusBadRequest, "Missing '"+name+"' query parameter")
		return 0, false
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Query parameter '"+name+"' must be an integer")
		return 0, false
	}
	return n, true
}

// respondServiceError maps service errors to status codes
func (h *FunctionHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, geoip.ErrDatabaseNotFound):
		h.respondError(w, http.StatusNotFound, "GeoIP database not found")
	default:
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// respondJSON writes a JSON response with the given status code
func (h *FunctionHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func (h *FunctionHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
