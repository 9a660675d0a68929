package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"salaryreport/internal/core"
	applog "salaryreport/internal/log"
)

// Error kinds reported in the "kind" field of error bodies.
const (
	KindValidation = "validation"
	KindInvalidID  = "invalid_id"
	KindNotFound   = "not_found"
	KindStorage    = "storage"
	KindRateLimit  = "rate_limit"
	KindInternal   = "internal"
)

// ErrorBody is the JSON shape of every failed API response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSONResponse is a small builder for JSON replies.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	payload    any
}

func NewJSONResponse(payload any) *JSONResponse {
	return &JSONResponse{statusCode: http.StatusOK, headers: map[string]string{}, payload: payload}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// ErrorResponse builds an error reply with an explicit status and kind.
func ErrorResponse(statusCode int, kind, message string) *JSONResponse {
	return NewJSONResponse(ErrorBody{Error: message, Kind: kind}).Status(statusCode)
}

// classify maps an error onto its HTTP status, kind and client message.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity, KindValidation, err.Error()
	case errors.Is(err, core.ErrInvalidID):
		return http.StatusBadRequest, KindInvalidID, "Invalid report ID format"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, KindNotFound, "Report not found"
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, KindStorage, err.Error()
	default:
		return http.StatusInternalServerError, KindInternal, "internal server error"
	}
}

// writeError replies with the classified error; server side failures are logged.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind, msg := classify(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldOperation, op,
			applog.FieldErrorKind, kind,
			applog.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldErrorKind, kind,
			applog.FieldError, err)
	}
	ErrorResponse(status, kind, msg).Write(w)
}
