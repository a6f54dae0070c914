package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/devsentry/devsentry/pkg/analysis"
	"github.com/devsentry/devsentry/pkg/journal"
)

// ErrorResponse represents a standard JSON error response.
//
// Example:
//
//	{
//	  "error": "Not Found",
//	  "message": "record not found: 3f0c..."
//	}
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError writes a JSON error response whose status is derived from
// the error:
//   - journal.NotFoundError → 404
//   - http.MaxBytesError → 413
//   - context.DeadlineExceeded → 504
//   - empty, unreadable or unknown-tier input → 400
//   - anything else → 500
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)

	logEvent := log.Error()
	if statusCode < http.StatusInternalServerError {
		logEvent = log.Warn()
	}
	logEvent.
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Str("code", analysis.ErrorCode(err)).
		Err(err).
		Msg("Request failed")

	WriteJSONError(w, statusCode, http.StatusText(statusCode), err.Error())
}

func statusFor(err error) int {
	var notFound *journal.NotFoundError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return analysis.HTTPStatus(err)
	}
}

// WriteJSONError writes a custom JSON error response with a specific status code.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Bad Request", "limit: must be between 1 and 100")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

// WriteJSON writes a JSON response to the client.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}
