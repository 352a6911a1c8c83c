package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"

	"github.com/setplanner/backend/internal/logging"
	"github.com/setplanner/backend/internal/models"
)

// writeJSON serializes data as JSON and writes it to the response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response for simple client errors.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}

// writeErrorWithCause writes an error response, logs the underlying error
// with a stack trace, and reports server-side failures to Sentry.
func writeErrorWithCause(w http.ResponseWriter, status int, message string, err error) {
	writeError(w, status, message)

	if err == nil {
		return
	}

	wrapped := logging.WrapError(err, message)
	slog.Error("error response", slog.Int("status", status), slog.Any("error", wrapped))
	if status >= http.StatusInternalServerError {
		sentry.CaptureException(wrapped)
	}
}
