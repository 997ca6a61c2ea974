package handler

// Response helpers shared by every endpoint. All errors leave the API in
// one shape:
//
//	{"error": "not_found", "message": "machine not found"}
//
// and the mapping from the domain taxonomy to HTTP status codes lives in
// exactly one place, so no endpoint can drift.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CodeByDouglas/rocks-monitoramento-backend/internal/apperror"
)

// ErrorResponse is the standard error body for all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable tag, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body; once Encode writes,
// header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already gone; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and standard body.
//
// The codes match what the agent fleet already expects: duplicate
// registration and ownership conflicts are 400 (not 409), credentials and
// token failures are 401, unknown-or-not-owned machines are 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrAlreadyExists):
			status = http.StatusBadRequest
			errorType = "already_exists"
		case errors.Is(err, apperror.ErrOwnership):
			status = http.StatusBadRequest
			errorType = "ownership_conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error: never expose internals (SQL, file paths) to clients.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
