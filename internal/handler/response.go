package handler

// Response helpers: every endpoint sends JSON through writeJSON, and
// every failure goes through writeError so domain errors map to HTTP
// statuses in exactly one place.
//
// The error body always has the same shape:
//   {"error": "not_found", "message": "..."}
// plus current_power/required_power when a spend was refused, so the
// client can render "you have X, you need Y" without parsing prose.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yuta/grassuma/internal/apperror"
)

// ErrorResponse is the standard error format returned by all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`

	// Set only for insufficient-power refusals.
	CurrentPower  *int `json:"current_power,omitempty"`
	RequiredPower *int `json:"required_power,omitempty"`
}

// writeJSON sends a JSON response. Headers and status must go out before
// the body; once Encode writes, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a service error into an HTTP response.
//
// The mapping lives here, not in the services: the service layer returns
// apperror sentinels and knows nothing about status codes. errors.Is
// walks the wrap chain, so services are free to add fmt.Errorf context.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrInsufficientPower):
			status = http.StatusBadRequest
			errorType = "insufficient_power"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		}

		resp := ErrorResponse{Error: errorType, Message: appErr.Message}
		if errors.Is(err, apperror.ErrInsufficientPower) {
			current, required := appErr.Current, appErr.Required
			resp.CurrentPower = &current
			resp.RequiredPower = &required
		}
		writeJSON(w, status, resp)
		return
	}

	// Unknown error: generic 500, details stay in the logs. The raw
	// message may carry SQL or file paths the client must not see.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
	})
}
