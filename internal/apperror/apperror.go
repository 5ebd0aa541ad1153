// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer translates them to
// status codes with errors.Is/errors.As. Keeping the mapping out of the
// service layer means the same errors could back a CLI or gRPC surface
// without change.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientPower = errors.New("insufficient grass power")
	ErrUpstream          = errors.New("upstream error")
)

type AppError struct {
	Err     error  // sentinel, for errors.Is classification
	Message string // human-readable message
	Field   string // optional: field causing a validation error

	// Populated for ErrInsufficientPower so the client can render an
	// actionable message ("you have X, you need Y").
	Current  int
	Required int
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized returns an AppError for a missing or invalid session.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// InsufficientPower reports that an operation would overdraw the user's
// grass power balance. It is a normal negative outcome, not a system
// failure, but it still travels as an error so the spend rolls back.
func InsufficientPower(current, required int) *AppError {
	return &AppError{
		Err:      ErrInsufficientPower,
		Message:  fmt.Sprintf("insufficient grass power: have %d, need %d", current, required),
		Current:  current,
		Required: required,
	}
}

// Upstream wraps a failure talking to GitHub (token exchange, profile
// fetch, contribution calendar). Safe to retry; guaranteed to have caused
// no state change.
func Upstream(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
		Message: fmt.Sprintf("%s: upstream request failed", op),
	}
}
