package apperror

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Services wrap these in an *AppError; the handler
// layer maps each kind to an HTTP status with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a sentinel kind plus the human-readable message that
// ends up in the JSON error body.
type AppError struct {
	Err     error  // sentinel kind (ErrNotFound, ErrValidation, ...)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource. It is also used when a resource
// exists but belongs to someone else — the two cases are deliberately
// indistinguishable so that existence is never leaked to non-owners.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a missing or malformed input field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a duplicate unique value or duplicate association.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Unauthorized reports a missing/invalid session or bad credentials.
// All of these map to 401; the messages differ, the status does not.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
