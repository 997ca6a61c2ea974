// Package apperror defines the application's error taxonomy.
//
// Services return these instead of HTTP status codes; the handler layer
// owns the mapping to HTTP. Every error here is a local, recoverable
// condition — none of them should ever crash the process.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check with errors.Is — AppError implements Unwrap, so
// the sentinels survive any amount of fmt.Errorf("%w") wrapping on the way
// up the call stack.
var (
	// ErrNotFound covers unknown machines, machines owned by someone else
	// (deliberately indistinguishable — no existence leakage), and missing
	// configuration documents.
	ErrNotFound = errors.New("not found")

	// ErrValidation covers malformed or incomplete payloads, e.g. a metrics
	// document with no derivable MAC address.
	ErrValidation = errors.New("validation error")

	// ErrAlreadyExists covers duplicate registration of an identity
	// (an email that already has an account).
	ErrAlreadyExists = errors.New("already exists")

	// ErrOwnership means a MAC address is claimed by another user. Unlike
	// ErrNotFound this IS surfaced distinctly, but only on the write path
	// (login / explicit registration), never on reads.
	ErrOwnership = errors.New("ownership conflict")

	// ErrUnauthorized covers bad credentials and invalid, expired or
	// missing session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError pairs a sentinel with a human-readable message.
type AppError struct {
	Err     error  // sentinel, for errors.Is checks
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a resource does not exist (or is not visible to the
// caller, which must look identical).
func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Field:   key,
	}
}

// ValidationFailed reports a malformed or incomplete request payload.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AlreadyExists reports a duplicate identity registration.
func AlreadyExists(resource, key string) *AppError {
	return &AppError{
		Err:     ErrAlreadyExists,
		Message: fmt.Sprintf("%s already registered", resource),
		Field:   key,
	}
}

// OwnershipConflict reports that a machine belongs to another user.
// The message never includes anything about the current owner.
func OwnershipConflict(mac string) *AppError {
	return &AppError{
		Err:     ErrOwnership,
		Message: "machine belongs to another user",
		Field:   mac,
	}
}

// Unauthorized reports failed authentication.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
