// Package common defines shared constants, helpers and sentinel errors used
// across the grammarcheck server layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")

	// Password change errors.
	ErrPasswordMismatch = errors.New("password confirmation does not match")

	// Auth gate errors.
	ErrMissingAuthHeader = errors.New("missing or malformed authorization header")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")

	// Text endpoints.
	ErrEmptyText = errors.New("no text provided")
	ErrUpstream  = errors.New("upstream model error")
)

// InputError is invalid input with a reason safe to show to the client.
// It matches ErrorInvalidInput under errors.Is.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

func (e *InputError) Is(target error) bool { return target == ErrorInvalidInput }

// InvalidInput returns an InputError carrying reason.
func InvalidInput(reason string) error {
	return &InputError{Reason: reason}
}
