// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrValidation indicates input that fails a field constraint. The
	// wrapped message names the violated constraint; the caller recovers by
	// correcting the input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is used by callers (CLI, bridge) when an absence result
	// must become a user-facing error. Repositories never return it; they
	// return nil for "no such row".
	ErrNotFound = errors.New("not found")

	// ErrInternal indicates data corruption or schema drift: an identifier
	// column that is not a UUID, or an enum column holding an unrecognized
	// label. Always a bug, never a user error.
	ErrInternal = errors.New("internal error")

	// ErrInvalidConfig indicates a configuration value that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError wraps ErrValidation with a constraint description.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// InternalError wraps ErrInternal with a description of the corrupt value.
func InternalError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
