package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidTransition indicates a lifecycle change the document state does not allow
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTransient indicates lock contention, serialization failure or lost connection.
	// Operations failing with it may be retried.
	ErrTransient = errors.New("transient storage failure")

	// ErrIntegrity indicates an attempt to break snapshot append-only history
	// or to write document child rows outside the owning transaction.
	// It is a programming error and is never retried.
	ErrIntegrity = errors.New("integrity violation")
)

// ValidationError reports a malformed or missing payload section.
type ValidationError struct {
	Section string
	Reason  string
}

// NewValidationError creates a ValidationError for the given section.
func NewValidationError(section, reason string) *ValidationError {
	return &ValidationError{Section: section, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid section %q: %s", e.Section, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
