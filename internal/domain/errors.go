package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation targets a slug that does not exist.
	ErrNotFound = errors.New("content not found")
	// ErrDuplicateSlug is returned when creating an item whose slug is already taken.
	ErrDuplicateSlug = errors.New("slug already exists")
	// ErrValidation marks malformed input. Use errors.Is to detect it.
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError for field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with the offending slug.
func NotFound(kind Kind, slug string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, slug)
}

// DuplicateSlug wraps ErrDuplicateSlug with the offending slug.
func DuplicateSlug(kind Kind, slug string) error {
	return fmt.Errorf("%w: %s %q", ErrDuplicateSlug, kind, slug)
}
