package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEntry is returned when a unique column would collide
	ErrDuplicateEntry = errors.New("duplicate entry")

	ErrInvalidID  = errors.New("invalid ID")
	ErrValidation = errors.New("validation error")
)

// RepositoryError carries the failing operation and record alongside the cause
type RepositoryError struct {
	Op     string
	Entity string
	ID     string
	Err    error
}

func (e *RepositoryError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Entity, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(op, entity, id string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Entity: entity, ID: id, Err: err}
}

// NotFoundError reports a missing record
func NotFoundError(entity, id string) *RepositoryError {
	return NewRepositoryError("get", entity, id, ErrNotFound)
}

// DuplicateError reports a unique constraint hit on field
func DuplicateError(entity, field, value string) *RepositoryError {
	return NewRepositoryError("create", entity, value, fmt.Errorf("%w on %s", ErrDuplicateEntry, field))
}

// ValidationError wraps a model validation failure
func ValidationError(entity, id string, err error) *RepositoryError {
	return NewRepositoryError("validate", entity, id, fmt.Errorf("%w: %v", ErrValidation, err))
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicate checks if an error is a "duplicate entry" error
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsValidation checks if an error is a "validation" error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
