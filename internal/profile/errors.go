package profile

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownImportance indicates an importance code outside the weight table.
	ErrUnknownImportance = errors.New("unknown importance code")

	// ErrDuplicateQuestion indicates that a profile answered the same question twice.
	ErrDuplicateQuestion = errors.New("duplicate question")
)

// ValidationError describes why a record could not be constructed.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity names the record that failed validation, e.g. "answer" or "profile 7".
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string

	// Err is the sentinel classifying the failure, if any.
	Err error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap returns the classifying sentinel so errors.Is works on it.
func (e *ValidationError) Unwrap() error { return e.Err }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string, err error, msgs ...string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: msgs,
		Err:    err,
	}
}
