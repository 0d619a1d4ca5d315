package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrWrite         = errors.New("write failed")
	ErrSchedule      = errors.New("invalid follow-up schedule")
	ErrSubscription  = errors.New("subscription failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// AuthorizationError is returned when the acting principal may not perform
// Op on the record. It is raised before any write; a record missing from the
// mirror is read once to learn its owner.
type AuthorizationError struct {
	Op          string
	ID          string
	PrincipalID uuid.UUID
	Reason      string
}

func (e *AuthorizationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: principal %s: %s", e.Op, e.PrincipalID, e.Reason)
	}
	return fmt.Sprintf("%s %s: principal %s: %s", e.Op, e.ID, e.PrincipalID, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// WriteError reports a store write that was rejected or did not complete.
// The write never partially applied.
type WriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap exposes both ErrWrite and the underlying cause to errors.Is.
func (e *WriteError) Unwrap() []error { return []error{ErrWrite, e.Err} }

// ScheduleError reports a malformed follow-up offset configuration or date.
// It is a configuration defect and is never defaulted away.
type ScheduleError struct {
	Input  string
	Reason string
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("follow-up schedule %q: %s", e.Input, e.Reason)
}

func (e *ScheduleError) Unwrap() error { return ErrSchedule }

// SubscriptionError is recorded by a mirror when the store's push channel
// fails for Target. The mirror keeps its last good records.
type SubscriptionError struct {
	Target string
	Err    error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s: %v", e.Target, e.Err)
}

func (e *SubscriptionError) Unwrap() []error { return []error{ErrSubscription, e.Err} }
