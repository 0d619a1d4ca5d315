package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestValidationError_SingleField(t *testing.T) {
	t.Parallel()

	err := NewValidationError("client", "required")

	if got := err.Error(); got != "validation: client: required" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
}

func TestValidationError_MultipleFields(t *testing.T) {
	t.Parallel()

	err := NewValidationErrors([]FieldError{
		{Field: "client", Message: "required"},
		{Field: "amount", Message: "must be non-negative"},
	})

	if got := err.Error(); got != "validation: 2 errors" {
		t.Fatalf("unexpected Error(): %q", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatal("errors.Is(err, ErrValidation) = false")
	}
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(err.Errors))
	}
}

func TestAuthorizationError_IsForbidden(t *testing.T) {
	t.Parallel()

	principal := uuid.MustParse("7f1c2a9e-5b1d-4c7a-9a34-0c2f1e8d6b10")
	err := &AuthorizationError{Op: "update quote", ID: "q1", PrincipalID: principal, Reason: "not the owner"}

	if !errors.Is(err, ErrForbidden) {
		t.Fatal("errors.Is(err, ErrForbidden) = false")
	}
	if got := err.Error(); got != "update quote q1: principal 7f1c2a9e-5b1d-4c7a-9a34-0c2f1e8d6b10: not the owner" {
		t.Fatalf("unexpected Error(): %q", got)
	}
}

func TestWriteError_UnwrapsBoth(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &WriteError{Op: "delete sale", ID: "s1", Err: cause}

	if !errors.Is(err, ErrWrite) {
		t.Error("errors.Is(err, ErrWrite) = false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false")
	}
	if got := err.Error(); got != "delete sale s1: connection reset" {
		t.Errorf("unexpected Error(): %q", got)
	}
}

func TestSubscriptionError_UnwrapsBoth(t *testing.T) {
	t.Parallel()

	err := &SubscriptionError{Target: "quotes", Err: ErrForbidden}

	if !errors.Is(err, ErrSubscription) {
		t.Error("errors.Is(err, ErrSubscription) = false")
	}
	if !errors.Is(err, ErrForbidden) {
		t.Error("errors.Is(err, ErrForbidden) = false")
	}
}

func TestScheduleError_Unwrap(t *testing.T) {
	t.Parallel()

	var err error = &ScheduleError{Input: "5,x", Reason: "offset must be an integer"}

	if !errors.Is(err, ErrSchedule) {
		t.Fatal("errors.Is(err, ErrSchedule) = false")
	}
	var se *ScheduleError
	if !errors.As(err, &se) || se.Input != "5,x" {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	t.Parallel()

	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrValidation,
		ErrUnauthorized, ErrForbidden, ErrConflict,
		ErrWrite, ErrSchedule, ErrSubscription,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel errors %d and %d should not match", i, j)
			}
		}
	}
}
