package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors. Every typed error below matches exactly one of these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrOverlap           = errors.New("reservation overlaps an existing booking")
	ErrInvalidTransition = errors.New("invalid reservation transition")
	ErrNotFound          = errors.New("not found")
	ErrSettlement        = errors.New("settlement failed")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// OverlapError lists the reservations that already hold the requested range.
type OverlapError struct {
	ResourceID  uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Conflicting []uuid.UUID
}

func (e *OverlapError) Error() string {
	ids := make([]string, 0, len(e.Conflicting))
	for _, id := range e.Conflicting {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("resource %s is already booked between %s and %s (conflicts: %s)",
		e.ResourceID, e.StartDate.Format(time.DateOnly), e.EndDate.Format(time.DateOnly), strings.Join(ids, ", "))
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }

type InvalidTransitionError struct {
	ReservationID uuid.UUID
	From          ReservationStatus
	Event         LifecycleEvent
	Reason        string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s reservation %s in status %s", e.Event, e.ReservationID, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity string, id fmt.Stringer) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// SettlementError wraps a failure of the payment provider.
type SettlementError struct {
	Operation string
	Err       error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement %s: %v", e.Operation, e.Err)
}

func (e *SettlementError) Is(target error) bool { return target == ErrSettlement }

func (e *SettlementError) Unwrap() error { return e.Err }
