package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
)

// BlockingStatuses are the reservation statuses that hold a resource's calendar.
var BlockingStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusActive,
}

// AllReservationStatuses lists every status in lifecycle order.
var AllReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusConfirmed,
	ReservationStatusActive,
	ReservationStatusCompleted,
	ReservationStatusCanceled,
}

func (s ReservationStatus) Blocking() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Reservation covers the half-open date range [StartDate, EndDate).
type Reservation struct {
	ID         uuid.UUID         `json:"id"`
	ResourceID uuid.UUID         `json:"resource_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	Status     ReservationStatus `json:"status"`
	Notes      string            `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Overlaps reports whether r intersects [start, end). Touching ranges do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return RangesOverlap(r.StartDate, r.EndDate, start, end)
}

func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateRange normalizes both bounds and checks end > start.
func ValidateRange(start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() {
		return start, end, NewValidationError("start_date", "is required")
	}
	if end.IsZero() {
		return start, end, NewValidationError("end_date", "is required")
	}
	start, end = NormalizeDate(start), NormalizeDate(end)
	if !end.After(start) {
		return start, end, NewValidationError("end_date", "must be after start_date")
	}
	return start, end, nil
}

const secondsPerDay = 24 * 60 * 60

// RentalDays is the number of whole days in [start, end), never less than one.
func RentalDays(start, end time.Time) int {
	// Unix seconds of two UTC midnights differ by exact multiples of a day, and unlike
	// time.Duration they do not saturate on long ranges.
	days := int((NormalizeDate(end).Unix() - NormalizeDate(start).Unix()) / secondsPerDay)
	if days < 1 {
		return 1
	}
	return days
}
