// Package events carries lifecycle notifications out of the booking core. Publishing
// never fails from the caller's point of view; observers are registered by the
// application at startup.
package events

import (
	"context"
	"time"
)

type Name string

const (
	ReservationCreated   Name = "reservation.created"
	ReservationConfirmed Name = "reservation.confirmed"
	ReservationCheckedIn Name = "reservation.checked_in"
	ReservationCompleted Name = "reservation.completed"
	ReservationCanceled  Name = "reservation.canceled"
	ReservationOverdue   Name = "reservation.overdue"

	FineApplied Name = "fine.applied"

	DepositHeld              Name = "deposit.held"
	DepositReleased          Name = "deposit.released"
	DepositPartiallyReleased Name = "deposit.partially_released"
	DepositForfeited         Name = "deposit.forfeited"

	InvoiceIssued Name = "invoice.issued"
	InvoicePaid   Name = "invoice.paid"

	ResourceStatusChanged Name = "resource.status_changed"
)

type Event struct {
	Name       Name              `json:"name"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload"`
}

func New(name Name, at time.Time, kv ...string) Event {
	payload := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		payload[kv[i]] = kv[i+1]
	}
	return Event{Name: name, OccurredAt: at, Payload: payload}
}

// Sink receives committed lifecycle events.
type Sink interface {
	Publish(ctx context.Context, e Event)
}

// Handler is an observer callback. A returned error is logged and otherwise ignored.
type Handler func(ctx context.Context, e Event) error
