package service

import (
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
)

type effect int

const (
	effectHoldDeposit effect = iota + 1
	effectReleaseDeposit
	effectSettle
)

type transitionKey struct {
	from  domain.ReservationStatus
	event domain.LifecycleEvent
}

// transition describes one legal move. resource is the status the vehicle moves to;
// Available means "give the vehicle back", which the resource ledger may refine.
type transition struct {
	to       domain.ReservationStatus
	resource domain.ResourceStatus
	effects  []effect
	notify   events.Name
}

var transitions = map[transitionKey]transition{
	{domain.ReservationStatusPending, domain.EventConfirm}: {
		to:       domain.ReservationStatusConfirmed,
		resource: domain.ResourceStatusReserved,
		effects:  []effect{effectHoldDeposit},
		notify:   events.ReservationConfirmed,
	},
	{domain.ReservationStatusPending, domain.EventCancel}: {
		to:     domain.ReservationStatusCanceled,
		notify: events.ReservationCanceled,
	},
	{domain.ReservationStatusConfirmed, domain.EventCheckIn}: {
		to:       domain.ReservationStatusActive,
		resource: domain.ResourceStatusRented,
		notify:   events.ReservationCheckedIn,
	},
	{domain.ReservationStatusConfirmed, domain.EventCancel}: {
		to:       domain.ReservationStatusCanceled,
		resource: domain.ResourceStatusAvailable,
		effects:  []effect{effectReleaseDeposit},
		notify:   events.ReservationCanceled,
	},
	{domain.ReservationStatusActive, domain.EventComplete}: {
		to:       domain.ReservationStatusCompleted,
		resource: domain.ResourceStatusAvailable,
		effects:  []effect{effectSettle},
		notify:   events.ReservationCompleted,
	},
}

func lookupTransition(from domain.ReservationStatus, event domain.LifecycleEvent) (transition, bool) {
	t, ok := transitions[transitionKey{from: from, event: event}]
	return t, ok
}
