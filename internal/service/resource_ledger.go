package service

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"
)

// resourceLedger decides the vehicle status that follows a reservation transition.
type resourceLedger struct{}

// move returns the next status of resource when reservation asks for target, or an
// InvalidTransitionError when the vehicle cannot follow.
func (resourceLedger) move(ctx context.Context, repos repository.Repositories, reservation *domain.Reservation, resource *domain.Resource, target domain.ResourceStatus, event domain.LifecycleEvent) (domain.ResourceStatus, error) {
	current := resource.Status
	refuse := func(reason string) error {
		return &domain.InvalidTransitionError{ReservationID: reservation.ID, From: reservation.Status, Event: event, Reason: reason}
	}

	switch target {
	case "":
		return current, nil

	case domain.ResourceStatusReserved:
		switch current {
		case domain.ResourceStatusOutOfService:
			return current, refuse("resource is out of service")
		case domain.ResourceStatusRented:
			// Still on the road for an earlier booking; check-in will pick it up later.
			return current, nil
		}
		return domain.ResourceStatusReserved, nil

	case domain.ResourceStatusRented:
		switch current {
		case domain.ResourceStatusOutOfService:
			return current, refuse("resource is out of service")
		case domain.ResourceStatusRented:
			return current, refuse("resource is rented by another reservation")
		}
		return domain.ResourceStatusRented, nil

	case domain.ResourceStatusAvailable:
		if current == domain.ResourceStatusOutOfService {
			return current, nil
		}
		return settledStatus(ctx, repos, reservation, resource)
	}
	return current, refuse("unknown resource status " + string(target))
}

// settledStatus is the status a vehicle falls back to once reservation lets go of it.
func settledStatus(ctx context.Context, repos repository.Repositories, reservation *domain.Reservation, resource *domain.Resource) (domain.ResourceStatus, error) {
	others, err := repos.Reservations().ListByResource(ctx, resource.ID, []domain.ReservationStatus{
		domain.ReservationStatusConfirmed,
		domain.ReservationStatusActive,
	})
	if err != nil {
		return "", err
	}
	next := domain.ResourceStatusAvailable
	for _, other := range others {
		if reservation != nil && other.ID == reservation.ID {
			continue
		}
		if other.Status == domain.ReservationStatusActive {
			return domain.ResourceStatusRented, nil
		}
		next = domain.ResourceStatusReserved
	}
	return next, nil
}
