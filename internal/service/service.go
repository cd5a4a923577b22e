package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// BookingService drives reservations through their lifecycle.
type BookingService interface {
	CreateReservation(ctx context.Context, customerID, resourceID uuid.UUID, start, end time.Time, notes string) (*domain.Reservation, error)
	Confirm(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	CheckIn(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	Complete(ctx context.Context, id uuid.UUID, usageDelta int64, fines []domain.FineInput) (*domain.Reservation, *domain.Invoice, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)

	GetDeposit(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error)
	// ReleaseDeposit gives amount of a held deposit back before the rental ends.
	ReleaseDeposit(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal) (*domain.Deposit, error)
}

type QuoteService interface {
	Quote(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (*domain.PriceBreakdown, error)
}

type InvoiceService interface {
	GetInvoice(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error)
	PayInvoice(ctx context.Context, reservationID uuid.UUID, method string) (*domain.Invoice, error)
}

type ResourceService interface {
	CreateResource(ctx context.Context, resource *domain.Resource) error
	GetResource(ctx context.Context, id uuid.UUID) (*domain.Resource, error)
	SetOutOfService(ctx context.Context, id uuid.UUID, outOfService bool) (*domain.Resource, error)
	CreateRateRule(ctx context.Context, rule *domain.RateRule) error
}
