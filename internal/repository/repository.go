package repository

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
)

type ResourceRepository interface {
	Create(ctx context.Context, resource *domain.Resource) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error)
	// GetForUpdate reads the resource and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Resource, error)
	Update(ctx context.Context, resource *domain.Resource) error
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *domain.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, reservation *domain.Reservation) error

	// FindOverlapping returns the blocking reservations of resourceID that intersect
	// [start, end), optionally ignoring excludeID.
	FindOverlapping(ctx context.Context, resourceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID, statuses []domain.ReservationStatus) ([]domain.Reservation, error)
	ListPendingStartingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error)
	ListActiveEndingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error)
}

type DepositRepository interface {
	Create(ctx context.Context, deposit *domain.Deposit) error
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error)
	Update(ctx context.Context, deposit *domain.Deposit) error
}

type FineRepository interface {
	Create(ctx context.Context, fine *domain.Fine) error
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Fine, error)
}

type InvoiceRepository interface {
	// Upsert stores the invoice keyed by reservation. Existing payment fields are kept.
	Upsert(ctx context.Context, invoice *domain.Invoice) error
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error)
	MarkPaid(ctx context.Context, invoice *domain.Invoice) error
}

type RateRuleRepository interface {
	Create(ctx context.Context, rule *domain.RateRule) error
	ListActive(ctx context.Context) ([]domain.RateRule, error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories interface {
	Resources() ResourceRepository
	Reservations() ReservationRepository
	Deposits() DepositRepository
	Fines() FineRepository
	Invoices() InvoiceRepository
	RateRules() RateRuleRepository
}

// Transactor runs fn inside a single transaction. fn's repositories see each other's
// writes; a returned error rolls everything back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is a full storage backend: non-transactional reads plus transactions.
type Store interface {
	Repositories
	Transactor
}
