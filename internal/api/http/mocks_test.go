package http

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockBookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateReservation(ctx context.Context, customerID, resourceID uuid.UUID, start, end time.Time, notes string) (*domain.Reservation, error) {
	args := m.Called(ctx, customerID, resourceID, start, end, notes)
	return reservationOrNil(args.Get(0)), args.Error(1)
}
func (m *MockBookingService) Confirm(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	return reservationOrNil(args.Get(0)), args.Error(1)
}
func (m *MockBookingService) CheckIn(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	return reservationOrNil(args.Get(0)), args.Error(1)
}
func (m *MockBookingService) Complete(ctx context.Context, id uuid.UUID, usageDelta int64, fines []domain.FineInput) (*domain.Reservation, *domain.Invoice, error) {
	args := m.Called(ctx, id, usageDelta, fines)
	var inv *domain.Invoice
	if v := args.Get(1); v != nil {
		inv = v.(*domain.Invoice)
	}
	return reservationOrNil(args.Get(0)), inv, args.Error(2)
}
func (m *MockBookingService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	return reservationOrNil(args.Get(0)), args.Error(1)
}
func (m *MockBookingService) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	return reservationOrNil(args.Get(0)), args.Error(1)
}
func (m *MockBookingService) GetDeposit(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}
func (m *MockBookingService) ReleaseDeposit(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal) (*domain.Deposit, error) {
	args := m.Called(ctx, reservationID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Deposit), args.Error(1)
}

func reservationOrNil(v any) *domain.Reservation {
	if v == nil {
		return nil
	}
	return v.(*domain.Reservation)
}

// MockQuoteService
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Quote(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (*domain.PriceBreakdown, error) {
	args := m.Called(ctx, resourceID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceBreakdown), args.Error(1)
}

// MockInvoiceService
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) PayInvoice(ctx context.Context, reservationID uuid.UUID, method string) (*domain.Invoice, error) {
	args := m.Called(ctx, reservationID, method)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

// MockResourceService
type MockResourceService struct {
	mock.Mock
}

func (m *MockResourceService) CreateResource(ctx context.Context, resource *domain.Resource) error {
	args := m.Called(ctx, resource)
	return args.Error(0)
}
func (m *MockResourceService) GetResource(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}
func (m *MockResourceService) SetOutOfService(ctx context.Context, id uuid.UUID, outOfService bool) (*domain.Resource, error) {
	args := m.Called(ctx, id, outOfService)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resource), args.Error(1)
}
func (m *MockResourceService) CreateRateRule(ctx context.Context, rule *domain.RateRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}
