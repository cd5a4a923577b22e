package service

import (
	"context"
	"errors"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/payment"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

// FineLabelPrefix starts the label of every fine line item, e.g. "Fine: Damage".
const FineLabelPrefix = "Fine: "

type InvoiceAssembler struct {
	now Clock
}

func NewInvoiceAssembler(clock Clock) *InvoiceAssembler {
	if clock == nil {
		clock = SystemClock
	}
	return &InvoiceAssembler{now: clock}
}

// Build appends one item per fine to the price breakdown and upserts the invoice of the
// reservation. Running it again with the same inputs leaves the stored invoice unchanged.
func (a *InvoiceAssembler) Build(ctx context.Context, repos repository.Repositories, reservation *domain.Reservation, breakdown domain.PriceBreakdown, fines []domain.Fine) (*domain.Invoice, error) {
	items := make([]domain.LineItem, 0, len(breakdown.Items)+len(fines))
	items = append(items, breakdown.Items...)
	for _, f := range fines {
		items = append(items, domain.LineItem{
			Label:  FineLabelPrefix + f.Category.Label(),
			Amount: domain.RoundMoney(f.Amount),
			Metadata: map[string]string{
				"category": string(f.Category),
				"fine_id":  f.ID.String(),
			},
		})
	}

	now := a.now()
	inv := &domain.Invoice{
		ReservationID: reservation.ID,
		LineItems:     items,
		Total:         domain.SumLineItems(items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Invoices().Upsert(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

type invoiceService struct {
	store    repository.Store
	provider payment.Provider
	sink     events.Sink
	now      Clock
}

func NewInvoiceService(store repository.Store, provider payment.Provider, sink events.Sink, clock Clock) InvoiceService {
	if clock == nil {
		clock = SystemClock
	}
	return &invoiceService{store: store, provider: provider, sink: sink, now: clock}
}

func (s *invoiceService) GetInvoice(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	return s.store.Invoices().GetByReservation(ctx, reservationID)
}

// PayInvoice settles the invoice total once. The reservation row is locked for the
// duration so two payments cannot race to the provider.
func (s *invoiceService) PayInvoice(ctx context.Context, reservationID uuid.UUID, method string) (*domain.Invoice, error) {
	logger.EnterMethod("invoiceService.PayInvoice", "reservationID", reservationID, "method", method)
	if method == "" {
		return nil, domain.NewValidationError("method", "is required")
	}

	var paid *domain.Invoice
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		reservation, err := repos.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.Status != domain.ReservationStatusCompleted {
			return domain.NewValidationError("reservation", "is not completed")
		}
		inv, err := repos.Invoices().GetByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if inv.Paid() {
			return domain.NewValidationError("invoice", "is already paid")
		}

		ref, err := s.provider.Pay(ctx, inv.Total, method)
		if err != nil {
			return &domain.SettlementError{Operation: "pay", Err: err}
		}
		now := s.now()
		inv.PaidAt = &now
		inv.PaymentMethod = method
		inv.PaymentRef = ref
		inv.UpdatedAt = now
		if err := repos.Invoices().MarkPaid(ctx, inv); err != nil {
			return err
		}
		paid = inv
		return nil
	})
	if err != nil {
		exitWithError("invoiceService.PayInvoice", err, "reservationID", reservationID)
		return nil, err
	}

	s.sink.Publish(ctx, events.New(events.InvoicePaid, *paid.PaidAt,
		"reservation_id", reservationID.String(),
		"invoice_id", paid.ID.String(),
		"total", domain.FormatMoney(paid.Total),
		"method", method,
	))
	logger.ExitMethod("invoiceService.PayInvoice", "invoiceID", paid.ID)
	return paid, nil
}

// exitWithError logs domain rejections at warn level and everything else as errors.
func exitWithError(method string, err error, args ...any) {
	if isRejection(err) {
		logger.ExitMethodRejected(method, err, args...)
		return
	}
	logger.ExitMethodWithError(method, err, args...)
}

func isRejection(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrOverlap) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrNotFound)
}
