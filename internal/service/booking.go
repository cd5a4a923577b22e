package service

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/pricing"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDepositRate is the share of the quoted total held when a booking is confirmed.
var DefaultDepositRate = decimal.RequireFromString("0.30")

type BookingConfig struct {
	// DepositRate falls back to DefaultDepositRate only when it is not set; a valid
	// zero holds nothing.
	DepositRate decimal.NullDecimal
	Pricer      pricing.Pricer
	Clock       Clock
}

type bookingService struct {
	store       repository.Store
	deposits    *DepositLedger
	invoices    *InvoiceAssembler
	resources   resourceLedger
	sink        events.Sink
	now         Clock
	depositRate decimal.Decimal
	pricer      pricing.Pricer
	tracer      trace.Tracer
}

func NewBookingService(
	store repository.Store,
	deposits *DepositLedger,
	invoices *InvoiceAssembler,
	sink events.Sink,
	cfg BookingConfig,
) BookingService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if !cfg.DepositRate.Valid {
		cfg.DepositRate = decimal.NewNullDecimal(DefaultDepositRate)
	}
	if cfg.Pricer.IsZero() {
		cfg.Pricer = pricing.Default()
	}
	return &bookingService{
		store:       store,
		deposits:    deposits,
		invoices:    invoices,
		sink:        sink,
		now:         cfg.Clock,
		depositRate: cfg.DepositRate.Decimal,
		pricer:      cfg.Pricer,
		tracer:      otel.Tracer("fleetrent/booking"),
	}
}

func (s *bookingService) CreateReservation(ctx context.Context, customerID, resourceID uuid.UUID, start, end time.Time, notes string) (*domain.Reservation, error) {
	logger.EnterMethod("bookingService.CreateReservation", "resourceID", resourceID, "customerID", customerID)
	ctx, span := s.tracer.Start(ctx, "booking.create", trace.WithAttributes(
		attribute.String("resource_id", resourceID.String()),
	))
	defer span.End()

	res, err := s.createReservation(ctx, customerID, resourceID, start, end, notes)
	if err != nil {
		s.fail(span, "bookingService.CreateReservation", err, "resourceID", resourceID)
		return nil, err
	}

	s.publish(ctx, []events.Event{events.New(events.ReservationCreated, res.CreatedAt,
		"reservation_id", res.ID.String(),
		"resource_id", res.ResourceID.String(),
		"customer_id", res.CustomerID.String(),
		"start_date", res.StartDate.Format(time.DateOnly),
		"end_date", res.EndDate.Format(time.DateOnly),
	)})
	logger.ExitMethod("bookingService.CreateReservation", "reservationID", res.ID)
	return res, nil
}

func (s *bookingService) createReservation(ctx context.Context, customerID, resourceID uuid.UUID, start, end time.Time, notes string) (*domain.Reservation, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer_id", "is required")
	}
	if resourceID == uuid.Nil {
		return nil, domain.NewValidationError("resource_id", "is required")
	}
	start, end, err := domain.ValidateRange(start, end)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if start.Before(domain.NormalizeDate(now)) {
		return nil, domain.NewValidationError("start_date", "must not be in the past")
	}

	res := &domain.Reservation{
		ID:         uuid.New(),
		ResourceID: resourceID,
		CustomerID: customerID,
		StartDate:  start,
		EndDate:    end,
		Status:     domain.ReservationStatusPending,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err = s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// The row lock serializes every booking attempt for this vehicle.
		if _, err := repos.Resources().GetForUpdate(ctx, resourceID); err != nil {
			return err
		}
		conflicts, err := repos.Reservations().FindOverlapping(ctx, resourceID, start, end, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			ids := make([]uuid.UUID, 0, len(conflicts))
			for _, c := range conflicts {
				ids = append(ids, c.ID)
			}
			return &domain.OverlapError{ResourceID: resourceID, StartDate: start, EndDate: end, Conflicting: ids}
		}
		return repos.Reservations().Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *bookingService) Confirm(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	run, err := s.transition(ctx, id, domain.EventConfirm, nil)
	if err != nil {
		return nil, err
	}
	return run.reservation, nil
}

func (s *bookingService) CheckIn(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	run, err := s.transition(ctx, id, domain.EventCheckIn, nil)
	if err != nil {
		return nil, err
	}
	return run.reservation, nil
}

func (s *bookingService) Cancel(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	run, err := s.transition(ctx, id, domain.EventCancel, nil)
	if err != nil {
		return nil, err
	}
	return run.reservation, nil
}

func (s *bookingService) Complete(ctx context.Context, id uuid.UUID, usageDelta int64, fines []domain.FineInput) (*domain.Reservation, *domain.Invoice, error) {
	if usageDelta < 0 {
		return nil, nil, domain.NewValidationError("usage_delta", "must not be negative")
	}
	for _, f := range fines {
		if err := f.Validate(); err != nil {
			return nil, nil, err
		}
	}
	run, err := s.transition(ctx, id, domain.EventComplete, &completion{usageDelta: usageDelta, fines: fines})
	if err != nil {
		return nil, nil, err
	}
	return run.reservation, run.invoice, nil
}

func (s *bookingService) GetReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return s.store.Reservations().GetByID(ctx, id)
}

func (s *bookingService) GetDeposit(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error) {
	return s.store.Deposits().GetByReservation(ctx, reservationID)
}

func (s *bookingService) ReleaseDeposit(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal) (*domain.Deposit, error) {
	logger.EnterMethod("bookingService.ReleaseDeposit", "reservationID", reservationID, "amount", amount.String())
	ctx, span := s.tracer.Start(ctx, "booking.release_deposit", trace.WithAttributes(
		attribute.String("reservation_id", reservationID.String()),
	))
	defer span.End()

	var released *domain.Deposit
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		reservation, err := repos.Reservations().GetForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.Status != domain.ReservationStatusConfirmed && reservation.Status != domain.ReservationStatusActive {
			return domain.NewValidationError("reservation", "deposit can only be released while the booking is confirmed or active")
		}
		d, err := repos.Deposits().GetByReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		released, err = s.deposits.ReleasePartial(ctx, repos, d, amount)
		return err
	})
	if err != nil {
		s.fail(span, "bookingService.ReleaseDeposit", err, "reservationID", reservationID)
		return nil, err
	}

	s.publish(ctx, []events.Event{depositNotice(released, released.UpdatedAt)})
	logger.ExitMethod("bookingService.ReleaseDeposit", "status", released.Status)
	return released, nil
}

type completion struct {
	usageDelta int64
	fines      []domain.FineInput
}

// transitionRun is the state of one lifecycle transition inside its transaction.
type transitionRun struct {
	repos       repository.Repositories
	reservation *domain.Reservation
	resource    *domain.Resource
	now         time.Time
	invoice     *domain.Invoice
	events      []events.Event
}

// transition applies event to the reservation in one transaction and publishes the
// collected events after it commits.
func (s *bookingService) transition(ctx context.Context, id uuid.UUID, event domain.LifecycleEvent, done *completion) (*transitionRun, error) {
	method := "bookingService." + string(event)
	logger.EnterMethod(method, "reservationID", id)
	ctx, span := s.tracer.Start(ctx, "booking."+string(event), trace.WithAttributes(
		attribute.String("reservation_id", id.String()),
	))
	defer span.End()

	var run *transitionRun
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		reservation, err := repos.Reservations().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		rule, ok := lookupTransition(reservation.Status, event)
		if !ok {
			return &domain.InvalidTransitionError{ReservationID: id, From: reservation.Status, Event: event}
		}
		resource, err := repos.Resources().GetForUpdate(ctx, reservation.ResourceID)
		if err != nil {
			return err
		}

		run = &transitionRun{repos: repos, reservation: reservation, resource: resource, now: s.now()}
		return s.apply(ctx, run, rule, event, done)
	})
	if err != nil {
		s.fail(span, method, err, "reservationID", id)
		return nil, err
	}

	span.SetAttributes(attribute.String("status", string(run.reservation.Status)))
	s.publish(ctx, run.events)
	logger.ExitMethod(method, "reservationID", id, "status", run.reservation.Status)
	return run, nil
}

func (s *bookingService) apply(ctx context.Context, run *transitionRun, rule transition, event domain.LifecycleEvent, done *completion) error {
	reservation, resource := run.reservation, run.resource

	nextStatus, err := s.resources.move(ctx, run.repos, reservation, resource, rule.resource, event)
	if err != nil {
		return err
	}
	resourceChanged := nextStatus != resource.Status
	resource.Status = nextStatus

	var side []events.Event
	for _, eff := range rule.effects {
		var effectEvents []events.Event
		switch eff {
		case effectHoldDeposit:
			effectEvents, err = s.holdDeposit(ctx, run)
		case effectReleaseDeposit:
			effectEvents, err = s.releaseDeposit(ctx, run)
		case effectSettle:
			if done == nil {
				done = &completion{}
			}
			if done.usageDelta > 0 {
				resource.Mileage += done.usageDelta
				resourceChanged = true
			}
			effectEvents, err = s.settle(ctx, run, done.fines)
		}
		if err != nil {
			return err
		}
		side = append(side, effectEvents...)
	}

	if resourceChanged {
		resource.UpdatedAt = run.now
		if err := run.repos.Resources().Update(ctx, resource); err != nil {
			return err
		}
		side = append(side, events.New(events.ResourceStatusChanged, run.now,
			"resource_id", resource.ID.String(),
			"status", string(resource.Status),
			"mileage", decimal.NewFromInt(resource.Mileage).String(),
		))
	}

	reservation.Status = rule.to
	reservation.UpdatedAt = run.now
	if err := run.repos.Reservations().UpdateStatus(ctx, reservation); err != nil {
		return err
	}

	run.events = append([]events.Event{events.New(rule.notify, run.now,
		"reservation_id", reservation.ID.String(),
		"resource_id", reservation.ResourceID.String(),
		"status", string(reservation.Status),
	)}, side...)
	return nil
}

func (s *bookingService) holdDeposit(ctx context.Context, run *transitionRun) ([]events.Event, error) {
	breakdown, err := quoteFor(ctx, run.repos, s.pricer, run.resource, run.reservation.StartDate, run.reservation.EndDate, run.now)
	if err != nil {
		return nil, err
	}
	amount := domain.RoundMoney(breakdown.Total.Mul(s.depositRate))
	d, err := s.deposits.Hold(ctx, run.repos, run.reservation, amount)
	if err != nil {
		return nil, err
	}
	return []events.Event{depositNotice(d, run.now)}, nil
}

func (s *bookingService) releaseDeposit(ctx context.Context, run *transitionRun) ([]events.Event, error) {
	d, err := run.repos.Deposits().GetByReservation(ctx, run.reservation.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !d.Open() {
		return nil, nil
	}
	released, err := s.deposits.Release(ctx, run.repos, d)
	if err != nil {
		return nil, err
	}
	return []events.Event{depositNotice(released, run.now)}, nil
}

// settle persists fines, assembles the invoice and resolves the deposit of a finished rental.
func (s *bookingService) settle(ctx context.Context, run *transitionRun, inputs []domain.FineInput) ([]events.Event, error) {
	var out []events.Event
	reservation := run.reservation

	for _, in := range inputs {
		f := &domain.Fine{
			ID:            uuid.New(),
			ReservationID: reservation.ID,
			Category:      in.Category,
			Amount:        domain.RoundMoney(in.Amount),
			Note:          in.Note,
			CreatedAt:     run.now,
		}
		if err := run.repos.Fines().Create(ctx, f); err != nil {
			return nil, err
		}
		out = append(out, events.New(events.FineApplied, run.now,
			"reservation_id", reservation.ID.String(),
			"fine_id", f.ID.String(),
			"category", string(f.Category),
			"amount", domain.FormatMoney(f.Amount),
		))
	}
	fines, err := run.repos.Fines().ListByReservation(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}

	breakdown, err := quoteFor(ctx, run.repos, s.pricer, run.resource, reservation.StartDate, reservation.EndDate, run.now)
	if err != nil {
		return nil, err
	}
	inv, err := s.invoices.Build(ctx, run.repos, reservation, breakdown, fines)
	if err != nil {
		return nil, err
	}
	run.invoice = inv
	out = append(out, events.New(events.InvoiceIssued, run.now,
		"reservation_id", reservation.ID.String(),
		"invoice_id", inv.ID.String(),
		"total", domain.FormatMoney(inv.Total),
	))

	d, err := run.repos.Deposits().GetByReservation(ctx, reservation.ID)
	if err != nil {
		if isNotFound(err) {
			return out, nil
		}
		return nil, err
	}
	wasOpen := d.Open()
	resolved, err := s.deposits.Resolve(ctx, run.repos, d, domain.FineTotal(fines))
	if err != nil {
		return nil, err
	}
	if wasOpen {
		out = append(out, depositNotice(resolved, run.now))
	}
	return out, nil
}

func (s *bookingService) publish(ctx context.Context, evs []events.Event) {
	for _, e := range evs {
		s.sink.Publish(ctx, e)
	}
}

func (s *bookingService) fail(span trace.Span, method string, err error, args ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	exitWithError(method, err, args...)
}

func depositNotice(d *domain.Deposit, at time.Time) events.Event {
	return events.New(depositEvent(d), at,
		"reservation_id", d.ReservationID.String(),
		"deposit_id", d.ID.String(),
		"amount", domain.FormatMoney(d.Amount),
		"released_amount", domain.FormatMoney(d.ReleasedAmount),
		"settlement_ref", d.SettlementRef,
	)
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
