package service

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/payment"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepositLedger keeps deposit records and the settlement provider in step. Every
// method works on the repositories of the caller's transaction.
type DepositLedger struct {
	provider payment.Provider
	now      Clock
}

func NewDepositLedger(provider payment.Provider, clock Clock) *DepositLedger {
	if clock == nil {
		clock = SystemClock
	}
	return &DepositLedger{provider: provider, now: clock}
}

func (l *DepositLedger) Hold(ctx context.Context, repos repository.Repositories, reservation *domain.Reservation, amount decimal.Decimal) (*domain.Deposit, error) {
	amount = domain.RoundMoney(amount)
	if amount.IsNegative() {
		return nil, domain.NewValidationError("deposit.amount", "must not be negative")
	}
	ref, err := l.provider.Hold(ctx, amount)
	if err != nil {
		return nil, &domain.SettlementError{Operation: "hold", Err: err}
	}
	now := l.now()
	d := &domain.Deposit{
		ID:             uuid.New(),
		ReservationID:  reservation.ID,
		Amount:         amount,
		ReleasedAmount: decimal.Zero,
		Status:         domain.DepositStatusHeld,
		SettlementRef:  ref,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repos.Deposits().Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Release returns everything still in custody.
func (l *DepositLedger) Release(ctx context.Context, repos repository.Repositories, d *domain.Deposit) (*domain.Deposit, error) {
	if !d.Open() {
		return nil, settledDeposit(d)
	}
	ref, err := l.provider.Release(ctx, d.Outstanding())
	if err != nil {
		return nil, &domain.SettlementError{Operation: "release", Err: err}
	}
	return l.save(ctx, repos, d, domain.DepositStatusReleased, d.Amount, ref)
}

// ReleasePartial returns amount and keeps the rest in custody. Releasing exactly the
// outstanding amount closes the deposit.
func (l *DepositLedger) ReleasePartial(ctx context.Context, repos repository.Repositories, d *domain.Deposit, amount decimal.Decimal) (*domain.Deposit, error) {
	if !d.Open() {
		return nil, settledDeposit(d)
	}
	amount = domain.RoundMoney(amount)
	outstanding := d.Outstanding()
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "must be positive")
	}
	if amount.GreaterThan(outstanding) {
		return nil, domain.NewValidationError("amount", "exceeds the outstanding deposit of "+domain.FormatMoney(outstanding))
	}
	ref, err := l.provider.Release(ctx, amount)
	if err != nil {
		return nil, &domain.SettlementError{Operation: "release", Err: err}
	}
	status := domain.DepositStatusPartiallyReleased
	if amount.Equal(outstanding) {
		status = domain.DepositStatusReleased
	}
	return l.save(ctx, repos, d, status, d.ReleasedAmount.Add(amount), ref)
}

func (l *DepositLedger) Forfeit(ctx context.Context, repos repository.Repositories, d *domain.Deposit) (*domain.Deposit, error) {
	if !d.Open() {
		return nil, settledDeposit(d)
	}
	ref, err := l.provider.Forfeit(ctx, d.Outstanding())
	if err != nil {
		return nil, &domain.SettlementError{Operation: "forfeit", Err: err}
	}
	return l.save(ctx, repos, d, domain.DepositStatusForfeited, d.ReleasedAmount, ref)
}

// Resolve settles the deposit at the end of a rental: fines above the deposit amount
// forfeit it, anything else releases it. A deposit that is already closed is left alone.
func (l *DepositLedger) Resolve(ctx context.Context, repos repository.Repositories, d *domain.Deposit, fineTotal decimal.Decimal) (*domain.Deposit, error) {
	if !d.Open() {
		return d, nil
	}
	if fineTotal.GreaterThan(d.Amount) {
		return l.Forfeit(ctx, repos, d)
	}
	return l.Release(ctx, repos, d)
}

func (l *DepositLedger) save(ctx context.Context, repos repository.Repositories, d *domain.Deposit, status domain.DepositStatus, released decimal.Decimal, ref string) (*domain.Deposit, error) {
	updated := *d
	updated.Status = status
	updated.ReleasedAmount = released
	updated.SettlementRef = ref
	updated.UpdatedAt = l.now()
	if err := repos.Deposits().Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func settledDeposit(d *domain.Deposit) error {
	return domain.NewValidationError("deposit", "is already "+string(d.Status))
}

func depositEvent(d *domain.Deposit) events.Name {
	switch d.Status {
	case domain.DepositStatusHeld:
		return events.DepositHeld
	case domain.DepositStatusPartiallyReleased:
		return events.DepositPartiallyReleased
	case domain.DepositStatusForfeited:
		return events.DepositForfeited
	default:
		return events.DepositReleased
	}
}
