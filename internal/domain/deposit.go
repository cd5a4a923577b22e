package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DepositStatus string

const (
	DepositStatusHeld              DepositStatus = "HELD"
	DepositStatusReleased          DepositStatus = "RELEASED"
	DepositStatusPartiallyReleased DepositStatus = "PARTIALLY_RELEASED"
	DepositStatusForfeited         DepositStatus = "FORFEITED"
)

// Deposit is the security amount held against a confirmed reservation.
// ReleasedAmount tracks what has gone back to the customer so far.
type Deposit struct {
	ID             uuid.UUID       `json:"id"`
	ReservationID  uuid.UUID       `json:"reservation_id"`
	Amount         decimal.Decimal `json:"amount"`
	ReleasedAmount decimal.Decimal `json:"released_amount"`
	Status         DepositStatus   `json:"status"`
	SettlementRef  string          `json:"settlement_ref,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Outstanding is the part of the deposit still in custody.
func (d *Deposit) Outstanding() decimal.Decimal {
	return d.Amount.Sub(d.ReleasedAmount)
}

// Open reports whether the deposit can still be released or forfeited.
func (d *Deposit) Open() bool {
	return d.Status == DepositStatusHeld || d.Status == DepositStatusPartiallyReleased
}
