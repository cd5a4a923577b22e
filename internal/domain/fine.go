package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FineCategory string

const (
	FineCategoryDamage     FineCategory = "damage"
	FineCategoryLateReturn FineCategory = "late_return"
	FineCategoryCleaning   FineCategory = "cleaning"
	FineCategoryOther      FineCategory = "other"
)

func (c FineCategory) Valid() bool {
	switch c {
	case FineCategoryDamage, FineCategoryLateReturn, FineCategoryCleaning, FineCategoryOther:
		return true
	}
	return false
}

// Label is the human readable category used on invoices, e.g. "Late return".
func (c FineCategory) Label() string {
	switch c {
	case FineCategoryDamage:
		return "Damage"
	case FineCategoryLateReturn:
		return "Late return"
	case FineCategoryCleaning:
		return "Cleaning"
	default:
		return "Other"
	}
}

type Fine struct {
	ID            uuid.UUID       `json:"id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	Category      FineCategory    `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// FineInput is a fine recorded at completion time, before it is persisted.
type FineInput struct {
	Category FineCategory    `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note,omitempty"`
}

func (f FineInput) Validate() error {
	if !f.Category.Valid() {
		return NewValidationError("fines.category", "unknown fine category "+string(f.Category))
	}
	if !RoundMoney(f.Amount).IsPositive() {
		return NewValidationError("fines.amount", "must be at least 0.01")
	}
	return nil
}

func FineTotal(fines []Fine) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fines {
		total = total.Add(f.Amount)
	}
	return total
}
