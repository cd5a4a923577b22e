package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one ordered entry of a price breakdown or invoice.
type LineItem struct {
	Label    string            `json:"label"`
	Amount   decimal.Decimal   `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type lineItemJSON struct {
	Label    string            `json:"label"`
	Amount   string            `json:"amount"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MarshalJSON writes the amount with fixed precision so equal items encode to equal bytes.
func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{Label: li.Label, Amount: FormatMoney(li.Amount), Metadata: li.Metadata})
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return err
	}
	li.Label = raw.Label
	li.Amount = amount
	li.Metadata = raw.Metadata
	return nil
}

// PriceBreakdown is the output of the pricing pipeline. Total equals the sum of Items.
type PriceBreakdown struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	ReservationID uuid.UUID       `json:"reservation_id"`
	LineItems     []LineItem      `json:"line_items"`
	Total         decimal.Decimal `json:"total"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	PaymentRef    string          `json:"payment_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (i *Invoice) Paid() bool {
	return i.PaidAt != nil
}

// SumLineItems adds the item amounts in order.
func SumLineItems(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}
