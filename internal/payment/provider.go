package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider settles money with an external gateway. Every call returns the gateway's
// reference for the movement.
type Provider interface {
	// Hold places amount in custody against a reservation.
	Hold(ctx context.Context, amount decimal.Decimal) (string, error)

	// Release returns amount of a previously held deposit to the customer.
	Release(ctx context.Context, amount decimal.Decimal) (string, error)

	// Forfeit captures amount of a previously held deposit.
	Forfeit(ctx context.Context, amount decimal.Decimal) (string, error)

	// Pay charges an invoice total with the given method (e.g. "card").
	Pay(ctx context.Context, amount decimal.Decimal, method string) (string, error)
}

// NewProvider builds the provider selected by cfg.Type.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Type {
	case "", "mock":
		return NewMockProvider(cfg.Name), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider type %q", cfg.Type)
	}
}
