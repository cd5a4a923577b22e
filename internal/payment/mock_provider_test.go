package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	p := NewMockProvider("")

	t.Run("References are unique", func(t *testing.T) {
		a, err := p.Hold(ctx, decimal.NewFromInt(189))
		require.NoError(t, err)
		b, err := p.Hold(ctx, decimal.NewFromInt(189))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
		assert.True(t, strings.HasPrefix(a, "hold-mockpay-"))
	})

	t.Run("Pay carries method", func(t *testing.T) {
		ref, err := p.Pay(ctx, decimal.NewFromInt(630), "card")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(ref, "payment-card-"))
	})

	t.Run("Pay without method", func(t *testing.T) {
		_, err := p.Pay(ctx, decimal.NewFromInt(630), "")
		assert.Error(t, err)
	})

	t.Run("Negative amount", func(t *testing.T) {
		_, err := p.Release(ctx, decimal.NewFromInt(-1))
		assert.Error(t, err)
	})

	t.Run("Canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.Forfeit(cctx, decimal.NewFromInt(10))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{Type: "mock", Name: "Sandbox"})
	require.NoError(t, err)
	assert.IsType(t, &MockProvider{}, p)

	_, err = NewProvider(Config{Type: "stripe"})
	assert.Error(t, err)
}
