package payment

import (
	"context"
	"fmt"
	"strings"

	"fleetrent-backend/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockProvider settles everything immediately and hands back unique references.
// It is used for local runs and demos where no gateway is configured.
type MockProvider struct {
	name string
}

func NewMockProvider(name string) *MockProvider {
	if name == "" {
		name = "MockPay"
	}
	return &MockProvider{name: name}
}

func (m *MockProvider) Hold(ctx context.Context, amount decimal.Decimal) (string, error) {
	return m.settle(ctx, "hold", amount)
}

func (m *MockProvider) Release(ctx context.Context, amount decimal.Decimal) (string, error) {
	return m.settle(ctx, "release", amount)
}

func (m *MockProvider) Forfeit(ctx context.Context, amount decimal.Decimal) (string, error) {
	return m.settle(ctx, "forfeit", amount)
}

func (m *MockProvider) Pay(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	if method == "" {
		return "", fmt.Errorf("payment method is required")
	}
	return m.settle(ctx, "payment-"+method, amount)
}

func (m *MockProvider) settle(ctx context.Context, operation string, amount decimal.Decimal) (string, error) {
	logger.ExternalServiceCall(m.name, operation, "amount", amount.StringFixed(2))
	if err := ctx.Err(); err != nil {
		logger.ExternalServiceResult(m.name, operation, err)
		return "", err
	}
	if amount.IsNegative() {
		err := fmt.Errorf("negative amount %s", amount.StringFixed(2))
		logger.ExternalServiceResult(m.name, operation, err)
		return "", err
	}
	ref := fmt.Sprintf("%s-%s-%s", operation, strings.ToLower(m.name), uuid.NewString())
	logger.ExternalServiceResult(m.name, operation, nil, "reference", ref)
	return ref, nil
}
