package domain

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of fractional digits kept for currency amounts.
const MoneyPlaces = 2

// RoundMoney rounds to two places, halves away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatMoney renders an amount with exactly two fractional digits.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ParseMoney parses a decimal string and rounds it to currency precision.
func ParseMoney(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "is not a decimal amount")
	}
	return RoundMoney(d), nil
}

func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
