package pricing_test

import (
	"testing"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var asOf = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newCar(rate string, vintage int) *domain.Resource {
	return &domain.Resource{ID: uuid.New(), Name: "Corolla", BaseDailyRate: dec(rate), Vintage: vintage, Status: domain.ResourceStatusAvailable}
}

func rule(t *testing.T, name string, kind domain.RateRuleKind, params string) domain.RateRule {
	t.Helper()
	r, err := domain.ParseRateRule(uuid.New(), name, kind, []byte(params), true)
	require.NoError(t, err)
	return r
}

func TestQuote(t *testing.T) {
	t.Run("WeeklyDiscount", func(t *testing.T) {
		rules := []domain.RateRule{rule(t, "weekly", domain.RuleKindDurationDiscount, `{"min_days":7,"rate":"0.10"}`)}
		breakdown, err := pricing.Quote(newCar("100.00", 2024), day("2024-03-01"), day("2024-03-08"), rules, asOf)
		require.NoError(t, err)

		require.Len(t, breakdown.Items, 2)
		assert.Equal(t, pricing.LabelBase, breakdown.Items[0].Label)
		assert.Equal(t, "700.00", domain.FormatMoney(breakdown.Items[0].Amount))
		assert.Equal(t, pricing.LabelDurationDiscount, breakdown.Items[1].Label)
		assert.Equal(t, "-70.00", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "630.00", domain.FormatMoney(breakdown.Total))
	})

	t.Run("HighestDiscountWins", func(t *testing.T) {
		rules := []domain.RateRule{
			rule(t, "weekly", domain.RuleKindDurationDiscount, `{"min_days":7,"rate":"0.10"}`),
			rule(t, "fortnight", domain.RuleKindDurationDiscount, `{"min_days":14,"rate":"0.15"}`),
			rule(t, "monthly", domain.RuleKindDurationDiscount, `{"min_days":30,"rate":"0.25"}`),
		}
		breakdown, err := pricing.Quote(newCar("50.00", 2024), day("2024-03-01"), day("2024-03-21"), rules, asOf)
		require.NoError(t, err)
		require.Len(t, breakdown.Items, 2)
		assert.Equal(t, "-150.00", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "0.15", breakdown.Items[1].Metadata["rate"])
	})

	t.Run("DefaultAgeDepreciation", func(t *testing.T) {
		breakdown, err := pricing.Quote(newCar("80.00", 2014), day("2024-03-01"), day("2024-03-03"), nil, asOf)
		require.NoError(t, err)
		require.Len(t, breakdown.Items, 2)
		assert.Equal(t, pricing.LabelAgeDepreciation, breakdown.Items[1].Label)
		assert.Equal(t, "-16.00", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "10", breakdown.Items[1].Metadata["age_years"])
		assert.Equal(t, "144.00", domain.FormatMoney(breakdown.Total))
	})

	t.Run("ConfiguredAgeDefault", func(t *testing.T) {
		pricer := pricing.New(domain.AgeDepreciation{
			PerYearRate: decimal.RequireFromString("0.03"),
			MaxRate:     decimal.RequireFromString("0.50"),
		})
		breakdown, err := pricer.Quote(newCar("80.00", 2014), day("2024-03-01"), day("2024-03-03"), nil, asOf)
		require.NoError(t, err)
		assert.Equal(t, "-48.00", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "112.00", domain.FormatMoney(breakdown.Total))

		// The package-level Quote keeps the built-in fallback.
		builtIn, err := pricing.Quote(newCar("80.00", 2014), day("2024-03-01"), day("2024-03-03"), nil, asOf)
		require.NoError(t, err)
		assert.Equal(t, "144.00", domain.FormatMoney(builtIn.Total))
	})

	t.Run("AgeDepreciationCapped", func(t *testing.T) {
		rules := []domain.RateRule{rule(t, "age", domain.RuleKindAgeDepreciation, `{"per_year_rate":"0.02","max_rate":"0.25"}`)}
		breakdown, err := pricing.Quote(newCar("100.00", 1990), day("2024-03-01"), day("2024-03-02"), rules, asOf)
		require.NoError(t, err)
		assert.Equal(t, "-25.00", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "75.00", domain.FormatMoney(breakdown.Total))
	})

	t.Run("SeasonalOnRunningTotal", func(t *testing.T) {
		rules := []domain.RateRule{
			rule(t, "weekly", domain.RuleKindDurationDiscount, `{"min_days":7,"rate":"0.10"}`),
			rule(t, "Summer surcharge", domain.RuleKindSeasonalAdjustment, `{"start":"06-01","end":"08-31","multiplier":"1.15"}`),
		}
		breakdown, err := pricing.Quote(newCar("100.00", 2024), day("2024-07-01"), day("2024-07-08"), rules, asOf)
		require.NoError(t, err)
		require.Len(t, breakdown.Items, 3)
		assert.Equal(t, "Summer surcharge", breakdown.Items[2].Label)
		assert.Equal(t, "94.50", domain.FormatMoney(breakdown.Items[2].Amount))
		assert.Equal(t, "724.50", domain.FormatMoney(breakdown.Total))
	})

	t.Run("SeasonalOutsideWindow", func(t *testing.T) {
		rules := []domain.RateRule{rule(t, "Summer", domain.RuleKindSeasonalAdjustment, `{"start":"06-01","end":"08-31","multiplier":"1.15"}`)}
		breakdown, err := pricing.Quote(newCar("100.00", 2024), day("2024-09-01"), day("2024-09-03"), rules, asOf)
		require.NoError(t, err)
		assert.Len(t, breakdown.Items, 1)
	})

	t.Run("InactiveRulesIgnored", func(t *testing.T) {
		r := rule(t, "weekly", domain.RuleKindDurationDiscount, `{"min_days":1,"rate":"0.50"}`)
		r.Active = false
		breakdown, err := pricing.Quote(newCar("100.00", 2024), day("2024-03-01"), day("2024-03-02"), []domain.RateRule{r}, asOf)
		require.NoError(t, err)
		assert.Equal(t, "100.00", domain.FormatMoney(breakdown.Total))
	})

	t.Run("RoundsHalfUp", func(t *testing.T) {
		rules := []domain.RateRule{rule(t, "promo", domain.RuleKindDurationDiscount, `{"min_days":1,"rate":"0.125"}`)}
		breakdown, err := pricing.Quote(newCar("10.20", 2024), day("2024-03-01"), day("2024-03-02"), rules, asOf)
		require.NoError(t, err)
		// 10.20 * 0.125 = 1.275
		assert.Equal(t, "-1.28", domain.FormatMoney(breakdown.Items[1].Amount))
		assert.Equal(t, "8.92", domain.FormatMoney(breakdown.Total))
	})

	t.Run("InvalidRange", func(t *testing.T) {
		_, err := pricing.Quote(newCar("100.00", 2024), day("2024-03-02"), day("2024-03-02"), nil, asOf)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("MissingResource", func(t *testing.T) {
		_, err := pricing.Quote(nil, day("2024-03-01"), day("2024-03-02"), nil, asOf)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestQuoteTotalsAreExactAndDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(100, 100000).Draw(t, "rate_cents")
		days := rapid.IntRange(1, 90).Draw(t, "days")
		vintage := rapid.IntRange(1995, 2024).Draw(t, "vintage")
		startOffset := rapid.IntRange(0, 365).Draw(t, "start_offset")
		discount := rapid.IntRange(0, 40).Draw(t, "discount_pct")
		multiplier := rapid.IntRange(80, 150).Draw(t, "multiplier_pct")

		car := &domain.Resource{ID: uuid.New(), Name: "car", BaseDailyRate: decimal.New(cents, -2), Vintage: vintage}
		start := day("2024-01-01").AddDate(0, 0, startOffset)
		end := start.AddDate(0, 0, days)
		rules := []domain.RateRule{
			{ID: uuid.New(), Name: "long", Active: true, Params: domain.DurationDiscount{MinDays: 5, Rate: decimal.New(int64(discount), -2)}},
			{ID: uuid.New(), Name: "season", Active: true, Params: domain.SeasonalAdjustment{
				Start:      domain.MonthDay{Month: time.March, Day: 1},
				End:        domain.MonthDay{Month: time.October, Day: 31},
				Multiplier: decimal.New(int64(multiplier), -2),
			}},
		}

		first, err := pricing.Quote(car, start, end, rules, asOf)
		if err != nil {
			t.Fatalf("quote: %v", err)
		}
		reversed := []domain.RateRule{rules[1], rules[0]}
		second, err := pricing.Quote(car, start, end, reversed, asOf)
		if err != nil {
			t.Fatalf("quote: %v", err)
		}

		if !first.Total.Equal(domain.SumLineItems(first.Items)) {
			t.Fatalf("total %s != sum of items %s", first.Total, domain.SumLineItems(first.Items))
		}
		if !first.Total.Equal(second.Total) || len(first.Items) != len(second.Items) {
			t.Fatalf("quote depends on rule order: %s vs %s", first.Total, second.Total)
		}
		for _, item := range first.Items {
			if !item.Amount.Equal(domain.RoundMoney(item.Amount)) {
				t.Fatalf("item %q has more than two decimals: %s", item.Label, item.Amount)
			}
		}
		if !first.Total.IsPositive() {
			t.Fatalf("non-positive total %s", first.Total)
		}
	})
}
