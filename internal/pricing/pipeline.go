// Package pricing turns a resource, a date range and the active rate rules into an
// ordered price breakdown. It performs no I/O; the as-of time used for vehicle age is
// passed in by the caller.
package pricing

import (
	"sort"
	"strconv"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	LabelBase               = "Base price"
	LabelDurationDiscount   = "Duration discount"
	LabelAgeDepreciation    = "Age depreciation"
	LabelSeasonalAdjustment = "Seasonal adjustment"
)

// Stage is one step of the pipeline. It reads the running total and may append items.
type Stage func(q *Quotation)

// Quotation is the state threaded through the stages.
type Quotation struct {
	Resource *domain.Resource
	Start    time.Time
	End      time.Time
	Days     int
	AsOf     time.Time
	Rules    []domain.RateRule

	// AgeDefault applies when no active age-depreciation rule exists.
	AgeDefault domain.AgeDepreciation

	items []domain.LineItem
	total decimal.Decimal
}

// Total is the running total after the stages applied so far.
func (q *Quotation) Total() decimal.Decimal { return q.total }

// Add rounds amount to currency precision and appends it. Zero adjustments are dropped.
func (q *Quotation) Add(label string, amount decimal.Decimal, metadata map[string]string) {
	amount = domain.RoundMoney(amount)
	if amount.IsZero() && len(q.items) > 0 {
		return
	}
	q.items = append(q.items, domain.LineItem{Label: label, Amount: amount, Metadata: metadata})
	q.total = q.total.Add(amount)
}

// DefaultStages is the fixed evaluation order: base, duration discount, age depreciation, seasonal.
var DefaultStages = []Stage{BaseStage, DurationDiscountStage, AgeDepreciationStage, SeasonalStage}

// Pricer runs a fixed list of stages with fallbacks for rules that are not configured.
type Pricer struct {
	Stages     []Stage
	AgeDefault domain.AgeDepreciation
}

// New returns a Pricer over DefaultStages.
func New(ageDefault domain.AgeDepreciation) Pricer {
	return Pricer{Stages: DefaultStages, AgeDefault: ageDefault}
}

// Default is New with the built-in age depreciation fallback.
func Default() Pricer {
	return New(domain.DefaultAgeDepreciation())
}

// IsZero reports whether p was never configured.
func (p Pricer) IsZero() bool { return len(p.Stages) == 0 }

// Quote prices [start, end) for resource using DefaultStages and the built-in fallbacks.
func Quote(resource *domain.Resource, start, end time.Time, rules []domain.RateRule, asOf time.Time) (domain.PriceBreakdown, error) {
	return Default().Quote(resource, start, end, rules, asOf)
}

func (p Pricer) Quote(resource *domain.Resource, start, end time.Time, rules []domain.RateRule, asOf time.Time) (domain.PriceBreakdown, error) {
	if resource == nil {
		return domain.PriceBreakdown{}, domain.NewValidationError("resource", "is required")
	}
	if !resource.BaseDailyRate.IsPositive() {
		return domain.PriceBreakdown{}, domain.NewValidationError("base_daily_rate", "must be positive")
	}
	start, end, err := domain.ValidateRange(start, end)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}

	q := &Quotation{
		Resource: resource,
		Start:    start,
		End:      end,
		Days:     domain.RentalDays(start, end),
		AsOf:     asOf,
		Rules:    orderRules(rules),
		total:    decimal.Zero,

		AgeDefault: p.AgeDefault,
	}
	for _, stage := range p.Stages {
		stage(q)
	}
	return domain.PriceBreakdown{Items: q.items, Total: q.total}, nil
}

// orderRules keeps active rules only, sorted by kind then id, so evaluation does not
// depend on the order rows came back from storage.
func orderRules(rules []domain.RateRule) []domain.RateRule {
	active := make([]domain.RateRule, 0, len(rules))
	for _, r := range rules {
		if r.Active && r.Params != nil {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Kind() != active[j].Kind() {
			return active[i].Kind() < active[j].Kind()
		}
		return active[i].ID.String() < active[j].ID.String()
	})
	return active
}

func BaseStage(q *Quotation) {
	rate := domain.RoundMoney(q.Resource.BaseDailyRate)
	q.Add(LabelBase, rate.Mul(decimal.NewFromInt(int64(q.Days))), map[string]string{
		"days":       strconv.Itoa(q.Days),
		"daily_rate": domain.FormatMoney(rate),
	})
}

// DurationDiscountStage applies the single highest rate among the rules the rental qualifies for.
func DurationDiscountStage(q *Quotation) {
	var best *domain.RateRule
	var bestParams domain.DurationDiscount
	for i := range q.Rules {
		p, ok := q.Rules[i].Params.(domain.DurationDiscount)
		if !ok || q.Days < p.MinDays {
			continue
		}
		if best == nil || p.Rate.GreaterThan(bestParams.Rate) {
			best, bestParams = &q.Rules[i], p
		}
	}
	if best == nil {
		return
	}
	q.Add(LabelDurationDiscount, q.Total().Mul(bestParams.Rate).Neg(), map[string]string{
		"rule_id":  best.ID.String(),
		"min_days": strconv.Itoa(bestParams.MinDays),
		"rate":     bestParams.Rate.String(),
	})
}

func AgeDepreciationStage(q *Quotation) {
	params := q.AgeDefault
	meta := map[string]string{}
	for _, r := range q.Rules {
		if p, ok := r.Params.(domain.AgeDepreciation); ok {
			params = p
			meta["rule_id"] = r.ID.String()
			break
		}
	}
	age := q.AsOf.Year() - q.Resource.Vintage
	if age <= 0 {
		return
	}
	pct := params.PerYearRate.Mul(decimal.NewFromInt(int64(age)))
	if pct.GreaterThan(params.MaxRate) {
		pct = params.MaxRate
	}
	meta["age_years"] = strconv.Itoa(age)
	meta["rate"] = pct.String()
	q.Add(LabelAgeDepreciation, q.Total().Mul(pct).Neg(), meta)
}

// SeasonalStage applies every matching seasonal window in rule order, each against the
// total left by the previous one.
func SeasonalStage(q *Quotation) {
	one := decimal.NewFromInt(1)
	for _, r := range q.Rules {
		p, ok := r.Params.(domain.SeasonalAdjustment)
		if !ok || !p.Contains(q.Start) {
			continue
		}
		label := r.Name
		if label == "" {
			label = LabelSeasonalAdjustment
		}
		q.Add(label, q.Total().Mul(p.Multiplier.Sub(one)), map[string]string{
			"rule_id":    r.ID.String(),
			"window":     p.Start.String() + ".." + p.End.String(),
			"multiplier": p.Multiplier.String(),
		})
	}
}
