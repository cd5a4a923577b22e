package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RateRuleKind string

const (
	RuleKindDurationDiscount   RateRuleKind = "duration_discount"
	RuleKindAgeDepreciation    RateRuleKind = "age_depreciation"
	RuleKindSeasonalAdjustment RateRuleKind = "seasonal_adjustment"
)

// RuleParams is the typed payload of a rate rule. Each kind has exactly one implementation.
type RuleParams interface {
	Kind() RateRuleKind
	Validate() error
}

// DurationDiscount takes Rate off the running total once a rental reaches MinDays.
type DurationDiscount struct {
	MinDays int             `json:"min_days"`
	Rate    decimal.Decimal `json:"rate"`
}

func (DurationDiscount) Kind() RateRuleKind { return RuleKindDurationDiscount }

func (p DurationDiscount) Validate() error {
	if p.MinDays < 1 {
		return NewValidationError("params.min_days", "must be at least 1")
	}
	if p.Rate.IsNegative() || p.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return NewValidationError("params.rate", "must be between 0 and 1")
	}
	return nil
}

// AgeDepreciation discounts PerYearRate for every year of vehicle age, up to MaxRate.
type AgeDepreciation struct {
	PerYearRate decimal.Decimal `json:"per_year_rate"`
	MaxRate     decimal.Decimal `json:"max_rate"`
}

// DefaultAgeDepreciation is 1% per year of age capped at 20%.
func DefaultAgeDepreciation() AgeDepreciation {
	return AgeDepreciation{
		PerYearRate: decimal.RequireFromString("0.01"),
		MaxRate:     decimal.RequireFromString("0.20"),
	}
}

func (AgeDepreciation) Kind() RateRuleKind { return RuleKindAgeDepreciation }

func (p AgeDepreciation) Validate() error {
	one := decimal.NewFromInt(1)
	if p.PerYearRate.IsNegative() || p.PerYearRate.GreaterThan(one) {
		return NewValidationError("params.per_year_rate", "must be between 0 and 1")
	}
	if p.MaxRate.IsNegative() || p.MaxRate.GreaterThan(one) {
		return NewValidationError("params.max_rate", "must be between 0 and 1")
	}
	return nil
}

// SeasonalAdjustment multiplies the running total when the rental starts inside [Start, End].
// A window whose End precedes its Start wraps over the new year.
type SeasonalAdjustment struct {
	Start      MonthDay        `json:"start"`
	End        MonthDay        `json:"end"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

func (SeasonalAdjustment) Kind() RateRuleKind { return RuleKindSeasonalAdjustment }

func (p SeasonalAdjustment) Validate() error {
	if p.Start.IsZero() {
		return NewValidationError("params.start", "is required")
	}
	if p.End.IsZero() {
		return NewValidationError("params.end", "is required")
	}
	if !p.Multiplier.IsPositive() {
		return NewValidationError("params.multiplier", "must be positive")
	}
	return nil
}

func (p SeasonalAdjustment) Contains(t time.Time) bool {
	md := MonthDayOf(t)
	if !p.End.Before(p.Start) {
		return !md.Before(p.Start) && !p.End.Before(md)
	}
	return !md.Before(p.Start) || !p.End.Before(md)
}

// MonthDay is a calendar day without a year, encoded as "MM-DD".
type MonthDay struct {
	Month time.Month
	Day   int
}

func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

func ParseMonthDay(s string) (MonthDay, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return MonthDay{}, NewValidationError("month_day", fmt.Sprintf("%q is not MM-DD", s))
	}
	return MonthDayOf(t), nil
}

func (md MonthDay) IsZero() bool { return md.Month == 0 }

func (md MonthDay) Before(other MonthDay) bool {
	if md.Month != other.Month {
		return md.Month < other.Month
	}
	return md.Day < other.Day
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

func (md MonthDay) MarshalText() ([]byte, error) {
	return []byte(md.String()), nil
}

func (md *MonthDay) UnmarshalText(text []byte) error {
	parsed, err := ParseMonthDay(string(text))
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

type RateRule struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	Active bool       `json:"active"`
	Params RuleParams `json:"-"`
}

func (r RateRule) Kind() RateRuleKind {
	if r.Params == nil {
		return ""
	}
	return r.Params.Kind()
}

// ParseRateRule decodes and validates the stored parameters of a rule.
// Unknown kinds and malformed parameters are rejected here, never at quote time.
func ParseRateRule(id uuid.UUID, name string, kind RateRuleKind, raw []byte, active bool) (RateRule, error) {
	var params RuleParams
	switch kind {
	case RuleKindDurationDiscount:
		var p DurationDiscount
		if err := decodeParams(raw, &p); err != nil {
			return RateRule{}, err
		}
		params = p
	case RuleKindAgeDepreciation:
		var p AgeDepreciation
		if err := decodeParams(raw, &p); err != nil {
			return RateRule{}, err
		}
		params = p
	case RuleKindSeasonalAdjustment:
		var p SeasonalAdjustment
		if err := decodeParams(raw, &p); err != nil {
			return RateRule{}, err
		}
		params = p
	default:
		return RateRule{}, NewValidationError("kind", fmt.Sprintf("unknown rate rule kind %q", kind))
	}
	if err := params.Validate(); err != nil {
		return RateRule{}, err
	}
	return RateRule{ID: id, Name: name, Active: active, Params: params}, nil
}

func decodeParams(raw []byte, into any) error {
	if len(raw) == 0 {
		return NewValidationError("params", "are required")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return NewValidationError("params", err.Error())
	}
	return nil
}

// EncodeParams is the inverse of ParseRateRule for storage.
func (r RateRule) EncodeParams() ([]byte, error) {
	if r.Params == nil {
		return nil, NewValidationError("params", "are required")
	}
	return json.Marshal(r.Params)
}
