package domain_test

import (
	"errors"
	"testing"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name                   string
		aStart, aEnd, bStart, bEnd string
		want                   bool
	}{
		{"touching after", "2024-01-01", "2024-01-05", "2024-01-05", "2024-01-08", false},
		{"touching before", "2024-01-05", "2024-01-08", "2024-01-01", "2024-01-05", false},
		{"one day inside", "2024-01-01", "2024-01-05", "2024-01-04", "2024-01-06", true},
		{"contained", "2024-01-01", "2024-01-10", "2024-01-03", "2024-01-04", true},
		{"identical", "2024-01-01", "2024-01-02", "2024-01-01", "2024-01-02", true},
		{"disjoint", "2024-01-01", "2024-01-02", "2024-02-01", "2024-02-02", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.RangesOverlap(day(tc.aStart), day(tc.aEnd), day(tc.bStart), day(tc.bEnd))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateRange(t *testing.T) {
	t.Run("Normalizes", func(t *testing.T) {
		start := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
		end := time.Date(2024, 3, 4, 1, 0, 0, 0, time.UTC)
		s, e, err := domain.ValidateRange(start, end)
		require.NoError(t, err)
		assert.Equal(t, day("2024-03-01"), s)
		assert.Equal(t, day("2024-03-04"), e)
	})

	t.Run("EndNotAfterStart", func(t *testing.T) {
		_, _, err := domain.ValidateRange(day("2024-03-04"), day("2024-03-04"))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Missing", func(t *testing.T) {
		_, _, err := domain.ValidateRange(time.Time{}, day("2024-03-04"))
		var ve *domain.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "start_date", ve.Field)
	})
}

func TestRentalDays(t *testing.T) {
	assert.Equal(t, 7, domain.RentalDays(day("2024-01-01"), day("2024-01-08")))
	assert.Equal(t, 1, domain.RentalDays(day("2024-01-01"), day("2024-01-01")))
	assert.Equal(t, 173125, domain.RentalDays(day("2026-01-01"), day("2500-01-01")))
}

func TestFineInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.FineInput
		wantErr string
	}{
		{"positive amount", domain.FineInput{Category: domain.FineCategoryDamage, Amount: decimal.RequireFromString("12.50")}, ""},
		{"rounds up to a cent", domain.FineInput{Category: domain.FineCategoryOther, Amount: decimal.RequireFromString("0.005")}, ""},
		{"rounds to zero", domain.FineInput{Category: domain.FineCategoryCleaning, Amount: decimal.RequireFromString("0.004")}, "fines.amount"},
		{"negative", domain.FineInput{Category: domain.FineCategoryDamage, Amount: decimal.RequireFromString("-5")}, "fines.amount"},
		{"unknown category", domain.FineInput{Category: "parking", Amount: decimal.NewFromInt(5)}, "fines.category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantErr, ve.Field)
		})
	}
}

func TestErrorSentinels(t *testing.T) {
	id := uuid.New()
	assert.ErrorIs(t, &domain.OverlapError{ResourceID: id}, domain.ErrOverlap)
	assert.ErrorIs(t, &domain.InvalidTransitionError{ReservationID: id}, domain.ErrInvalidTransition)
	assert.ErrorIs(t, domain.NewNotFoundError("reservation", id), domain.ErrNotFound)
	cause := errors.New("gateway timeout")
	err := &domain.SettlementError{Operation: "hold", Err: cause}
	assert.ErrorIs(t, err, domain.ErrSettlement)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-9a4b-4d55-8d0a-2f4f1f0c7a11")
	err := &domain.InvalidTransitionError{ReservationID: id, From: domain.ReservationStatusPending, Event: domain.EventCheckIn}
	assert.Equal(t, "cannot check-in reservation 6f1c2b1e-9a4b-4d55-8d0a-2f4f1f0c7a11 in status PENDING", err.Error())
}
