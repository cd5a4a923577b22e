package jobs

import (
	"context"
	"errors"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
)

// ExpireStalePending cancels PENDING reservations whose start date has already passed
func (jr *JobRunner) ExpireStalePending() {
	jr.runWithRecovery("ExpireStalePending", func() {
		if _, err := jr.expireStalePending(context.Background()); err != nil {
			logger.Error("Failed to expire stale reservations", "error", err)
		}
	})
}

func (jr *JobRunner) expireStalePending(ctx context.Context) (int, error) {
	stale, err := jr.reservations.ListPendingStartingBefore(ctx, jr.today())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, res := range stale {
		if _, err := jr.booking.Cancel(ctx, res.ID); err != nil {
			// Someone confirmed or canceled it since we listed it.
			if errors.Is(err, domain.ErrInvalidTransition) {
				logger.Warn("Skipping reservation that left PENDING", "reservation_id", res.ID, "reason", err)
				continue
			}
			logger.Error("Failed to expire reservation", "reservation_id", res.ID, "error", err)
			continue
		}
		expired++
	}

	logger.Info("Expired stale pending reservations", "found", len(stale), "expired", expired)
	return expired, nil
}

// ReportOverdueRentals publishes an overdue event for every ACTIVE rental past its end date
func (jr *JobRunner) ReportOverdueRentals() {
	jr.runWithRecovery("ReportOverdueRentals", func() {
		if _, err := jr.reportOverdueRentals(context.Background()); err != nil {
			logger.Error("Failed to report overdue rentals", "error", err)
		}
	})
}

func (jr *JobRunner) reportOverdueRentals(ctx context.Context) (int, error) {
	today := jr.today()
	overdue, err := jr.reservations.ListActiveEndingBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	for _, res := range overdue {
		daysLate := int(today.Sub(res.EndDate).Hours() / 24)
		logger.Warn("Rental is overdue",
			"reservation_id", res.ID,
			"resource_id", res.ResourceID,
			"end_date", res.EndDate.Format(time.DateOnly),
			"days_late", daysLate)
		jr.sink.Publish(ctx, events.New(events.ReservationOverdue, jr.now(),
			"reservation_id", res.ID.String(),
			"resource_id", res.ResourceID.String(),
			"customer_id", res.CustomerID.String(),
			"end_date", res.EndDate.Format(time.DateOnly),
		))
	}

	logger.Info("Reported overdue rentals", "count", len(overdue))
	return len(overdue), nil
}
