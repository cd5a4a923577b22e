package jobs

import (
	"time"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	reservations repository.ReservationRepository
	booking      service.BookingService
	sink         events.Sink
	config       config.SchedulerConfig
	now          service.Clock
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(
	reservations repository.ReservationRepository,
	booking service.BookingService,
	sink events.Sink,
	cfg config.SchedulerConfig,
	clock service.Clock,
) *JobRunner {
	if clock == nil {
		clock = service.SystemClock
	}
	return &JobRunner{
		reservations: reservations,
		booking:      booking,
		sink:         sink,
		config:       cfg,
		now:          clock,
	}
}

// Config returns the cron expressions the scheduler registers jobs with
func (jr *JobRunner) Config() config.SchedulerConfig {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	start := time.Now()
	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ExpireStalePending()
	jr.ReportOverdueRentals()
}

func (jr *JobRunner) today() time.Time {
	now := jr.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
