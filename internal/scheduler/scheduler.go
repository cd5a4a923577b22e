package scheduler

import (
	"time"

	"fleetrent-backend/internal/jobs"
	"fleetrent-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. Jobs whose cron
// expression does not parse are reported and skipped.
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config()

	registered := 0
	// Cancel bookings nobody confirmed before their start date
	if _, err := s.cron.AddFunc(cfg.ExpirePending, s.jobs.ExpireStalePending); err != nil {
		logger.Error("Failed to register ExpireStalePending job", "schedule", cfg.ExpirePending, "error", err)
	} else {
		registered++
	}

	// Flag rentals that were not returned on time
	if _, err := s.cron.AddFunc(cfg.ReportOverdue, s.jobs.ReportOverdueRentals); err != nil {
		logger.Error("Failed to register ReportOverdueRentals job", "schedule", cfg.ReportOverdue, "error", err)
	} else {
		registered++
	}

	logger.Info("Cron jobs registered", "count", registered)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// JobCount returns the number of registered jobs
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
