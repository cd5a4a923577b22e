package scheduler

import (
	"testing"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/jobs"
	"fleetrent-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	store := memory.NewStore()
	runner := jobs.NewJobRunner(store.Reservations(), nil, &events.Recorder{}, config.SchedulerConfig{
		ExpirePending: "0 15 0 * * *",
		ReportOverdue: "0 0 * * * *",
	}, nil)

	s := NewScheduler(runner)
	assert.Equal(t, 2, s.JobCount())

	s.Start()
	s.Stop()
}

func TestNewScheduler_SkipsInvalidSchedule(t *testing.T) {
	store := memory.NewStore()
	runner := jobs.NewJobRunner(store.Reservations(), nil, &events.Recorder{}, config.SchedulerConfig{
		ExpirePending: "not a cron line",
		ReportOverdue: "0 0 * * * *",
	}, nil)

	s := NewScheduler(runner)
	assert.Equal(t, 1, s.JobCount())
}
