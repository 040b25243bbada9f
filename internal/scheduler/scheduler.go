package scheduler

import (
	"fmt"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/config"
	"github.com/RaymondSalim/hms-sub002/internal/logger"

	"github.com/robfig/cron/v3"
)

// Runner is the set of jobs the scheduler triggers.
type Runner interface {
	Config() *config.Config
	RunRecurringBilling()
	SendBillReminders()
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Runner
}

// NewScheduler creates a scheduler and registers every job. A malformed
// cron spec is returned as an error instead of silently skipping the job.
func NewScheduler(jobRunner Runner) (*Scheduler, error) {
	// UTC with seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"RecurringBilling", cfg.RecurringBilling, s.jobs.RunRecurringBilling},
		{"SendBillReminders", cfg.BillReminders, s.jobs.SendBillReminders},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, j.run); err != nil {
			logger.Error("Failed to register job", "job", j.name, "spec", j.spec, "error", err)
			return fmt.Errorf("failed to register %s job: %w", j.name, err)
		}
		logger.Info("Registered job", "job", j.name, "spec", j.spec)
	}
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries lists the registered jobs with their next run time.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
