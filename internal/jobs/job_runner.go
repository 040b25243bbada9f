package jobs

import (
	"log/slog"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/config"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository"
	"github.com/RaymondSalim/hms-sub002/internal/service"

	"github.com/google/uuid"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	db       repository.DBTX
	repos    Repositories
	services *Services
	config   *config.Config
	now      func() time.Time
}

// Repositories holds the read paths jobs use directly.
type Repositories struct {
	Bookings repository.BookingRepository
	Bills    repository.BillRepository
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Bill service.BillService
	Mail service.MailService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(db repository.DBTX, repos Repositories, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		db:       db,
		repos:    repos,
		services: services,
		config:   cfg,
		now:      time.Now,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(log *slog.Logger)) {
	log := logger.WithJob(jobName, uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	log.Info("Starting job")
	start := time.Now()
	jobFunc(log)
	log.Info("Job completed", "duration", time.Since(start))
}

// RunAllDailyJobs runs every daily job once (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.RunRecurringBilling()
	jr.SendBillReminders()
}
