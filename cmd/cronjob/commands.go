package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/RaymondSalim/hms-sub002/internal/billing"
	"github.com/RaymondSalim/hms-sub002/internal/config"
	"github.com/RaymondSalim/hms-sub002/internal/jobs"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository/postgres"
	"github.com/RaymondSalim/hms-sub002/internal/scheduler"
	"github.com/RaymondSalim/hms-sub002/internal/security"
	"github.com/RaymondSalim/hms-sub002/internal/service"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var jobsByName = map[string]func(*jobs.JobRunner){
	"recurring-billing": (*jobs.JobRunner).RunRecurringBilling,
	"bill-reminders":    (*jobs.JobRunner).SendBillReminders,
	"all-daily":         (*jobs.JobRunner).RunAllDailyJobs,
}

func jobNames() []string {
	names := make([]string, 0, len(jobsByName))
	for name := range jobsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

// newJobRunner connects to the database and wires the services the jobs use.
// The caller owns the returned *sql.DB.
func newJobRunner(cfg *config.Config) (*jobs.JobRunner, *sql.DB, error) {
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	txManager := postgres.NewTxManager(db, cfg.PaymentTxTimeout())
	billSvc := service.NewBillService(txManager, store.BillRepository, store.BookingRepository,
		billing.NewGenerator(cfg.Billing.DueDateOffsetDays))

	var mailSvc service.MailService
	if cfg.Mail.SendGridAPIKey != "" {
		mailSvc = service.NewSendGridMailService(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	} else {
		logger.Warn("No SendGrid API key configured, reminder mail will only be logged")
		mailSvc = service.NewLogMailService()
	}

	runner := jobs.NewJobRunner(db, jobs.Repositories{
		Bookings: store.BookingRepository,
		Bills:    store.BillRepository,
	}, &jobs.Services{Bill: billSvc, Mail: mailSvc}, cfg)
	return runner, db, nil
}

func scheduleCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the job scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			logger.Info("Starting HMS cronjob scheduler...", "log_level", cfg.Log.Level)

			runner, db, err := newJobRunner(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			cronScheduler, err := scheduler.NewScheduler(runner)
			if err != nil {
				return err
			}
			cronScheduler.Start()
			logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			<-sigChan

			logger.Info("Shutting down cronjob scheduler...")
			cronScheduler.Stop()
			logger.Info("Cronjob scheduler stopped")
			return nil
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "run <job>",
		Short:     "Run one job immediately and exit",
		Long:      "Run one job immediately and exit. Jobs: " + strings.Join(jobNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: jobNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, ok := jobsByName[args[0]]
			if !ok {
				return fmt.Errorf("unknown job %q, available: %s", args[0], strings.Join(jobNames(), ", "))
			}
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			runner, db, err := newJobRunner(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			logger.Info("Running job once", "job", args[0])
			job(runner)
			logger.Info("Job execution completed", "job", args[0])
			return nil
		},
	}
}

// issueTokenCmd mints an operator token signed with the configured secret,
// for scripted calls against the API.
func issueTokenCmd(configPath *string) *cobra.Command {
	var (
		operatorID int32
		name       string
		roles      []string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print a signed operator token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if operatorID <= 0 {
				return fmt.Errorf("--operator-id must be positive")
			}
			tm := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
			token, err := tm.GenerateOperatorToken(operatorID, name, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int32Var(&operatorID, "operator-id", 0, "Operator id to embed in the token")
	cmd.Flags().StringVar(&name, "name", "", "Operator display name")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Operator role (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
