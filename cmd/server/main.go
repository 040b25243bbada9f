package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/RaymondSalim/hms-sub002/internal/api/http"
	"github.com/RaymondSalim/hms-sub002/internal/billing"
	"github.com/RaymondSalim/hms-sub002/internal/config"
	"github.com/RaymondSalim/hms-sub002/internal/jobs"
	"github.com/RaymondSalim/hms-sub002/internal/logger"
	"github.com/RaymondSalim/hms-sub002/internal/repository/postgres"
	"github.com/RaymondSalim/hms-sub002/internal/security"
	"github.com/RaymondSalim/hms-sub002/internal/service"
	"github.com/RaymondSalim/hms-sub002/internal/storage"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the database schema before serving")
	flag.Parse()

	// Environment overrides may live in a local .env file
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting HMS billing backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if *migrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Repositories
	store := postgres.NewStore(db)
	txManager := postgres.NewTxManager(db, cfg.PaymentTxTimeout())

	// Proof storage
	objectStorage, err := storage.New(storage.Config{Type: cfg.Storage.Type, BaseDir: cfg.Storage.BaseDir})
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	logger.Info("Payment proof storage ready", "type", cfg.Storage.Type, "base_dir", cfg.Storage.BaseDir)

	// Services
	generator := billing.NewGenerator(cfg.Billing.DueDateOffsetDays)
	txnSvc := service.NewTransactionService(txManager, store.TransactionRepository)
	depositSvc := service.NewDepositService(
		txManager,
		store.DepositRepository,
		store.BillRepository,
		store.BookingRepository,
		txnSvc,
		cfg.Billing.DepositIncomeCategory,
	)
	billSvc := service.NewBillService(txManager, store.BillRepository, store.BookingRepository, generator)
	bookingSvc := service.NewBookingService(txManager, store.BookingRepository, store.BillRepository, depositSvc, generator)
	paymentSvc := service.NewPaymentService(
		txManager,
		store.PaymentRepository,
		store.BillRepository,
		store.BookingRepository,
		objectStorage,
	)

	var mailSvc service.MailService
	if cfg.Mail.SendGridAPIKey != "" {
		mailSvc = service.NewSendGridMailService(cfg.Mail.SendGridAPIKey, cfg.Mail.FromEmail, cfg.Mail.FromName)
	} else {
		logger.Warn("No SendGrid API key configured, reminder mail will only be logged")
		mailSvc = service.NewLogMailService()
	}

	jobRunner := jobs.NewJobRunner(db, jobs.Repositories{
		Bookings: store.BookingRepository,
		Bills:    store.BillRepository,
	}, &jobs.Services{Bill: billSvc, Mail: mailSvc}, cfg)

	handler := httpapi.NewHandler(httpapi.Services{
		Booking:     bookingSvc,
		Bill:        billSvc,
		Payment:     paymentSvc,
		Deposit:     depositSvc,
		Transaction: txnSvc,
		BillingJob:  jobRunner,
	}, httpapi.UploadLimits{
		MaxBytes:     cfg.MaxProofBytes(),
		AllowedTypes: cfg.Storage.AllowedTypes,
	})
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      httpapi.NewRouter(handler, tokenManager),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped")
}
