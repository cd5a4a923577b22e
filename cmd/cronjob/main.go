package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/jobs"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/payment"
	"fleetrent-backend/internal/pricing"
	"fleetrent-backend/internal/repository/postgres"
	"fleetrent-backend/internal/scheduler"
	"fleetrent-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-pending', 'report-overdue', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Type != "postgres" {
		log.Fatalf("Cronjob runner needs postgres storage, got %q", cfg.Storage.Type)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FleetRent Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	perYear, maxRate := cfg.Pricing.AgeDepreciationValues()
	pricer := pricing.New(domain.AgeDepreciation{PerYearRate: perYear, MaxRate: maxRate})

	provider, err := payment.NewProvider(payment.Config{Type: cfg.Payment.Provider, Name: cfg.Payment.Name})
	if err != nil {
		log.Fatalf("Failed to initialize payment provider: %v", err)
	}

	// Jobs only log their events; the server process owns desk email.
	bus := events.NewBus()
	bus.SubscribeAll(events.LogObserver)

	bookingSvc := service.NewBookingService(
		store,
		service.NewDepositLedger(provider, service.SystemClock),
		service.NewInvoiceAssembler(service.SystemClock),
		bus,
		service.BookingConfig{
			DepositRate: decimal.NewNullDecimal(cfg.Pricing.DepositRateValue()),
			Pricer:      pricer,
			Clock:       service.SystemClock,
		},
	)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.Reservations(), bookingSvc, bus, cfg.Scheduler, service.SystemClock)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "expire-pending":
		jobRunner.ExpireStalePending()
	case "report-overdue":
		jobRunner.ReportOverdueRentals()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - expire-pending\n")
		fmt.Printf("  - report-overdue\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
