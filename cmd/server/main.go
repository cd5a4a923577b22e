package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "fleetrent-backend/internal/api/grpc"
	httpapi "fleetrent-backend/internal/api/http"
	"fleetrent-backend/internal/config"
	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/payment"
	"fleetrent-backend/internal/pricing"
	"fleetrent-backend/internal/repository"
	"fleetrent-backend/internal/repository/memory"
	"fleetrent-backend/internal/repository/postgres"
	"fleetrent-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting FleetRent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var (
		store repository.Store
		db    *sql.DB
	)
	switch cfg.Storage.Type {
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		store = memory.NewStore()
	default:
		logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err = sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

		if err := db.PingContext(ctx); err != nil {
			logger.Error("Failed to ping database", "error", err)
			log.Fatalf("Failed to ping database: %v", err)
		}
		logger.Info("Database connection established")

		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		store = postgres.NewStore(db)
	}

	// Pricing defaults
	perYear, maxRate := cfg.Pricing.AgeDepreciationValues()
	pricer := pricing.New(domain.AgeDepreciation{PerYearRate: perYear, MaxRate: maxRate})

	// Initialize payment provider
	provider, err := payment.NewProvider(payment.Config{Type: cfg.Payment.Provider, Name: cfg.Payment.Name})
	if err != nil {
		logger.Error("Failed to initialize payment provider", "error", err)
		log.Fatalf("Failed to initialize payment provider: %v", err)
	}

	// Event bus and observers
	bus := events.NewBus()
	bus.SubscribeAll(events.LogObserver)
	var emailQueue *events.EmailQueue
	if cfg.EmailEnabled() {
		mailer := events.NewSendGridMailer(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
		emailQueue = events.NewEmailQueue(mailer, cfg.Email.Workers, cfg.Email.QueueSize)
		emailQueue.Start(ctx)
		for _, name := range events.DeskNotifiedEvents {
			bus.Subscribe(name, events.EmailObserver(emailQueue, cfg.Email.DeskEmail))
		}
		logger.Info("Fleet desk email notifications enabled", "to", cfg.Email.DeskEmail)
	}

	// Initialize Services
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
	quoteSvc := service.NewQuoteService(store, service.SystemClock, pricer)
	invoiceSvc := service.NewInvoiceService(store, provider, bus, service.SystemClock)
	resourceSvc := service.NewResourceService(store, bus, service.SystemClock)

	// HTTP server
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.CreateRateLimit), cfg.Server.CreateBurst)
	router := httpapi.NewRouter(httpapi.NewHandler(bookingSvc, quoteSvc, invoiceSvc, resourceSvc), limiter)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC health server
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpcapi.NewServer()
	if db != nil {
		go grpcServer.Watch(ctx, db.PingContext, 15*time.Second)
	}
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	grpcServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if emailQueue != nil {
		emailQueue.Wait()
	}
	fmt.Println("FleetRent Backend stopped")
}
