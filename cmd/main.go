/**
 * @description
 * This is the main entry point for the billing service worker. It is a
 * non-HTTP, long-running process that wires configuration, the PostgreSQL
 * store, the RabbitMQ event producer, and the cron scheduler that runs the
 * daily bill cycle. Request-facing layers consume the ledger and query
 * services as a library and are wired separately.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/cbm/billing-service/internal/app"
	"github.com/cbm/billing-service/internal/config"
	"github.com/cbm/billing-service/internal/store"
	"github.com/cbm/billing-service/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load a local .env file when present, then the environment
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	billRunAmount, err := decimal.NewFromString(cfg.BillRunAmount)
	if err != nil {
		logger.Error("invalid BILL_RUN_AMOUNT", "value", cfg.BillRunAmount, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to work with transaction poolers
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	pgStore := store.NewPostgresStore(dbpool)
	if err := pgStore.EnsureSchema(ctx); err != nil {
		logger.Error("unable to ensure database schema", "error", err)
		os.Exit(1)
	}

	// Connect to RabbitMQ, falling back to a no-op publisher so the worker
	// still runs when the broker is unavailable.
	var events app.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.BillingEventsExch)
		if err != nil {
			logger.Warn("rabbitmq unavailable, billing events will not be published", "error", err)
			events = rabbitmq.EventProducerFallback{}
		} else {
			defer producer.Close()
			events = producer
		}
	} else {
		events = rabbitmq.EventProducerFallback{}
	}

	// Initialize application layers
	issuer := app.NewBillIssuer(pgStore, events, logger)
	jobs := app.NewJobs(pgStore.Accounts(), issuer, billRunAmount, logger)
	scheduler := app.NewScheduler(jobs, logger)

	// Start the cron scheduler in the background
	scheduler.Start(cfg.BillRunSchedule)
	logger.Info("scheduler started", "schedule", cfg.BillRunSchedule)

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("scheduler stopped gracefully")
}
