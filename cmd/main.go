package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "loan-feature-engine/docs"
	"loan-feature-engine/internal/api"
	mw "loan-feature-engine/internal/api/middleware"
	"loan-feature-engine/internal/batch"
	"loan-feature-engine/internal/config"
	"loan-feature-engine/internal/dataset"
	"loan-feature-engine/internal/domain/customer"
	"loan-feature-engine/internal/domain/loan"
	"loan-feature-engine/internal/event"
	"loan-feature-engine/internal/feature"
	"loan-feature-engine/internal/infrastructure/database/postgres"
	"loan-feature-engine/internal/infrastructure/logging"
	"loan-feature-engine/internal/infrastructure/sheets"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const defaultJobTimeout = 5 * time.Minute

// @title Loan Feature Engine API
// @version 1.0
// @description Customer and loan feature engineering over a relational row store, with spreadsheet publishing.
// @BasePath /api/v1

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	store := postgres.NewTableStore(dbPool, logger)
	customerService, loanService, seeder := initializeDomain(store, cfg, logger)

	events, closeEvents := initializeEvents(cfg, logger)
	defer closeEvents()

	featureService := initializeFeatures(store, events, cfg, logger)

	cronScheduler := startBatchJobs(cfg, logger, batch.NewFeatureRefreshJob(featureService, cfg.Batch.Publish, logger))

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	limiter := mw.NewRateLimiter(cfg.Server.RateLimit, logger)
	go limiter.Run(limiterCtx)

	router := api.SetupRouter(api.Services{
		Customers: customerService,
		Loans:     loanService,
		Features:  featureService,
		Seeder:    seeder,
		Inspector: store,
	}, limiter, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

func initializeDomain(store *postgres.TableStore, cfg *config.Config, logger *slog.Logger) (customer.CustomerService, loan.LoanService, *dataset.Seeder) {
	logger.Info("Initializing application components...")
	customerRepo := postgres.NewCustomerRepository(store, logger)
	loanRepo := postgres.NewLoanRepository(store, logger)

	customerService := customer.NewCustomerService(customerRepo, logger)
	loanService := loan.NewLoanService(loanRepo, customerService, logger)
	seeder := dataset.NewSeeder(store, cfg.Data.SourcePath, logger)
	return customerService, loanService, seeder
}

// initializeEvents falls back to a no-op publisher when RabbitMQ is disabled
// or unreachable; feature generation never depends on the broker.
func initializeEvents(cfg *config.Config, logger *slog.Logger) (event.EventPublisher, func()) {
	noop := func() {}
	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ disabled, feature events will only be logged")
		return event.NewNoopPublisher(logger), noop
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ, feature events will only be logged", slog.Any("error", err))
		return event.NewNoopPublisher(logger), noop
	}
	publisher, err := event.NewRabbitMQEventPublisher(event.ConnectionFrom(conn), cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey, logger)
	if err != nil {
		logger.Error("Failed to set up RabbitMQ publisher", slog.Any("error", err))
		_ = conn.Close()
		return event.NewNoopPublisher(logger), noop
	}

	logger.Info("RabbitMQ publisher ready", "exchange", cfg.RabbitMQ.Exchange)
	return publisher, func() {
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", slog.Any("error", err))
		}
	}
}

func initializeFeatures(store *postgres.TableStore, events event.EventPublisher, cfg *config.Config, logger *slog.Logger) feature.Service {
	clock, err := feature.ClockFrom(cfg.Features.ReferenceTime)
	if err != nil {
		logger.Error("Invalid features.referenceTime", slog.Any("error", err))
		os.Exit(1)
	}

	var publisher feature.SheetPublisher
	if cfg.Sheets.Enabled {
		p, err := sheets.NewPublisher(context.Background(), cfg.Sheets, logger)
		if err != nil {
			logger.Error("Failed to initialize spreadsheet publisher", slog.Any("error", err))
			os.Exit(1)
		}
		publisher = p
	} else {
		logger.Info("Spreadsheet publishing disabled")
	}

	loader := feature.NewLoader(cfg.Data.SourcePath, store, logger)
	return feature.NewService(loader, events, publisher, feature.Options{
		Features: cfg.Features,
		Tabs:     cfg.Sheets.Tabs,
		MaxDepth: feature.DefaultMaxDepth,
		Clock:    clock,
	}, logger)
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	logger.Info("Setting up HTTP server...", "port", cfg.Server.Port)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr)
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
			return
		}
		logger.Info("Server closed gracefully.")
		serverErrors <- nil
	}()
	return srv, serverErrors, shutdownChan
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	if cronScheduler != nil {
		cronCtx := cronScheduler.Stop()
		select {
		case <-cronCtx.Done():
			logger.Info("Cron scheduler stopped gracefully.")
		case <-time.After(15 * time.Second):
			logger.Warn("Cron scheduler shutdown timed out.")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

// startBatchJobs returns nil when no refresh schedule is configured.
func startBatchJobs(cfg *config.Config, logger *slog.Logger, refreshJob *batch.FeatureRefreshJob) *cron.Cron {
	scheduleSpec := cfg.Batch.FeatureRefreshSchedule
	if scheduleSpec == "" {
		logger.Info("Feature refresh schedule not configured, batch refresh disabled")
		return nil
	}
	jobTimeout := cfg.Batch.FeatureRefreshTimeout
	if jobTimeout <= 0 {
		jobTimeout = defaultJobTimeout
	}

	c := cron.New()
	jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
		jobLogger := logger.With("job_name", "FeatureRefresh")
		jobLogger.Info("Cron triggered: running feature refresh job.")

		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if runErr := refreshJob.Run(ctx); runErr != nil {
			jobLogger.Error("Feature refresh job finished with error", slog.Any("error", runErr))
		} else {
			jobLogger.Info("Feature refresh job finished successfully.")
		}
	}))
	if err != nil {
		logger.Error("Failed to schedule feature refresh job", "schedule", scheduleSpec, slog.Any("error", err))
		return nil
	}

	logger.Info("Scheduled feature refresh job", "schedule", scheduleSpec, "job_id", jobID)
	c.Start()
	return c
}
