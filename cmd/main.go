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

	"credit-engine/internal/api"
	"credit-engine/internal/batch"
	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/database/memory"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/infrastructure/lock"
	"credit-engine/internal/infrastructure/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Credit Engine API
// @version 1.0
// @description Customer registration, credit scoring and loan approval.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /
func main() {
	cfg, logger := initializeApp()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, err := initializeStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize record store", "error", err)
		os.Exit(1)
	}
	defer repos.close()

	locker, closeLocker, err := initializeLocker(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Error("Failed to initialize lock backend", "error", err)
		os.Exit(1)
	}
	defer closeLocker()

	publisher, closePublisher, err := initializePublisher(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("Failed to initialize event publisher", "error", err)
		os.Exit(1)
	}
	defer closePublisher()

	customerService, loanService := initializeServices(repos, locker, publisher, logger)

	ingestionJob := batch.NewIngestionJob(cfg.Ingestion, repos.customers, repos.loans, locker, logger)
	cronScheduler := startBatchJobs(cfg, logger, ingestionJob)
	if cfg.Ingestion.RunOnStartup {
		runID := ingestionJob.Start(ctx)
		logger.Info("Started ingestion run on startup", "run_id", runID)
	}

	router := api.SetupRouter(ctx, loanService, customerService, ingestionJob, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(srv, cronScheduler, ingestionJob, shutdownChan, serverErrors, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

type repositories struct {
	customers customer.Repository
	loans     loan.Repository
	close     func()
}

func initializeStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("Using in-memory record store; data is lost on restart")
		store := memory.NewStore()
		return &repositories{customers: store.Customers(), loans: store.Loans(), close: func() {}}, nil

	case config.DriverPostgres, "":
		logger.Info("Initializing database connection pool...")
		pool, err := postgres.NewConnectionPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return &repositories{
			customers: postgres.NewCustomerRepository(pool, logger),
			loans:     postgres.NewLoanRepository(pool, logger),
			close: func() {
				logger.Info("Closing database connection pool...")
				pool.Close()
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func initializeLocker(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (loan.Locker, func(), error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, loan creation is serialized in-process only")
		return lock.NewLocalLocker(), func() {}, nil
	}

	client, err := lock.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using Redis locks", "addr", cfg.Addr, "ttl", cfg.LockTTL)
	return lock.NewRedisLocker(client, cfg.LockTTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close Redis client", "error", err)
		}
	}, nil
}

func initializePublisher(cfg config.RabbitMQConfig, logger *slog.Logger) (event.Publisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("RabbitMQ disabled, domain events are only logged")
		return event.NewNoopPublisher(logger), func() {}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	pub, err := event.NewRabbitMQPublisher(conn, cfg.ExchangeName, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return pub, func() {
		logger.Info("Closing RabbitMQ connection...")
		if err := conn.Close(); err != nil {
			logger.Warn("Failed to close RabbitMQ connection", "error", err)
		}
	}, nil
}

func initializeServices(repos *repositories, locker loan.Locker, pub event.Publisher, logger *slog.Logger) (customer.CustomerService, loan.LoanService) {
	logger.Info("Initializing application components...")
	customerService := customer.NewCustomerService(repos.customers, pub, logger)
	loanService := loan.NewLoanService(repos.loans, customerService, locker, pub, time.Now, logger)
	return customerService, loanService
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
		logger.Info(fmt.Sprintf("Server listening on port %d", cfg.Server.Port))
		err := srv.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			serverErrors <- err
		} else {
			logger.Info("Server closed gracefully.")
			serverErrors <- nil
		}
	}()
	return srv, serverErrors, shutdownChan
}

type backgroundWork interface {
	Wait()
}

func handleShutdown(srv *http.Server, cronScheduler *cron.Cron, ingestion backgroundWork, shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) {
	logger.Info("Shutdown handler started. Waiting for signal or server error...")

	var triggerReason string
	select {
	case sig := <-shutdownChan:
		triggerReason = "signal: " + sig.String()
		logger.Info("Shutdown signal received.", "signal", sig.String())
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		triggerReason = "server exited"
		logger.Info("Server goroutine finished before signal.", "error", err)
	}

	logger.Info("Starting graceful shutdown...", "trigger", triggerReason)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", "error", err)
		if err := srv.Close(); err != nil {
			logger.Error("HTTP server forced close failed", "error", err)
		}
	} else {
		logger.Info("HTTP server gracefully stopped.")
	}

	logger.Info("Stopping cron scheduler...")
	cronCtx := cronScheduler.Stop()
	select {
	case <-cronCtx.Done():
		logger.Info("Cron scheduler stopped gracefully.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out.")
	}

	logger.Info("Waiting for background ingestion runs...")
	done := make(chan struct{})
	go func() {
		ingestion.Wait()
		close(done)
	}()
	select {
	case <-done:
		logger.Info("Background ingestion runs finished.")
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for background ingestion runs.")
	}

	logger.Info("Waiting for server goroutine to confirm exit...")
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Server goroutine exited with unexpected error after shutdown", "error", err)
		} else {
			logger.Info("Server goroutine confirmed exit.")
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}

	logger.Info("Application shutdown process complete.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, job *batch.IngestionJob) *cron.Cron {
	logger.Info("Initializing batch job scheduler...")
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))

	scheduleSpec := cfg.Ingestion.Schedule
	if scheduleSpec == "" {
		logger.Info("Ingestion schedule not configured, runs are only triggered on demand")
	} else {
		jobID, err := c.AddJob(scheduleSpec, cron.FuncJob(func() {
			jobLogger := logger.With("job_name", "Ingestion")
			jobLogger.Info("Cron triggered: Running ingestion job.")

			if runErr := job.Run(context.Background()); runErr != nil {
				jobLogger.Error("Ingestion job finished with error", slog.Any("error", runErr))
			}
		}))
		if err != nil {
			logger.Error("Failed to schedule ingestion job", "schedule", scheduleSpec, slog.Any("error", err))
		} else {
			logger.Info("Scheduled ingestion job", "schedule", scheduleSpec, "job_id", jobID)
		}
	}

	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
