package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/taskapi/internal/infrastructure/config"
	"github.com/taskmaster/taskapi/internal/infrastructure/database"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/infrastructure/server"
)

// Set at build time with -ldflags "-X .../commands.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the task API server",
		Long:  "Connect to the database, create the tasks table if it is missing, and serve the task API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewServeTodosCommand creates the serve-todos command
func NewServeTodosCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-todos",
		Short: "Start the static todo listing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTodos(cmd.Context())
		},
	}
}

// NewInitDBCommand creates the initdb command
func NewInitDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the tasks table and index if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitDB(cmd.Context())
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("taskapi %s (commit %s)\n", Version, GitCommit)
		},
	}
}

func setup(load func() (*config.Config, error)) (*config.Config, *logger.Logger, error) {
	cfg, err := load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

func connect(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) (*database.DB, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	appLogger.Infow("Database ready",
		"driver", db.Driver(),
		"host", cfg.Database.Host(),
	)

	return db, nil
}

func runServer(ctx context.Context) error {
	cfg, appLogger, err := setup(config.Load)
	if err != nil {
		return err
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connect(ctx, cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Errorw("Startup failed")
		return err
	}
	defer db.Close()

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting task API",
		"title", cfg.App.Title,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	return serveUntilDone(ctx, srv, cfg.Server.Address(), cfg.Server.ShutdownTimeout, appLogger)
}

func runTodos(ctx context.Context) error {
	cfg, appLogger, err := setup(config.LoadTodos)
	if err != nil {
		return err
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewTodos(cfg, appLogger)
	return serveUntilDone(ctx, srv, cfg.Todos.Address(cfg.Server.Host), cfg.Server.ShutdownTimeout, appLogger)
}

func runInitDB(ctx context.Context) error {
	cfg, appLogger, err := setup(config.Load)
	if err != nil {
		return err
	}
	defer appLogger.Close()

	db, err := connect(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer db.Close()

	appLogger.Infow("Schema is up to date")
	return nil
}

type runner interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// serveUntilDone runs srv until ctx is cancelled, then drains in-flight
// requests for at most timeout.
func serveUntilDone(ctx context.Context, srv runner, address string, timeout time.Duration, appLogger *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	appLogger.Infow("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	appLogger.Infow("Server stopped")
	return nil
}
