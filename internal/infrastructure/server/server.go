package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskmaster/taskapi/docs"
	httpHandlers "github.com/taskmaster/taskapi/internal/adapters/http"
	"github.com/taskmaster/taskapi/internal/adapters/repository"
	"github.com/taskmaster/taskapi/internal/application/services"
	"github.com/taskmaster/taskapi/internal/infrastructure/config"
	"github.com/taskmaster/taskapi/internal/infrastructure/database"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/infrastructure/validation"
)

// Server represents the HTTP server
type Server struct {
	echo     *echo.Echo
	config   *config.Config
	logger   *logger.Logger
	db       *database.DB
	registry *prometheus.Registry
}

// New creates the task API server
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	if db == nil {
		return nil, errors.New("server requires a database")
	}

	e := newEcho(appLogger)

	taskRepo := repository.NewTaskRepository(db, appLogger)
	taskService := services.NewTaskService(taskRepo, db, appLogger)
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	server.setupRoutes(taskHandler)

	return server, nil
}

// NewTodos creates the static todo listing server. It has no database.
func NewTodos(cfg *config.Config, appLogger *logger.Logger) *Server {
	server := &Server{
		echo:   newEcho(appLogger),
		config: cfg,
		logger: appLogger.WithComponent("todos"),
	}

	server.setupMiddleware()
	httpHandlers.NewTodoHandler().Register(server.echo)

	return server
}

func newEcho(appLogger *logger.Logger) *echo.Echo {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httpHandlers.ErrorHandler(appLogger)

	return e
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(taskHandler *httpHandlers.TaskHandler) {
	s.echo.GET("/", s.root)
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	s.echo.GET("/docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	s.echo.GET("/docs/*", echoSwagger.WrapHandler)

	taskHandler.Register(s.echo, s.sessionMiddleware())
}

// ServeHTTP lets the server be driven directly, as tests do.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on address until Shutdown is called.
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)

	srv := &http.Server{
		Addr:         address,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}
