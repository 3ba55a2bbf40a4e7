package app

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"scadapulse/internal/config"
	apperrors "scadapulse/internal/errors"
	"scadapulse/internal/files"
	"scadapulse/internal/infrastructure"
	customMiddleware "scadapulse/internal/middleware"
	"scadapulse/internal/operations"
	"scadapulse/internal/services"
	"scadapulse/internal/storage"
	handlers "scadapulse/internal/transport/http"
	"scadapulse/internal/validation"
	ws "scadapulse/internal/websocket"
	"scadapulse/pkg/contracts"
)

// AppName is the service name used in logs.
const AppName = "scadapulse"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Components    *Components
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	StatusStore   storage.StatusStore
	WebSocketHub  *ws.Hub
	Runner        *operations.Runner
	Scheduler     *operations.Scheduler
	ReportService *services.ReportService
	HealthService *services.HealthService

	serverErr chan error
}

// NewApplication wires every component from cfg.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, contracts.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		serverErr:     make(chan error, 1),
	}
	if err := a.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.NewPipelineMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	components, err := NewComponents(ctx, a.Config, "", metrics, a.Logger)
	if err != nil {
		return err
	}
	a.Components = components
	components.Paths.LogPathResolution(a.Logger)
	if err := validation.NewFileValidator(a.Logger).ValidateDataDirectories(components.Paths); err != nil {
		return fmt.Errorf("startup check failed: %w", err)
	}

	store, err := storage.NewStatusStore(ctx, a.Config.Status, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create status store: %w", err)
	}
	a.StatusStore = store

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, wsMetrics)

	pipeline, err := components.Pipeline()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	a.Runner = operations.NewRunner(pipeline, store, a.WebSocketHub, operations.RunnerOptions{
		Location:     components.Location,
		DefaultUnits: a.Config.Schedule.Units,
		DefaultMode:  a.Config.Retrieval.Mode,
		RunTimeout:   a.Config.Server.RunTimeout,
	}, a.Logger)

	if a.Config.Schedule.Enabled {
		scheduler, err := operations.NewScheduler(a.Runner, a.Config.Schedule.Spec,
			a.Config.Schedule.Units, a.Config.Schedule.Mode, a.Logger)
		if err != nil {
			return err
		}
		a.Scheduler = scheduler

		if a.Config.Paths.RetentionDays > 0 {
			pruner := files.NewPruner(components.Paths, a.Config.Paths.RetentionDays, components.Location, a.Logger)
			err := scheduler.AddJob(a.Config.Schedule.PruneSpec, "retention", func(ctx context.Context) error {
				_, err := pruner.Prune(ctx, time.Now())
				return err
			})
			if err != nil {
				return err
			}
		}
	}

	a.ReportService = services.NewReportService(components.Exporter, components.Location, a.Logger)
	a.HealthService = services.NewHealthService(contracts.Version, store, a.WebSocketHub, a.Runner,
		a.Scheduler != nil, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	// The WebSocket route must not see middleware that wraps the
	// ResponseWriter, or the upgrade cannot hijack the connection.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer
		r.Use(customMiddleware.Telemetry(a.Components.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.Config.Server.CORSOrigins))
		if a.Config.Server.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Server.RateLimit.RPS,
				a.Config.Server.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Route("/api", func(r chi.Router) {
			validator := customMiddleware.NewValidator()
			r.Mount("/health", handlers.NewHealthHandler(a.HealthService, a.Logger).Routes())
			r.Mount("/runs", handlers.NewRunsHandler(a.Runner, validator, errorHandler, a.Logger).Routes())
			r.Mount("/reports", handlers.NewReportsHandler(a.ReportService, errorHandler, a.Logger).Routes())
			r.With(render.SetContentType(render.ContentTypeJSON)).Get("/version", func(w http.ResponseWriter, r *http.Request) {
				render.JSON(w, r, contracts.GetVersionInfo())
			})
		})
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)
	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start launches the background services and the HTTP server. Server
// failures are reported on Done.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("timezone", a.Components.Location.String()),
		slog.Bool("schedule", a.Scheduler != nil),
		slog.Bool("narrative", a.Components.Narrator != nil),
		slog.Bool("publish", a.Components.Publisher != nil))

	a.WebSocketHub.Start()
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serverErr <- err
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Done reports a fatal server error.
func (a *Application) Done() <-chan error {
	return a.serverErr
}

// Stop shuts everything down in reverse start order.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown error: %w", err))
		}
	}
	if err := a.Runner.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("runner shutdown error: %w", err))
	}
	a.WebSocketHub.Stop()
	if err := a.StatusStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("status store close error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and blocks until an interrupt or a server
// failure, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case runErr = <-a.Done():
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
