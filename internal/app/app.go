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

	"propulsores/internal/config"
	"propulsores/internal/dataset"
	apierrors "propulsores/internal/errors"
	"propulsores/internal/infrastructure"
	customMiddleware "propulsores/internal/middleware"
	"propulsores/internal/services"
	handlers "propulsores/internal/transport/http"
	"propulsores/pkg/contracts"
)

var _ dataset.Recorder = (*infrastructure.DashboardMetrics)(nil)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	Router        *chi.Mux
	Server        *http.Server
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	System        *infrastructure.SystemMetrics
	Cache         *dataset.Cache
	ErrorHandler  *apierrors.ErrorHandler
	Services      *ServiceContainer

	sources []dataset.Source
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// Option customises NewApplication.
type Option func(*Application)

// WithSources replaces the configured spreadsheet sources.
func WithSources(sources ...dataset.Source) Option {
	return func(a *Application) { a.sources = sources }
}

// NewApplication wires the dashboard from cfg.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	app := &Application{
		Config:       cfg,
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, false),
	}
	for _, opt := range opts {
		opt(app)
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", cfg.Server.Port))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	app.OTelProviders = otelProviders

	if app.Metrics, err = infrastructure.NewDashboardMetrics(otelProviders.Meter); err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the loader, the snapshot cache and the services
func (a *Application) initializeServices(ctx context.Context) error {
	if a.sources == nil {
		sources, err := dataset.NewSources(ctx, a.Config.Sources, a.Config.Fetch)
		if err != nil {
			return fmt.Errorf("failed to build sources: %w", err)
		}
		a.sources = sources
	}

	loader := dataset.NewLoader(a.sources,
		dataset.WithLogger(a.Logger),
		dataset.WithRecorder(a.Metrics),
		dataset.WithTracer(a.OTelProviders.Tracer),
	)
	a.Cache = dataset.NewCache(a.Config.Cache.TTL, dataset.WithCacheRecorder(a.Metrics))

	dashboard := services.NewDashboardService(a.Cache, loader.Load, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithTracer(a.OTelProviders.Tracer),
	)

	system, err := infrastructure.NewSystemMetrics(a.OTelProviders.Meter, time.Now(), dashboard.SnapshotStats)
	if err != nil {
		return fmt.Errorf("failed to register system metrics: %w", err)
	}
	a.System = system

	a.Services = &ServiceContainer{
		Dashboard: dashboard,
		Health:    services.NewHealthService(contracts.Version, dashboard.SnapshotStats, a.Config.Cache.TTL, system, a.Logger),
	}
	return nil
}

// setupRouter builds the middleware chain and mounts the handlers
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → Logger → Recoverer → security → CORS → OTel → compression
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.Config.Security, a.Logger))
	}
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.Compress(5))

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Probes and scraping stay outside rate limiting
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Mount(config.HealthEndpoint, health.Routes())
	r.Get(config.APIBasePath+"/version", health.Version)
	r.Method(http.MethodGet, config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	validator := customMiddleware.NewValidator()
	r.Group(func(r chi.Router) {
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Method(http.MethodGet, "/", handlers.NewPageHandler(a.Services.Dashboard, validator, a.Logger, a.ErrorHandler))
		r.Mount(config.APIBasePath, handlers.NewDashboardHandler(a.Services.Dashboard, validator, a.Logger, a.ErrorHandler).Routes())
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Warm loads the first snapshot. Failures are logged; the next request
// retries the load.
func (a *Application) Warm(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	start := time.Now()
	if err := a.Services.Dashboard.Warm(ctx); err != nil {
		infrastructure.WithError(a.Logger, err).WarnContext(ctx, "initial dataset load failed",
			slog.Duration("duration", time.Since(start)))
	}
}

// Start starts the server and warms the cache in the background
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Duration("cache_ttl", a.Config.Cache.TTL))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	go a.Warm(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.System != nil {
		if err := a.System.Stop(); err != nil {
			a.Logger.ErrorContext(ctx, "Error stopping system metrics", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
