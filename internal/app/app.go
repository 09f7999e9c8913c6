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

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"crimecast/internal/config"
	"crimecast/internal/dataset"
	apierrors "crimecast/internal/errors"
	"crimecast/internal/exporter"
	"crimecast/internal/infrastructure"
	customMiddleware "crimecast/internal/middleware"
	"crimecast/internal/pipeline"
	"crimecast/internal/services"
	handlers "crimecast/internal/transport/http"
	"crimecast/pkg/contracts"
)

// compressLevel is the gzip level for JSON and CSV responses
const compressLevel = 5

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Dataset       *dataset.Dataset
	Pipeline      *pipeline.Pipeline
	Services      *ServiceContainer
	Router        *chi.Mux
	Server        *http.Server

	errorHandler *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Forecast *services.ForecastService
	Health   *services.HealthService
}

// NewApplication loads configuration and the dataset, then wires every
// component
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("model", contracts.ModelVersion),
		slog.String("build", contracts.GetFullVersionString()))

	paths, err := cfg.GetPaths("")
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()
	ds, err := dataset.Open(ctx, paths.DataFile, cfg.Data.DSN, cfg.Data.Table, dataset.Options{
		Columns: cfg.Data.Columns,
		Sheet:   cfg.Data.Sheet,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	return New(cfg, paths, ds, logger)
}

// New wires an application around an already loaded dataset
func New(cfg *config.Config, paths *config.Paths, ds *dataset.Dataset, logger *slog.Logger) (*Application, error) {
	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	stats := ds.Stats()
	infrastructure.RecordDatasetLoaded(context.Background(), metrics, stats.Source, stats.Records)

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Dataset:       ds,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	a.initializeServices()
	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the pipeline and the services on top of it
func (a *Application) initializeServices() {
	a.Pipeline = pipeline.New(a.Dataset, a.Config.Forecast,
		pipeline.WithLogger(infrastructure.WithComponent(a.Logger, "pipeline")),
		pipeline.WithMetrics(a.Metrics))

	serviceLogger := infrastructure.WithComponent(a.Logger, "services")
	a.Services = &ServiceContainer{
		Forecast: services.NewForecastService(a.Pipeline,
			exporter.NewReportExporter(a.Paths, serviceLogger), a.Metrics, serviceLogger),
		Health: services.NewHealthService(a.Dataset, a.Pipeline, serviceLogger),
	}
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Order: RequestID → RealIP → OTel → Logger → Recoverer → headers → limits
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.errorHandler))

	secure := customMiddleware.DefaultSecureHeaders()
	secure.DevMode = a.Config.Logging.Development
	r.Use(secure.Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.corsConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Use(customMiddleware.StripSlashes)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Route("/api", a.setupAPIRoutes)

	// Prometheus metrics endpoint, outside the request timeout
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes registers the /api routes
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
	r.Use(customMiddleware.Compress(compressLevel, "application/json", "application/problem+json", "text/csv"))

	forecastHandler := handlers.NewForecastHandler(a.Services.Forecast,
		a.Config.Forecast.DefaultHorizon, a.Logger, a.errorHandler)
	r.Mount("/states", forecastHandler.StateRoutes())
	r.Mount("/forecast", forecastHandler.ForecastRoutes())

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/health/ready", healthHandler.ReadinessCheck)
	r.Get("/health/live", healthHandler.LivenessCheck)
	r.Get("/version", healthHandler.Version)
}

// corsConfig allows the configured origins plus the local server itself
func (a *Application) corsConfig() customMiddleware.CORSConfig {
	self := fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
	origins := append([]string{self}, a.Config.Security.AllowedOrigins...)

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", origins))

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves HTTP until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// listener fails, then shuts down gracefully
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := a.Dataset.Stats()
	a.Logger.InfoContext(ctx, "Starting HTTP server",
		slog.String("address", a.Server.Addr),
		slog.String("dataset", stats.Source),
		slog.Int("states", stats.States),
		slog.Int("records", stats.Records),
		slog.String("level", a.Config.Logging.Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("Shutdown requested")
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Int("cached_forecasts", a.Pipeline.CacheStats().Entries),
		slog.Int64("fits", a.Pipeline.FitCount()))

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}
