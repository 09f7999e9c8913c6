package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"crimecast/internal/config"
	apperrors "crimecast/internal/errors"
	"crimecast/internal/infrastructure"
	"crimecast/pkg/contracts/domain"
)

// Request is one forecast computation
type Request struct {
	State    string
	Category string
	Horizon  int
	Series   domain.TimeSeries
}

// Engine validates requests and runs them through a Forecaster at most once
// per Key. Failed fits are remembered too, so a degenerate series is not
// refitted on every request.
type Engine struct {
	forecaster Forecaster
	cache      Cache
	group      singleflight.Group
	failures   sync.Map // Key -> error
	minPoints  int
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
	tracer     trace.Tracer
	fits       atomic.Int64
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithMinPoints overrides the shortest series the engine accepts
func WithMinPoints(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.minPoints = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records fits and cache lookups
func WithMetrics(m *infrastructure.BusinessMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for fit spans
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// NewEngine creates an engine. A nil cache gets an unbounded MemoryCache.
func NewEngine(f Forecaster, cache Cache, opts ...EngineOption) *Engine {
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	e := &Engine{
		forecaster: f,
		cache:      cache,
		minPoints:  config.MinForecastPoints,
		logger:     slog.Default(),
		tracer:     otel.Tracer(infrastructure.InstrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forecast returns the forecast for req, computing it only if no result or
// failure is recorded for the same key.
func (e *Engine) Forecast(ctx context.Context, req Request) (domain.ForecastResult, error) {
	if req.Horizon < config.MinHorizon || req.Horizon > config.MaxHorizon {
		return domain.ForecastResult{}, apperrors.NewAppValidationError(
			fmt.Sprintf("horizon must be between %d and %d, got %d", config.MinHorizon, config.MaxHorizon, req.Horizon)).
			WithContext("horizon", req.Horizon)
	}
	if n := req.Series.Len(); n < e.minPoints {
		return domain.ForecastResult{}, apperrors.NewInsufficientDataError(n, e.minPoints).
			WithContext("series", req.Series.Name)
	}

	key := NewKey(req.State, req.Category, req.Horizon, req.Series)

	if result, ok := e.cache.Get(key); ok {
		infrastructure.RecordCacheLookup(ctx, e.metrics, true)
		return clone(result), nil
	}
	if err, ok := e.failures.Load(key); ok {
		infrastructure.RecordCacheLookup(ctx, e.metrics, true)
		return domain.ForecastResult{}, err.(error)
	}
	infrastructure.RecordCacheLookup(ctx, e.metrics, false)

	v, err, shared := e.group.Do(key.String(), func() (interface{}, error) {
		if result, ok := e.cache.Get(key); ok {
			return result, nil
		}
		return e.compute(ctx, key, req)
	})
	if err != nil {
		return domain.ForecastResult{}, err
	}
	if shared {
		e.logger.DebugContext(ctx, "shared in-flight forecast", slog.String("key", key.String()))
	}
	return clone(v.(domain.ForecastResult)), nil
}

func (e *Engine) compute(ctx context.Context, key Key, req Request) (domain.ForecastResult, error) {
	ctx, span := e.tracer.Start(ctx, "forecast.fit", trace.WithAttributes(
		attribute.String("forecast.state", req.State),
		attribute.String("forecast.category", req.Category),
		attribute.Int("forecast.horizon", req.Horizon),
		attribute.Int("forecast.points", req.Series.Len()),
	))
	defer span.End()

	start := time.Now()
	e.fits.Add(1)

	result, err := e.fitAndPredict(ctx, req)
	infrastructure.RecordModelFit(ctx, e.metrics, err == nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// Cancellation says nothing about the series.
		if ctx.Err() == nil {
			e.failures.Store(key, err)
		}
		e.logger.WarnContext(ctx, "forecast failed",
			slog.String("series", req.Series.Name),
			slog.Int("horizon", req.Horizon),
			slog.String("error", err.Error()))
		return domain.ForecastResult{}, err
	}

	result.State = req.State
	result.Category = req.Category
	e.cache.Set(key, result)

	e.logger.InfoContext(ctx, "forecast computed",
		slog.String("series", req.Series.Name),
		slog.Int("points", req.Series.Len()),
		slog.Int("horizon", req.Horizon),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (e *Engine) fitAndPredict(ctx context.Context, req Request) (domain.ForecastResult, error) {
	model, err := e.forecaster.Fit(ctx, req.Series)
	if err != nil {
		return domain.ForecastResult{}, asModelFit(err)
	}
	result, err := e.forecaster.Predict(ctx, model, req.Horizon)
	if err != nil {
		return domain.ForecastResult{}, asModelFit(err)
	}
	return result, nil
}

// Components returns the trend and yearly component at every timestamp of
// the result.
func (e *Engine) Components(result domain.ForecastResult) []domain.ComponentPoint {
	out := make([]domain.ComponentPoint, len(result.Points))
	for i, p := range result.Points {
		out[i] = domain.ComponentPoint{
			Timestamp: p.Timestamp,
			Trend:     p.Trend,
			Yearly:    p.Yearly,
		}
	}
	return out
}

// FitCount returns how many fits the engine has started
func (e *Engine) FitCount() int64 {
	return e.fits.Load()
}

// CacheStats exposes the underlying cache statistics
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// asModelFit wraps any failure that is not already classified. Context
// errors pass through so the transport layer can map them to timeouts.
func asModelFit(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if apperrors.TypeOf(err) != "" {
		return err
	}
	return apperrors.NewModelFitError("model fit failed", err)
}

func clone(r domain.ForecastResult) domain.ForecastResult {
	r.Points = append([]domain.ForecastPoint(nil), r.Points...)
	return r
}
