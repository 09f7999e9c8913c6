package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"crimecast/internal/analytics"
	"crimecast/internal/config"
	"crimecast/internal/dataset"
	apperrors "crimecast/internal/errors"
	"crimecast/internal/forecast"
	"crimecast/internal/infrastructure"
	"crimecast/internal/series"
	"crimecast/pkg/contracts/domain"
)

// Pipeline wires dataset, builder, engine and derived metrics
type Pipeline struct {
	ds         *dataset.Dataset
	builder    *series.Builder
	engine     *forecast.Engine
	thresholds analytics.Thresholds
	validate   *validator.Validate
	logger     *slog.Logger
	tracer     *runTracer
}

type options struct {
	logger     *slog.Logger
	metrics    *infrastructure.BusinessMetrics
	cache      forecast.Cache
	forecaster forecast.Forecaster
}

// Option configures a Pipeline
type Option func(*options)

// WithLogger sets the logger passed down to every stage
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records run, stage, fit and cache metrics
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCache replaces the default forecast cache
func WithCache(c forecast.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithForecaster replaces the additive model
func WithForecaster(f forecast.Forecaster) Option {
	return func(o *options) { o.forecaster = f }
}

// New builds a pipeline over ds using the forecast configuration
func New(ds *dataset.Dataset, cfg config.ForecastConfig, opts ...Option) *Pipeline {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cache == nil {
		o.cache = forecast.NewMemoryCache(cfg.CacheSize)
	}
	if o.forecaster == nil {
		o.forecaster = forecast.NewAdditiveModel(forecast.ParamsFromConfig(cfg))
	}

	logger := o.logger.With(slog.String("component", "pipeline"))

	return &Pipeline{
		ds: ds,
		builder: series.NewBuilder(ds,
			series.WithMinPoints(cfg.MinPoints),
			series.WithLogger(logger)),
		engine: forecast.NewEngine(o.forecaster, o.cache,
			forecast.WithMinPoints(cfg.MinPoints),
			forecast.WithLogger(logger),
			forecast.WithMetrics(o.metrics)),
		thresholds: analytics.ThresholdsFromConfig(cfg),
		validate:   validator.New(),
		logger:     logger,
		tracer:     newRunTracer(o.metrics),
	}
}

// Run executes the pipeline for one selection
func (p *Pipeline) Run(ctx context.Context, sel domain.Selection) (report *domain.Report, err error) {
	start := time.Now()
	ctx, span := p.tracer.traceRun(ctx, sel)
	defer func() {
		p.tracer.completeRun(ctx, span, report, err, start)
	}()

	if err := p.validateSelection(sel); err != nil {
		return nil, err
	}

	report = &domain.Report{Selection: sel}

	// Stage 1: series
	_, done := p.tracer.traceStage(ctx, StageSeries)
	ts, buildErr := p.builder.Build(sel)
	done(buildErr)
	report.Series = ts

	forecastable := true
	if buildErr != nil {
		if !apperrors.IsInsufficientData(buildErr) {
			return nil, buildErr
		}
		forecastable = false
		report.AddWarning(domain.WarningInsufficientData, insufficientMessage(buildErr, sel))
	}

	report.YoY = analytics.YearOverYear(ts)

	_, done = p.tracer.traceStage(ctx, StageDistribution)
	dist, distErr := analytics.CategoryDistribution(p.ds, sel.State)
	done(distErr)
	switch {
	case distErr != nil:
		return nil, distErr
	case len(dist.Shares) == 0:
		report.AddWarning(domain.WarningNoDistribution,
			fmt.Sprintf("No crime type data available for %s in %d.", sel.State, dist.Year))
	default:
		report.Distribution = &dist
	}

	if !forecastable {
		p.logRun(ctx, report, start)
		return report, nil
	}

	// Stage 2: forecast
	stageCtx, done := p.tracer.traceStage(ctx, StageForecast)
	result, fcErr := p.engine.Forecast(stageCtx, forecast.Request{
		State:    sel.State,
		Category: sel.Category,
		Horizon:  sel.Horizon,
		Series:   ts,
	})
	done(fcErr)
	if fcErr != nil {
		switch {
		case apperrors.IsModelFit(fcErr):
			report.AddWarning(domain.WarningModelFit,
				fmt.Sprintf("Could not fit a forecast model for %s: %s", ts.Name, fitMessage(fcErr)))
			p.logRun(ctx, report, start)
			return report, nil
		case apperrors.IsInsufficientData(fcErr):
			report.AddWarning(domain.WarningInsufficientData, insufficientMessage(fcErr, sel))
			p.logRun(ctx, report, start)
			return report, nil
		default:
			return nil, fcErr
		}
	}
	report.Forecast = &result

	// Stage 3: derived metrics
	_, done = p.tracer.traceStage(ctx, StageDerived)
	report.Components = p.engine.Components(result)
	report.Seasonality = analytics.Seasonality(report.Components)
	if insight, ok := analytics.Insight(ts, result, p.thresholds); ok {
		report.Insight = &insight
	} else {
		report.AddWarning(domain.WarningNoFuture, "Not enough forecast data to generate insights.")
	}
	done(nil)

	p.logRun(ctx, report, start)
	return report, nil
}

// Dataset returns the dataset the pipeline runs on
func (p *Pipeline) Dataset() *dataset.Dataset {
	return p.ds
}

// States lists the selectable states
func (p *Pipeline) States() []string {
	return p.ds.States()
}

// Categories lists the crime categories recorded for a state
func (p *Pipeline) Categories(state string) ([]string, error) {
	return p.ds.Categories(state)
}

// CacheStats reports forecast cache usage
func (p *Pipeline) CacheStats() forecast.CacheStats {
	return p.engine.CacheStats()
}

// FitCount returns the number of model fits performed so far
func (p *Pipeline) FitCount() int64 {
	return p.engine.FitCount()
}

func (p *Pipeline) validateSelection(sel domain.Selection) error {
	err := p.validate.Struct(sel)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewAppValidationError(err.Error())
	}

	appErr := apperrors.NewAppValidationError("invalid selection")
	for _, fe := range verrs {
		switch fe.Field() {
		case "Horizon":
			appErr.Message = fmt.Sprintf("horizon must be between %d and %d", config.MinHorizon, config.MaxHorizon)
			appErr.WithContext("horizon", sel.Horizon)
		case "State":
			appErr.Message = "state is required"
		}
		appErr.WithContext(fe.Field(), fe.Tag())
	}
	return appErr
}

func (p *Pipeline) logRun(ctx context.Context, report *domain.Report, start time.Time) {
	attrs := []any{
		slog.String("state", report.Selection.State),
		slog.String("category", report.Selection.Category),
		slog.Int("horizon", report.Selection.Horizon),
		slog.Int("points", report.Series.Len()),
		slog.Bool("forecast", report.HasForecast()),
		slog.Int("warnings", len(report.Warnings)),
		slog.Duration("duration", time.Since(start)),
	}
	if len(report.Warnings) > 0 {
		p.logger.WarnContext(ctx, "pipeline completed with warnings", attrs...)
		return
	}
	p.logger.InfoContext(ctx, "pipeline completed", attrs...)
}

func insufficientMessage(err error, sel domain.Selection) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if n, ok := appErr.Context["points"].(int); ok {
			return fmt.Sprintf("Not enough data points to forecast %s (%d years available). Try another selection.",
				series.Name(sel), n)
		}
	}
	return fmt.Sprintf("Not enough data points to forecast %s. Try another selection.", series.Name(sel))
}

// fitMessage describes a MODEL_FIT failure without the error type prefix
func fitMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return appErr.Message
}
