package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Pipeline metrics
	PipelineRunsTotal metric.Int64Counter
	PipelineDuration  metric.Float64Histogram
	PipelineWarnings  metric.Int64Counter
	StageDuration     metric.Float64Histogram

	// Forecast engine metrics
	ModelFitsTotal      metric.Int64Counter
	ForecastCacheHits   metric.Int64Counter
	ForecastCacheMisses metric.Int64Counter

	// Dataset and export metrics
	DatasetRecords metric.Int64Gauge
	ExportsTotal   metric.Int64Counter

	SystemErrors metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.PipelineRunsTotal, err = meter.Int64Counter(
		"pipeline_runs_total",
		metric.WithDescription("Total number of pipeline runs by outcome"),
	); err != nil {
		return nil, err
	}

	if m.PipelineDuration, err = meter.Float64Histogram(
		"pipeline_duration_seconds",
		metric.WithDescription("End-to-end pipeline duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.PipelineWarnings, err = meter.Int64Counter(
		"pipeline_warnings_total",
		metric.WithDescription("Warnings attached to pipeline reports by kind"),
	); err != nil {
		return nil, err
	}

	if m.StageDuration, err = meter.Float64Histogram(
		"pipeline_stage_duration_seconds",
		metric.WithDescription("Duration of each pipeline stage in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.ModelFitsTotal, err = meter.Int64Counter(
		"forecast_model_fits_total",
		metric.WithDescription("Model fits performed by the forecast engine"),
	); err != nil {
		return nil, err
	}

	if m.ForecastCacheHits, err = meter.Int64Counter(
		"forecast_cache_hits_total",
		metric.WithDescription("Forecast cache hits"),
	); err != nil {
		return nil, err
	}

	if m.ForecastCacheMisses, err = meter.Int64Counter(
		"forecast_cache_misses_total",
		metric.WithDescription("Forecast cache misses"),
	); err != nil {
		return nil, err
	}

	if m.DatasetRecords, err = meter.Int64Gauge(
		"dataset_records",
		metric.WithDescription("Records in the loaded dataset"),
	); err != nil {
		return nil, err
	}

	if m.ExportsTotal, err = meter.Int64Counter(
		"report_exports_total",
		metric.WithDescription("Report exports by format"),
	); err != nil {
		return nil, err
	}

	if m.SystemErrors, err = meter.Int64Counter(
		"system_errors_total",
		metric.WithDescription("Total number of system errors"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordPipelineRun records one pipeline execution. outcome is "ok",
// "partial" (warnings attached) or "error".
func RecordPipelineRun(ctx context.Context, metrics *BusinessMetrics, outcome string, duration time.Duration, warningKinds []string) {
	if metrics == nil {
		return
	}

	outcomeAttr := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.PipelineRunsTotal.Add(ctx, 1, outcomeAttr)
	metrics.PipelineDuration.Record(ctx, duration.Seconds(), outcomeAttr)

	for _, kind := range warningKinds {
		metrics.PipelineWarnings.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordStageDuration records how long one pipeline stage took
func RecordStageDuration(ctx context.Context, metrics *BusinessMetrics, stage string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.StageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordModelFit records a fit attempt of the forecast model
func RecordModelFit(ctx context.Context, metrics *BusinessMetrics, success bool) {
	if metrics == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	metrics.ModelFitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordCacheLookup records a forecast cache hit or miss
func RecordCacheLookup(ctx context.Context, metrics *BusinessMetrics, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.ForecastCacheHits.Add(ctx, 1)
		return
	}
	metrics.ForecastCacheMisses.Add(ctx, 1)
}

// RecordDatasetLoaded records the size of a freshly loaded dataset
func RecordDatasetLoaded(ctx context.Context, metrics *BusinessMetrics, source string, records int) {
	if metrics == nil {
		return
	}
	metrics.DatasetRecords.Record(ctx, int64(records), metric.WithAttributes(attribute.String("source", source)))
}

// RecordExport records a report export
func RecordExport(ctx context.Context, metrics *BusinessMetrics, format string) {
	if metrics == nil {
		return
	}
	metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
}

// RecordSystemError counts an unexpected error by component
func RecordSystemError(ctx context.Context, metrics *BusinessMetrics, component string) {
	if metrics == nil {
		return
	}
	metrics.SystemErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
