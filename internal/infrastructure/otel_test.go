package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimecast/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(config.Default().Telemetry, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	// default config: no trace exporter, prometheus metrics
	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_Configurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.TelemetryConfig)
		wantErr bool
	}{
		{name: "stdout tracing", mutate: func(c *config.TelemetryConfig) { c.TraceExporter = "stdout" }},
		{name: "metrics disabled", mutate: func(c *config.TelemetryConfig) { c.MetricExporter = "none" }},
		{name: "unknown trace exporter", mutate: func(c *config.TelemetryConfig) { c.TraceExporter = "jaeger" }, wantErr: true},
		{name: "unknown metric exporter", mutate: func(c *config.TelemetryConfig) { c.MetricExporter = "statsd" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Telemetry
			tt.mutate(&cfg)

			providers, err := InitializeOTel(cfg, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestBusinessMetrics_ExposedOnPrometheus(t *testing.T) {
	providers, err := InitializeOTel(config.Default().Telemetry, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordPipelineRun(ctx, metrics, "partial", 150*time.Millisecond, []string{"insufficient_data"})
	RecordModelFit(ctx, metrics, true)
	RecordCacheLookup(ctx, metrics, false)
	RecordCacheLookup(ctx, metrics, true)
	RecordDatasetLoaded(ctx, metrics, "test.csv", 12)
	RecordExport(ctx, metrics, "csv")

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, "pipeline_runs_total")
	assert.Contains(t, text, "pipeline_warnings_total")
	assert.Contains(t, text, "forecast_cache_hits_total")
	assert.Contains(t, text, "forecast_model_fits_total")
	assert.Contains(t, text, "go_goroutines")
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordPipelineRun(ctx, nil, "ok", time.Second, nil)
		RecordStageDuration(ctx, nil, "series", time.Second)
		RecordModelFit(ctx, nil, false)
		RecordCacheLookup(ctx, nil, true)
		RecordDatasetLoaded(ctx, nil, "x", 1)
		RecordExport(ctx, nil, "xlsx")
		RecordSystemError(ctx, nil, "pipeline")
	})
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
