package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crimecast/internal/chart"
	"crimecast/internal/config"
	"crimecast/internal/dataset"
	apperrors "crimecast/internal/errors"
	"crimecast/internal/pipeline"
	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts"
	"crimecast/pkg/contracts/domain"
)

func newTestServices(t *testing.T, records []domain.RawRecord) (*ForecastService, *HealthService, *pipeline.Pipeline) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	p := pipeline.New(dataset.New("fixture", records), config.Default().Forecast, pipeline.WithLogger(logger))
	return NewForecastService(p, nil, nil, logger), NewHealthService(p.Dataset(), p, logger), p
}

func TestForecastService_Lookups(t *testing.T) {
	fs, _, _ := newTestServices(t, testutil.SampleRecords())
	ctx := context.Background()

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, fs.States(ctx))

	cats, err := fs.Categories(ctx, "Alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"Murder", "Rape"}, cats)

	_, err = fs.Categories(ctx, "Nowhere")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestForecastService_Forecast(t *testing.T) {
	fs, _, _ := newTestServices(t, testutil.SampleRecords())

	report, err := fs.Forecast(context.Background(), domain.Selection{State: "Alpha", Horizon: 3})
	require.NoError(t, err)
	assert.Len(t, report.FutureForecast(), 3)

	_, err = fs.Forecast(context.Background(), domain.Selection{State: "Alpha", Horizon: 42})
	assert.True(t, apperrors.IsValidation(err))
}

func TestForecastService_Exports(t *testing.T) {
	fs, _, p := newTestServices(t, testutil.SampleRecords())
	ctx := context.Background()
	sel := domain.Selection{State: "Alpha", Horizon: 2}

	var csvBuf bytes.Buffer
	require.NoError(t, fs.ExportCSV(ctx, sel, &csvBuf))
	assert.Contains(t, csvBuf.String(), "Year,Predicted Crimes,Lower Bound,Upper Bound")
	assert.Contains(t, csvBuf.String(), "2006,")

	var xlsxBuf bytes.Buffer
	require.NoError(t, fs.ExportXLSX(ctx, sel, &xlsxBuf))
	f, err := excelize.OpenReader(&xlsxBuf)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Forecast")

	var png bytes.Buffer
	require.NoError(t, fs.Chart(ctx, sel, chart.KindForecast, chart.Options{Width: 400, Height: 200}, &png))
	assert.NotZero(t, png.Len())

	assert.Equal(t, int64(1), p.FitCount())
}

func TestForecastService_ChartWithoutData(t *testing.T) {
	fs, _, _ := newTestServices(t, testutil.SampleRecords())

	var buf bytes.Buffer
	err := fs.Chart(context.Background(), domain.Selection{State: "Gamma", Horizon: 2}, chart.KindYoY, chart.DefaultOptions(), &buf)
	require.NoError(t, err)

	err = fs.Chart(context.Background(), domain.Selection{State: "Gamma", Category: "Murder", Horizon: 2}, chart.KindForecast, chart.DefaultOptions(), &buf)
	require.NoError(t, err)

	single := []domain.RawRecord{{State: "Solo", Year: 2001, Category: "Murder", Count: 3}}
	fs, _, _ = newTestServices(t, single)
	err = fs.Chart(context.Background(), domain.Selection{State: "Solo", Horizon: 2}, chart.KindYoY, chart.DefaultOptions(), &buf)
	require.Error(t, err)
	assert.True(t, apperrors.IsInsufficientData(err))
}

func TestHealthService(t *testing.T) {
	_, hs, _ := newTestServices(t, testutil.SampleRecords())
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, contracts.Version, health.Version)
	ds, ok := health.Services["dataset"].(DatasetHealth)
	require.True(t, ok)
	assert.Equal(t, 3, ds.States)

	assert.Equal(t, "ready", hs.ReadinessCheck(ctx).Status)
	assert.Equal(t, "alive", hs.LivenessCheck(ctx).Status)
	assert.Equal(t, contracts.ModelVersion, hs.Version()["model_version"])
}

func TestHealthService_NotReady(t *testing.T) {
	_, hs, _ := newTestServices(t, nil)
	assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)

	empty := NewHealthService(nil, nil, nil)
	assert.Equal(t, "not_ready", empty.ReadinessCheck(context.Background()).Status)
}
