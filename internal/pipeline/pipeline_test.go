package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"crimecast/internal/config"
	"crimecast/internal/dataset"
	apperrors "crimecast/internal/errors"
	"crimecast/internal/infrastructure"
	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts/domain"
)

func newTestPipeline(t *testing.T, records []domain.RawRecord) (*Pipeline, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	metrics, err := infrastructure.CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	cfg := config.Default().Forecast
	return New(dataset.New("fixture", records), cfg, WithLogger(logger), WithMetrics(metrics)), handler
}

func TestRun_EndToEnd(t *testing.T) {
	p, handler := newTestPipeline(t, testutil.SampleRecords())

	report, err := p.Run(context.Background(), domain.Selection{State: "Alpha", Horizon: 3})
	require.NoError(t, err)
	require.True(t, report.HasForecast())
	assert.Empty(t, report.Warnings)

	points := report.Forecast.Points
	require.Len(t, points, 9)
	for i, pt := range points {
		assert.Equal(t, domain.YearStart(2000+i), pt.Timestamp)
		assert.LessOrEqual(t, pt.Lower, pt.Predicted)
		assert.LessOrEqual(t, pt.Predicted, pt.Upper)
	}

	assert.Equal(t, testutil.AlphaCounts, report.Series.Values())
	assert.Len(t, report.YoY, 6)
	assert.Len(t, report.Components, 9)
	assert.Len(t, report.Seasonality, 9)
	assert.Len(t, report.FutureForecast(), 3)
	require.NotNil(t, report.Insight)
	assert.NotEmpty(t, report.Insight.Message)
	require.NotNil(t, report.Distribution)
	assert.Equal(t, 2005, report.Distribution.Year)

	testutil.AssertNoErrors(t, handler)
	assert.True(t, handler.ContainsMessage("pipeline completed"))
}

func TestRun_CategorySelection(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.SampleRecords())

	report, err := p.Run(context.Background(), domain.Selection{State: "Beta", Category: "Murder", Horizon: 2})
	require.NoError(t, err)
	assert.Equal(t, "Beta / Murder", report.Series.Name)
	require.True(t, report.HasForecast())
	assert.Equal(t, "Murder", report.Forecast.Category)
	assert.Len(t, report.Forecast.Points, 12)
}

func TestRun_InsufficientData(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.SampleRecords())

	report, err := p.Run(context.Background(), domain.Selection{State: "Gamma", Horizon: 3})
	require.NoError(t, err)

	assert.False(t, report.HasForecast())
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.WarningInsufficientData, report.Warnings[0].Kind)
	assert.Contains(t, report.Warnings[0].Message, "Gamma")

	assert.Len(t, report.Series.Points, 2)
	assert.Len(t, report.YoY, 2)
	require.NotNil(t, report.Distribution)
	assert.Zero(t, p.FitCount())
}

func TestRun_ModelFitWarning(t *testing.T) {
	var records []domain.RawRecord
	for year := 2000; year < 2006; year++ {
		records = append(records, domain.RawRecord{State: "Flat", Year: year, Category: "Murder", Count: 4})
	}
	p, _ := newTestPipeline(t, records)

	report, err := p.Run(context.Background(), domain.Selection{State: "Flat", Horizon: 2})
	require.NoError(t, err)

	assert.False(t, report.HasForecast())
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, domain.WarningModelFit, report.Warnings[0].Kind)
	assert.Contains(t, report.Warnings[0].Message, "constant")
	assert.Len(t, report.YoY, 6)
	assert.NotNil(t, report.Distribution)
}

func TestRun_NoDistributionWarning(t *testing.T) {
	records := []domain.RawRecord{
		{State: "Delta", Year: 2000, Category: "Murder", Count: 3},
		{State: "Delta", Year: 2001, Category: "Murder", Count: 5},
		{State: "Delta", Year: 2002, Category: "Murder", Count: 4},
		{State: "Delta", Year: 2003, Category: "Murder", Count: 0},
	}
	p, _ := newTestPipeline(t, records)

	report, err := p.Run(context.Background(), domain.Selection{State: "Delta", Horizon: 1})
	require.NoError(t, err)
	assert.Nil(t, report.Distribution)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, domain.WarningNoDistribution, report.Warnings[0].Kind)
	assert.True(t, report.HasForecast())
}

func TestRun_Errors(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.SampleRecords())

	tests := []struct {
		name  string
		sel   domain.Selection
		check func(error) bool
	}{
		{"unknown state", domain.Selection{State: "Nowhere", Horizon: 3}, apperrors.IsNotFound},
		{"unknown category", domain.Selection{State: "Alpha", Category: "Arson", Horizon: 3}, apperrors.IsNotFound},
		{"horizon too large", domain.Selection{State: "Alpha", Horizon: 11}, apperrors.IsValidation},
		{"horizon zero", domain.Selection{State: "Alpha", Horizon: 0}, apperrors.IsValidation},
		{"missing state", domain.Selection{Horizon: 3}, apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := p.Run(context.Background(), tt.sel)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
	assert.Zero(t, p.FitCount())
}

func TestRun_CachesForecast(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.SampleRecords())
	sel := domain.Selection{State: "Alpha", Horizon: 3}

	first, err := p.Run(context.Background(), sel)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), sel)
	require.NoError(t, err)

	assert.Equal(t, first.Forecast, second.Forecast)
	assert.Equal(t, int64(1), p.FitCount())
	assert.Equal(t, 1, p.CacheStats().Entries)
}

func TestPipeline_Lookups(t *testing.T) {
	p, _ := newTestPipeline(t, testutil.SampleRecords())

	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, p.States())

	cats, err := p.Categories("Beta")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dacoity", "Kidnapping", "Murder"}, cats)

	_, err = p.Categories("Nowhere")
	assert.True(t, apperrors.IsNotFound(err))
}
