package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts/domain"
)

func testReport() *domain.Report {
	ts := testutil.SeriesOf("Alpha", 2000, 5, 6, 5, 7)
	up, down := 20.0, -16.7
	r := &domain.Report{
		Selection: domain.Selection{State: "Alpha", Horizon: 2},
		Series:    ts,
		Forecast:  &domain.ForecastResult{State: "Alpha", Horizon: 2, HistoryLen: 4},
		YoY: []domain.YoYPoint{
			{Timestamp: domain.YearStart(2000), Value: 5},
			{Timestamp: domain.YearStart(2001), Value: 6, Change: &up},
			{Timestamp: domain.YearStart(2002), Value: 5, Change: &down},
		},
		Distribution: &domain.CategoryDistribution{
			State: "Alpha", Year: 2003, Total: 7,
			Shares: []domain.CategoryShare{
				{Category: "Rape", Count: 4, Percentage: 57.1},
				{Category: "Murder", Count: 3, Percentage: 42.9},
			},
		},
	}
	for i := 0; i < 6; i++ {
		v := 5 + float64(i)*0.5
		r.Forecast.Points = append(r.Forecast.Points, domain.ForecastPoint{
			Timestamp: domain.YearStart(2000 + i), Predicted: v, Lower: v - 1, Upper: v + 1, Historical: i < 4,
		})
	}
	return r
}

func TestRender_AllKinds(t *testing.T) {
	opts := Options{Width: 640, Height: 320}

	for _, kind := range []Kind{KindForecast, KindYoY, KindDistribution} {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, kind, testReport(), opts))

			img, err := png.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 640, img.Bounds().Dx())
			assert.Equal(t, 320, img.Bounds().Dy())
		})
	}
}

func TestRenderForecast_WithoutForecast(t *testing.T) {
	r := testReport()
	r.Forecast = nil

	var buf bytes.Buffer
	require.NoError(t, RenderForecast(&buf, r, DefaultOptions()))
	assert.NotZero(t, buf.Len())
}

func TestRenderForecast_ConstantSeries(t *testing.T) {
	r := &domain.Report{Series: testutil.SeriesOf("Flat", 2000, 4, 4, 4, 4)}

	var buf bytes.Buffer
	assert.NoError(t, RenderForecast(&buf, r, DefaultOptions()))
}

func TestRender_NoData(t *testing.T) {
	empty := &domain.Report{Series: testutil.SeriesOf("One", 2000, 4)}
	var buf bytes.Buffer

	assert.ErrorIs(t, RenderForecast(&buf, empty, DefaultOptions()), ErrNoData)
	assert.ErrorIs(t, RenderYoY(&buf, empty, DefaultOptions()), ErrNoData)
	assert.ErrorIs(t, RenderDistribution(&buf, empty, DefaultOptions()), ErrNoData)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindForecast, k)

	k, err = ParseKind("yoy")
	require.NoError(t, err)
	assert.Equal(t, KindYoY, k)

	_, err = ParseKind("radar")
	assert.Error(t, err)
}
