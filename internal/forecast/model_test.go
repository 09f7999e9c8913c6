package forecast

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "crimecast/internal/errors"
	"crimecast/internal/shared/testutil"
	"crimecast/pkg/contracts/domain"
)

func fitPredict(t *testing.T, ts domain.TimeSeries, horizon int) domain.ForecastResult {
	t.Helper()
	m := NewAdditiveModel(DefaultParams())
	model, err := m.Fit(context.Background(), ts)
	require.NoError(t, err)
	result, err := m.Predict(context.Background(), model, horizon)
	require.NoError(t, err)
	return result
}

func TestAdditiveModel_ShapeAndBounds(t *testing.T) {
	ts := testutil.SeriesOf("Alpha", 2000, testutil.AlphaCounts...)
	result := fitPredict(t, ts, 3)

	require.Len(t, result.Points, 9)
	assert.Equal(t, 6, result.HistoryLen)
	assert.Equal(t, 3, result.Horizon)
	assert.Equal(t, 0.8, result.IntervalWidth)

	for i, p := range result.Points {
		assert.LessOrEqual(t, p.Lower, p.Predicted, "point %d", i)
		assert.LessOrEqual(t, p.Predicted, p.Upper, "point %d", i)
		assert.InDelta(t, p.Predicted, p.Trend+p.Yearly, 1e-9)
		assert.Equal(t, i < 6, p.Historical)
	}
}

func TestAdditiveModel_FutureTimestamps(t *testing.T) {
	ts := testutil.SeriesOf("Alpha", 2000, testutil.AlphaCounts...)
	result := fitPredict(t, ts, 3)

	for i, p := range ts.Points {
		assert.Equal(t, p.Timestamp, result.Points[i].Timestamp)
	}
	future := result.Future()
	require.Len(t, future, 3)
	assert.Equal(t, domain.YearStart(2006), future[0].Timestamp)
	assert.Equal(t, domain.YearStart(2007), future[1].Timestamp)
	assert.Equal(t, domain.YearStart(2008), future[2].Timestamp)
}

func TestAdditiveModel_Deterministic(t *testing.T) {
	ts := testutil.SeriesOf("Alpha", 2000, testutil.AlphaCounts...)
	first := fitPredict(t, ts, 5)
	second := fitPredict(t, ts, 5)
	assert.Equal(t, first, second)
}

func TestAdditiveModel_FollowsLinearTrend(t *testing.T) {
	ts := testutil.SeriesOf("Linear", 2000, 100, 110, 120, 130, 140, 150, 160, 170, 180, 190)
	result := fitPredict(t, ts, 2)

	future := result.Future()
	require.Len(t, future, 2)
	assert.InDelta(t, 200, future[0].Predicted, 3)
	assert.InDelta(t, 210, future[1].Predicted, 3)
	assert.Greater(t, future[1].Trend, future[0].Trend)
}

func TestAdditiveModel_IntervalsDoNotNarrow(t *testing.T) {
	ts := testutil.SeriesOf("Alpha", 2000, testutil.AlphaCounts...)
	future := fitPredict(t, ts, 4).Future()
	for i := 1; i < len(future); i++ {
		prev := future[i-1].Upper - future[i-1].Lower
		cur := future[i].Upper - future[i].Lower
		assert.GreaterOrEqual(t, cur, prev-1e-9)
	}
}

func TestAdditiveModel_DegenerateSeries(t *testing.T) {
	tests := []struct {
		name   string
		series domain.TimeSeries
	}{
		{"all zero", testutil.SeriesOf("zero", 2000, 0, 0, 0, 0)},
		{"constant", testutil.SeriesOf("flat", 2000, 7, 7, 7, 7, 7)},
		{"single point", testutil.SeriesOf("one", 2000, 4)},
		{"empty", domain.TimeSeries{Name: "empty"}},
	}

	m := NewAdditiveModel(DefaultParams())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Fit(context.Background(), tt.series)
			require.Error(t, err)
			assert.True(t, apperrors.IsModelFit(err))
		})
	}
}

func TestAdditiveModel_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAdditiveModel(DefaultParams()).Fit(ctx, testutil.SeriesOf("Alpha", 2000, testutil.AlphaCounts...))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAdditiveModel_InvalidWidthFallsBack(t *testing.T) {
	p := DefaultParams()
	p.IntervalWidth = 1.5
	m := NewAdditiveModel(p)
	assert.Equal(t, 0.8, m.params.IntervalWidth)
	assert.InDelta(t, 1.2816, m.z, 1e-4)
}

func TestPlaceChangepoints(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"two points", 2, 0},
		{"three points", 3, 1},
		{"six points", 6, 3},
		{"capped", 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := make([]float64, tt.n)
			for i := range ts {
				ts[i] = float64(i) / float64(tt.n-1)
			}
			cps := placeChangepoints(ts, 0.8, 25)
			assert.Len(t, cps, tt.want)
			for i := 1; i < len(cps); i++ {
				assert.Greater(t, cps[i], cps[i-1])
			}
			for _, c := range cps {
				assert.Greater(t, c, 0.0)
				assert.Less(t, c, 0.8)
			}
		})
	}

	assert.Equal(t, []float64{0.2, 0.4, 0.6}, placeChangepoints([]float64{0, 0.2, 0.4, 0.6, 0.8, 1}, 0.8, 25))
}
