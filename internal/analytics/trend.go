package analytics

import (
	"fmt"
	"math"

	"crimecast/internal/config"
	"crimecast/pkg/contracts/domain"
)

// Thresholds tune trend classification and insight wording
type Thresholds struct {
	// Trend is the relative trend change (0.01 = 1%) below which a
	// forecast counts as stable.
	Trend float64
	// Insight is the projected percentage change beyond which the insight
	// reports an increase or decrease.
	Insight float64
}

// DefaultThresholds returns 1% for the trend and 5% for the insight
func DefaultThresholds() Thresholds {
	return Thresholds{Trend: config.DefaultTrendThreshold, Insight: config.DefaultInsightThreshold}
}

// ThresholdsFromConfig reads the thresholds from the forecast configuration
func ThresholdsFromConfig(cfg config.ForecastConfig) Thresholds {
	return Thresholds{Trend: cfg.TrendThreshold, Insight: cfg.InsightThreshold}
}

// ClassifyTrend compares the trend at the last historical point with the
// trend at the final forecast point. It also returns the relative change.
func ClassifyTrend(result domain.ForecastResult, threshold float64) (domain.TrendDirection, float64) {
	last, ok := result.LastHistorical()
	future := result.Future()
	if !ok || len(future) == 0 {
		return domain.TrendStable, 0
	}

	start := last.Trend
	end := future[len(future)-1].Trend

	if start == 0 {
		switch {
		case end > 0:
			return domain.TrendIncreasing, 0
		case end < 0:
			return domain.TrendDecreasing, 0
		default:
			return domain.TrendStable, 0
		}
	}

	change := (end - start) / math.Abs(start)
	switch {
	case math.Abs(change) < threshold:
		return domain.TrendStable, change
	case change > 0:
		return domain.TrendIncreasing, change
	default:
		return domain.TrendDecreasing, change
	}
}

// Insight builds the textual summary of a forecast. ok is false when the
// result has no future points.
func Insight(ts domain.TimeSeries, result domain.ForecastResult, th Thresholds) (domain.TrendInsight, bool) {
	future := result.Future()
	lastObs, hasObs := ts.Last()
	if len(future) == 0 || !hasObs {
		return domain.TrendInsight{}, false
	}

	direction, trendChange := ClassifyTrend(result, th.Trend)

	var projected float64
	if lastObs.Value > 0 {
		projected = (future[0].Predicted - lastObs.Value) / lastObs.Value * 100
	}

	var msg string
	switch {
	case projected > th.Insight:
		msg = fmt.Sprintf("Projected increase of %.1f%% in violent-crime trials next year.", projected)
	case projected < -th.Insight:
		msg = fmt.Sprintf("Projected decrease of %.1f%% in violent-crime trials next year.", math.Abs(projected))
	default:
		msg = fmt.Sprintf("Crime trials are expected to remain relatively stable (~%.1f%%).", projected)
	}
	msg += fmt.Sprintf(" The long-term trend is %s over the next %d years.", direction, len(future))

	return domain.TrendInsight{
		Direction:          direction,
		TrendChangePct:     trendChange * 100,
		ProjectedChangePct: projected,
		Message:            msg,
	}, true
}
