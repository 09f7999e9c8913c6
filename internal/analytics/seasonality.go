package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"crimecast/pkg/contracts/domain"
)

// Seasonality expresses the yearly component as a percentage deviation from
// its mean. When the mean is zero the raw yearly value is reported instead.
// Annual samples all fall on January 1, so the yearly term only tracks
// calendar drift across leap years, not a within-year pattern.
func Seasonality(components []domain.ComponentPoint) []domain.SeasonalityPoint {
	if len(components) == 0 {
		return nil
	}

	yearly := make([]float64, len(components))
	for i, c := range components {
		yearly[i] = c.Yearly
	}
	mean := stat.Mean(yearly, nil)

	out := make([]domain.SeasonalityPoint, len(components))
	for i, c := range components {
		pct := c.Yearly
		if mean != 0 {
			pct = (c.Yearly - mean) / math.Abs(mean) * 100
		}
		out[i] = domain.SeasonalityPoint{
			Timestamp:         c.Timestamp,
			Trend:             c.Trend,
			Yearly:            c.Yearly,
			YearlyPctFromMean: pct,
		}
	}
	return out
}
