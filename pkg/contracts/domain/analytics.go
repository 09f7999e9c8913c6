package domain

import "time"

// YoYPoint is the year-over-year percentage change at one timestamp.
// Change is nil for the first point and whenever the previous value is 0.
type YoYPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Change    *float64  `json:"change"`
}

// CategoryShare is one slice of the category distribution
type CategoryShare struct {
	Category   string  `json:"category"`
	Count      float64 `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CategoryDistribution is the category breakdown of a state for one year.
type CategoryDistribution struct {
	State  string          `json:"state"`
	Year   int             `json:"year"`
	Total  float64         `json:"total"`
	Shares []CategoryShare `json:"shares"`
}

// Percentages returns the distribution as a category -> percentage mapping.
func (d CategoryDistribution) Percentages() map[string]float64 {
	out := make(map[string]float64, len(d.Shares))
	for _, s := range d.Shares {
		out[s.Category] = s.Percentage
	}
	return out
}

// TrendDirection classifies the forecast trend
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// TrendInsight is the automated textual insight shown next to a forecast.
type TrendInsight struct {
	Direction          TrendDirection `json:"direction"`
	TrendChangePct     float64        `json:"trend_change_pct"`
	ProjectedChangePct float64        `json:"projected_change_pct"`
	Message            string         `json:"message"`
}

// SeasonalityPoint expresses the yearly component relative to its mean.
type SeasonalityPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	Trend             float64   `json:"trend"`
	Yearly            float64   `json:"yearly"`
	YearlyPctFromMean float64   `json:"yearly_pct_from_mean"`
}
