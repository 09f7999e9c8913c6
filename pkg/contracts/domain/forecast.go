package domain

import "time"

// ForecastPoint holds the model output for one timestamp.
type ForecastPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Predicted  float64   `json:"predicted"`
	Lower      float64   `json:"lower"`
	Upper      float64   `json:"upper"`
	Trend      float64   `json:"trend"`
	Yearly     float64   `json:"yearly"`
	Historical bool      `json:"historical"`
}

// ForecastResult covers the historical range followed by the forecast
// horizon. len(Points) == HistoryLen + Horizon.
type ForecastResult struct {
	State         string          `json:"state"`
	Category      string          `json:"category,omitempty"`
	Horizon       int             `json:"horizon"`
	HistoryLen    int             `json:"history_len"`
	IntervalWidth float64         `json:"interval_width"`
	Points        []ForecastPoint `json:"points"`
}

// Future returns only the points beyond the last historical timestamp.
func (r ForecastResult) Future() []ForecastPoint {
	if r.HistoryLen >= len(r.Points) {
		return nil
	}
	return r.Points[r.HistoryLen:]
}

// LastHistorical returns the point at the last historical timestamp.
func (r ForecastResult) LastHistorical() (ForecastPoint, bool) {
	if r.HistoryLen == 0 || r.HistoryLen > len(r.Points) {
		return ForecastPoint{}, false
	}
	return r.Points[r.HistoryLen-1], true
}

// ComponentPoint is the separated trend and yearly-seasonal component of the
// fitted model at one timestamp.
type ComponentPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Trend     float64   `json:"trend"`
	Yearly    float64   `json:"yearly"`
}
