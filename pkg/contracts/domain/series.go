package domain

import "time"

// Point is a single observation of a time series.
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries is an ordered sequence of points for one state and, optionally,
// one crime category. Timestamps are strictly increasing.
type TimeSeries struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Len returns the number of points in the series.
func (s TimeSeries) Len() int {
	return len(s.Points)
}

// Values returns a copy of the series values.
func (s TimeSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Timestamps returns a copy of the series timestamps.
func (s TimeSeries) Timestamps() []time.Time {
	ts := make([]time.Time, len(s.Points))
	for i, p := range s.Points {
		ts[i] = p.Timestamp
	}
	return ts
}

// Last returns the final point of the series. ok is false when empty.
func (s TimeSeries) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// YearStart returns the canonical timestamp for a year: January 1, UTC.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
