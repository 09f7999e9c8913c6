package analytics

import "crimecast/pkg/contracts/domain"

// YearOverYear returns the percentage change of each point against the
// previous one. Change is nil for the first point and after a zero value.
func YearOverYear(ts domain.TimeSeries) []domain.YoYPoint {
	out := make([]domain.YoYPoint, len(ts.Points))
	for i, p := range ts.Points {
		out[i] = domain.YoYPoint{Timestamp: p.Timestamp, Value: p.Value}
		if i == 0 {
			continue
		}
		prev := ts.Points[i-1].Value
		if prev == 0 {
			continue
		}
		change := (p.Value - prev) / prev * 100
		out[i].Change = &change
	}
	return out
}
