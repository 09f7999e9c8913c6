// Package series turns the raw dataset into the yearly time series the
// forecast engine consumes.
package series

import (
	"fmt"
	"log/slog"
	"sort"

	"crimecast/internal/config"
	"crimecast/internal/dataset"
	apperrors "crimecast/internal/errors"
	"crimecast/pkg/contracts/domain"
)

// Builder builds per-selection series from a loaded dataset
type Builder struct {
	ds        *dataset.Dataset
	minPoints int
	logger    *slog.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithMinPoints sets the shortest series considered forecastable
func WithMinPoints(n int) Option {
	return func(b *Builder) { b.minPoints = n }
}

// WithLogger sets the builder's logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a Builder over ds
func NewBuilder(ds *dataset.Dataset, opts ...Option) *Builder {
	b := &Builder{
		ds:        ds,
		minPoints: config.MinForecastPoints,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(slog.String("component", "series_builder"))
	return b
}

// Build returns the yearly series for the selection: counts summed per year,
// missing years between the first and last observed year filled with 0,
// one point per year stamped January 1 UTC.
//
// An unknown state or category yields a NOT_FOUND error and no series. A
// series shorter than the minimum is returned together with an
// INSUFFICIENT_DATA error so callers can still display it.
func (b *Builder) Build(sel domain.Selection) (domain.TimeSeries, error) {
	if !b.ds.HasState(sel.State) {
		return domain.TimeSeries{}, apperrors.NewNotFoundError(fmt.Sprintf("state %q", sel.State))
	}
	if sel.Category != "" && !b.ds.HasCategory(sel.State, sel.Category) {
		return domain.TimeSeries{}, apperrors.NewNotFoundError(
			fmt.Sprintf("category %q in state %q", sel.Category, sel.State))
	}

	totals := make(map[int]float64)
	for _, r := range b.ds.RecordsFor(sel.State) {
		if sel.Category != "" && r.Category != sel.Category {
			continue
		}
		totals[r.Year] += r.Count
	}

	ts := domain.TimeSeries{Name: Name(sel), Points: fill(totals)}

	if ts.Len() < b.minPoints {
		b.logger.Info("series too short to forecast",
			slog.String("series", ts.Name),
			slog.Int("points", ts.Len()),
			slog.Int("minimum", b.minPoints))
		return ts, apperrors.NewInsufficientDataError(ts.Len(), b.minPoints).
			WithContext("series", ts.Name)
	}

	return ts, nil
}

// Name is the display name of the series for a selection
func Name(sel domain.Selection) string {
	if sel.Category == "" {
		return sel.State
	}
	return sel.State + " / " + sel.Category
}

// fill turns year totals into a contiguous ascending series
func fill(totals map[int]float64) []domain.Point {
	if len(totals) == 0 {
		return nil
	}

	years := make([]int, 0, len(totals))
	for y := range totals {
		years = append(years, y)
	}
	sort.Ints(years)

	first, last := years[0], years[len(years)-1]
	points := make([]domain.Point, 0, last-first+1)
	for y := first; y <= last; y++ {
		points = append(points, domain.Point{Timestamp: domain.YearStart(y), Value: totals[y]})
	}
	return points
}
