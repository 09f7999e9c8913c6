package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"crimecast/pkg/contracts/domain"
)

// Kind selects which chart to render
type Kind string

const (
	KindForecast     Kind = "forecast"
	KindYoY          Kind = "yoy"
	KindDistribution Kind = "distribution"
)

// ErrNoData is returned when the report lacks what the chart needs
var ErrNoData = errors.New("not enough data to render chart")

// Options sets the image size
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns a 1024x512 image
func DefaultOptions() Options {
	return Options{Width: 1024, Height: 512}
}

// ParseKind maps a query value to a Kind; empty means forecast
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindForecast:
		return KindForecast, nil
	case KindYoY, KindDistribution:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown chart kind %q", s)
	}
}

// Render writes the chart of the given kind as PNG
func Render(w io.Writer, kind Kind, r *domain.Report, opts Options) error {
	switch kind {
	case KindForecast:
		return RenderForecast(w, r, opts)
	case KindYoY:
		return RenderYoY(w, r, opts)
	case KindDistribution:
		return RenderDistribution(w, r, opts)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotWidth:    4,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color, dashed bool) chart.Style {
	s := chart.Style{StrokeColor: col, StrokeWidth: 2}
	if dashed {
		s.StrokeWidth = 1
		s.StrokeDashArray = []float64{5, 5}
	}
	return s
}

// RenderForecast draws observed points, the fitted and forecast line and
// the lower and upper bounds. Without a forecast only the observed series
// is drawn.
func RenderForecast(w io.Writer, r *domain.Report, opts Options) error {
	if r.Series.Len() < 2 {
		return ErrNoData
	}

	var series []chart.Series
	var all []float64

	actualX, actualY := r.Series.Timestamps(), r.Series.Values()
	all = append(all, actualY...)

	if r.Forecast != nil {
		n := len(r.Forecast.Points)
		xs := make([]time.Time, n)
		pred, lower, upper := make([]float64, n), make([]float64, n), make([]float64, n)
		for i, p := range r.Forecast.Points {
			xs[i] = p.Timestamp
			pred[i], lower[i], upper[i] = p.Predicted, p.Lower, p.Upper
		}
		all = append(all, lower...)
		all = append(all, upper...)

		series = append(series,
			chart.TimeSeries{Name: "Upper bound", XValues: xs, YValues: upper, Style: lineStyle(chart.ColorAlternateGray, true)},
			chart.TimeSeries{Name: "Lower bound", XValues: xs, YValues: lower, Style: lineStyle(chart.ColorAlternateGray, true)},
			chart.TimeSeries{Name: "Forecast", XValues: xs, YValues: pred, Style: lineStyle(chart.ColorBlue, false)},
		)
	}
	series = append(series, chart.TimeSeries{Name: "Actual", XValues: actualX, YValues: actualY, Style: pointStyle(chart.ColorBlack)})

	ch := chart.Chart{
		Title:      fmt.Sprintf("Forecast of Total Violent Crimes (%s)", r.Series.Name),
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Year", ValueFormatter: chart.TimeValueFormatterWithFormat("2006")},
		YAxis:      chart.YAxis{Name: "Crime Trials", Range: paddedRange(all)},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render forecast chart: %w", err)
	}
	return nil
}

// RenderYoY draws the year-over-year change as bars, green for increases
// and red for decreases. Undefined changes are omitted.
func RenderYoY(w io.Writer, r *domain.Report, opts Options) error {
	var bars []chart.Value
	var all []float64
	for _, p := range r.YoY {
		if p.Change == nil {
			continue
		}
		col := chart.ColorGreen
		if *p.Change < 0 {
			col = chart.ColorRed
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%d", p.Timestamp.Year()),
			Value: *p.Change,
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
		all = append(all, *p.Change)
	}
	if len(bars) == 0 {
		return ErrNoData
	}

	bc := chart.BarChart{
		Title:        fmt.Sprintf("Year-over-Year Percentage Change (%s)", r.Series.Name),
		Width:        opts.Width,
		Height:       opts.Height,
		Background:   chart.Style{Padding: chart.Box{Top: 40}},
		BarWidth:     barWidth(opts.Width, len(bars)),
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Range: paddedRange(append(all, 0))},
		Bars:         bars,
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render yoy chart: %w", err)
	}
	return nil
}

// RenderDistribution draws the category shares as a pie
func RenderDistribution(w io.Writer, r *domain.Report, opts Options) error {
	if r.Distribution == nil || len(r.Distribution.Shares) == 0 {
		return ErrNoData
	}

	values := make([]chart.Value, len(r.Distribution.Shares))
	for i, s := range r.Distribution.Shares {
		values[i] = chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", s.Category, s.Percentage),
			Value: s.Count,
		}
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("Crime Type Distribution in %s (%d)", r.Distribution.State, r.Distribution.Year),
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render distribution chart: %w", err)
	}
	return nil
}

// paddedRange adds 10% headroom and widens a zero-height range, which
// go-chart refuses to draw.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func barWidth(width, n int) int {
	bw := width / (2 * (n + 1))
	if bw < 4 {
		return 4
	}
	if bw > 60 {
		return 60
	}
	return bw
}
