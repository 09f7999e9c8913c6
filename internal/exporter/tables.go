package exporter

import (
	"fmt"

	"crimecast/pkg/contracts"
	"crimecast/pkg/contracts/domain"
)

// Table is one exported sheet. Cells hold float64, count, int, string, bool,
// *float64 or nil.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Strings renders the rows for CSV output
func (t Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = cellString(cell)
		}
		out[i] = rec
	}
	return out
}

// count is a value shown as a whole number
type count float64

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case count:
		return formatCount(float64(c))
	case float64:
		return formatFloat(c)
	case *float64:
		return formatOptional(c)
	case bool:
		return formatBool(c)
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}

// SummaryTable describes the selection, insight and warnings
func SummaryTable(r *domain.Report) Table {
	category := r.Selection.Category
	if category == "" {
		category = "All"
	}
	t := Table{
		Name:    "Summary",
		Headers: []string{"Field", "Value"},
		Rows: [][]any{
			{"State", r.Selection.State},
			{"Crime Group", category},
			{"Horizon (years)", r.Selection.Horizon},
			{"History Points", r.Series.Len()},
			{"Model", contracts.ModelVersion},
		},
	}
	if r.Insight != nil {
		t.Rows = append(t.Rows,
			[]any{"Trend", string(r.Insight.Direction)},
			[]any{"Projected Change (%)", r.Insight.ProjectedChangePct},
			[]any{"Insight", r.Insight.Message},
		)
	}
	for _, w := range r.Warnings {
		t.Rows = append(t.Rows, []any{"Warning (" + string(w.Kind) + ")", w.Message})
	}
	return t
}

// ForecastTable holds only the future rows, rounded to whole counts
func ForecastTable(r *domain.Report) Table {
	t := Table{
		Name:    "Forecast",
		Headers: []string{"Year", "Predicted Crimes", "Lower Bound", "Upper Bound"},
	}
	for _, p := range r.FutureForecast() {
		t.Rows = append(t.Rows, []any{
			p.Timestamp.Year(),
			count(p.Predicted),
			count(p.Lower),
			count(p.Upper),
		})
	}
	return t
}

// HistoryTable lines up observed values with the fitted model
func HistoryTable(r *domain.Report) Table {
	t := Table{
		Name:    "Model",
		Headers: []string{"Year", "Actual", "Predicted", "Lower Bound", "Upper Bound", "Trend", "Yearly"},
	}
	if r.Forecast == nil {
		for _, p := range r.Series.Points {
			t.Rows = append(t.Rows, []any{p.Timestamp.Year(), p.Value, nil, nil, nil, nil, nil})
		}
		return t
	}
	for i, p := range r.Forecast.Points {
		var actual any
		if p.Historical && i < r.Series.Len() {
			actual = r.Series.Points[i].Value
		}
		t.Rows = append(t.Rows, []any{p.Timestamp.Year(), actual, p.Predicted, p.Lower, p.Upper, p.Trend, p.Yearly})
	}
	return t
}

// YoYTable lists year-over-year changes; undefined changes are blank
func YoYTable(r *domain.Report) Table {
	t := Table{
		Name:    "Year over Year",
		Headers: []string{"Year", "Total", "YoY Change (%)"},
	}
	for _, p := range r.YoY {
		t.Rows = append(t.Rows, []any{p.Timestamp.Year(), p.Value, p.Change})
	}
	return t
}

// DistributionTable lists category shares for the latest year
func DistributionTable(r *domain.Report) Table {
	t := Table{
		Name:    "Distribution",
		Headers: []string{"Crime Group", "Total Crimes", "Percentage"},
	}
	if r.Distribution == nil {
		return t
	}
	t.Name = fmt.Sprintf("Distribution %d", r.Distribution.Year)
	for _, s := range r.Distribution.Shares {
		t.Rows = append(t.Rows, []any{s.Category, s.Count, s.Percentage})
	}
	return t
}

// SeasonalityTable lists the trend and yearly components
func SeasonalityTable(r *domain.Report) Table {
	t := Table{
		Name:    "Seasonality",
		Headers: []string{"Year", "Trend", "Yearly", "Yearly % From Mean"},
	}
	for _, s := range r.Seasonality {
		t.Rows = append(t.Rows, []any{s.Timestamp.Year(), s.Trend, s.Yearly, s.YearlyPctFromMean})
	}
	return t
}
