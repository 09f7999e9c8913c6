package exporter

import (
	"fmt"
	"time"
)

// formatFloat formats a value with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatCount rounds a predicted count to a whole number
func formatCount(f float64) string {
	return fmt.Sprintf("%.0f", f)
}

// formatOptional renders nil as an empty cell
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatYear renders a yearly timestamp as its year
func formatYear(t time.Time) string {
	return fmt.Sprintf("%d", t.Year())
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
