package domain

// Selection is one user request against the pipeline.
type Selection struct {
	State    string `json:"state" validate:"required"`
	Category string `json:"category,omitempty"`
	Horizon  int    `json:"horizon" validate:"min=1,max=10"`
}

// WarningKind names the degraded-result conditions a pipeline run can report.
type WarningKind string

const (
	WarningInsufficientData WarningKind = "insufficient_data"
	WarningModelFit         WarningKind = "model_fit"
	WarningNoDistribution   WarningKind = "no_distribution"
	WarningNoFuture         WarningKind = "no_future"
)

// Warning is a user-facing message attached to a partial result.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Report is everything one pipeline run hands to the presentation layer.
// Forecast, Components, Seasonality and Insight are nil when forecasting was
// skipped; Warnings explains why.
type Report struct {
	Selection    Selection             `json:"selection"`
	Series       TimeSeries            `json:"series"`
	Forecast     *ForecastResult       `json:"forecast,omitempty"`
	Components   []ComponentPoint      `json:"components,omitempty"`
	Seasonality  []SeasonalityPoint    `json:"seasonality,omitempty"`
	YoY          []YoYPoint            `json:"yoy"`
	Distribution *CategoryDistribution `json:"distribution,omitempty"`
	Insight      *TrendInsight         `json:"insight,omitempty"`
	Warnings     []Warning             `json:"warnings,omitempty"`
}

// HasForecast reports whether the forecast stage produced a result.
func (r *Report) HasForecast() bool {
	return r.Forecast != nil
}

// FutureForecast returns the forecast rows beyond the historical range.
func (r *Report) FutureForecast() []ForecastPoint {
	if r.Forecast == nil {
		return nil
	}
	return r.Forecast.Future()
}

// AddWarning appends a warning to the report.
func (r *Report) AddWarning(kind WarningKind, message string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Message: message})
}
