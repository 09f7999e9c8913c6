package config

import "time"

// Application constants
const (
	AppName     = "CrimeCast"
	ServiceName = "crimecast"

	// EnvPrefix namespaces every environment variable, e.g. CRIMECAST_SERVER_PORT
	EnvPrefix = "CRIMECAST"
	// EnvConfigFile names an explicit YAML config file
	EnvConfigFile = "CRIMECAST_CONFIG_FILE"

	DefaultDataPath   = "data/crime_by_state.csv"
	DefaultReportsDir = "reports"
	DefaultDataTable  = "crime_trials"

	// HTTP
	DefaultRequestTimeout = 60 * time.Second
	DefaultRateLimit      = 20 // requests per second
	DefaultBurstSize      = 40

	DefaultLogLevel = "info"
)

// Forecasting defaults
const (
	DefaultHorizon = 5
	MinHorizon     = 1
	MaxHorizon     = 10

	// MinForecastPoints is the shortest series the engine will fit
	MinForecastPoints = 3

	DefaultIntervalWidth         = 0.8
	DefaultYearlyFourierOrder    = 10
	DefaultChangepointRange      = 0.8
	DefaultMaxChangepoints       = 25
	DefaultChangepointPriorScale = 0.05
	DefaultSeasonalityPriorScale = 10.0

	// DefaultTrendThreshold is the relative trend change below which a
	// forecast is classified as stable (1%).
	DefaultTrendThreshold = 0.01
	// DefaultInsightThreshold is the projected percentage change that flips
	// the insight wording from "stable" to increase/decrease.
	DefaultInsightThreshold = 5.0
)
