package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Forecast  ForecastConfig  `yaml:"forecast" envconfig:"FORECAST"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"required,min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output      string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
	// Format is json (default) or text.
	Format string `yaml:"format" envconfig:"FORMAT" validate:"omitempty,oneof=json text"`
}

// DataConfig points at the crime-trial dataset and describes its columns
type DataConfig struct {
	// Path is the CSV or XLSX source. Relative paths resolve against the
	// working directory.
	Path string `yaml:"path" envconfig:"SOURCE" validate:"required_without=DSN"`
	// DSN selects a Postgres source instead of Path when set.
	DSN string `yaml:"dsn" envconfig:"DSN"`
	// Table is the Postgres table (optionally schema-qualified) read when
	// DSN is set.
	Table string `yaml:"table" envconfig:"TABLE" validate:"required_with=DSN"`
	// Sheet selects the XLSX worksheet; empty means the first one.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
	// ReportsDir receives CLI exports.
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	// Columns maps extra source header names onto canonical column names
	// (state, year, category, count). Entries override the built-in mapping.
	Columns map[string]string `yaml:"columns" envconfig:"COLUMNS"`
}

// ForecastConfig holds the model and derived-metric parameters
type ForecastConfig struct {
	DefaultHorizon        int     `yaml:"default_horizon" envconfig:"DEFAULT_HORIZON" validate:"min=1,max=10"`
	MinPoints             int     `yaml:"min_points" envconfig:"MIN_POINTS" validate:"min=3"`
	IntervalWidth         float64 `yaml:"interval_width" envconfig:"INTERVAL_WIDTH" validate:"gt=0,lt=1"`
	YearlyFourierOrder    int     `yaml:"yearly_fourier_order" envconfig:"YEARLY_FOURIER_ORDER" validate:"min=1,max=20"`
	ChangepointRange      float64 `yaml:"changepoint_range" envconfig:"CHANGEPOINT_RANGE" validate:"gt=0,lte=1"`
	MaxChangepoints       int     `yaml:"max_changepoints" envconfig:"MAX_CHANGEPOINTS" validate:"min=0,max=100"`
	ChangepointPriorScale float64 `yaml:"changepoint_prior_scale" envconfig:"CHANGEPOINT_PRIOR_SCALE" validate:"gt=0"`
	SeasonalityPriorScale float64 `yaml:"seasonality_prior_scale" envconfig:"SEASONALITY_PRIOR_SCALE" validate:"gt=0"`
	TrendThreshold        float64 `yaml:"trend_threshold" envconfig:"TREND_THRESHOLD" validate:"gte=0"`
	InsightThreshold      float64 `yaml:"insight_threshold" envconfig:"INSIGHT_THRESHOLD" validate:"gte=0"`
	// CacheSize bounds the forecast cache; 0 keeps every result.
	CacheSize int `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"min=0"`
}

// TelemetryConfig controls tracing and metrics export
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and
// CRIMECAST_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the struct tags and the cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvConfigFile); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Output:   "console",
			FilePath: "logs/crimecast.log",
		},
		Data: DataConfig{
			Path:       DefaultDataPath,
			Table:      DefaultDataTable,
			ReportsDir: DefaultReportsDir,
		},
		Forecast: ForecastConfig{
			DefaultHorizon:        DefaultHorizon,
			MinPoints:             MinForecastPoints,
			IntervalWidth:         DefaultIntervalWidth,
			YearlyFourierOrder:    DefaultYearlyFourierOrder,
			ChangepointRange:      DefaultChangepointRange,
			MaxChangepoints:       DefaultMaxChangepoints,
			ChangepointPriorScale: DefaultChangepointPriorScale,
			SeasonalityPriorScale: DefaultSeasonalityPriorScale,
			TrendThreshold:        DefaultTrendThreshold,
			InsightThreshold:      DefaultInsightThreshold,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    ServiceName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
