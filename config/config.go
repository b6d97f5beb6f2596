// Package config loads service configuration from the environment.
//
// Order of precedence, highest first: process environment, .env file, the
// optional YAML file named by CONFIG_FILE, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string   `mapstructure:"SERVER_PORT"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// DBDriver selects the store: "sqlite", "postgres" or "memory".
	DBDriver string `mapstructure:"DB_DRIVER"`
	DBPath   string `mapstructure:"DB_PATH"`
	DBDSN    string `mapstructure:"DB_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	Timezone               string        `mapstructure:"TIMEZONE"`
	RegimeFile             string        `mapstructure:"REGIME_FILE"`
	CalendarMinYear        int           `mapstructure:"CALENDAR_MIN_YEAR"`
	CalendarMaxYear        int           `mapstructure:"CALENDAR_MAX_YEAR"`
	MinJustificationLength int           `mapstructure:"MIN_JUSTIFICATION_LENGTH"`
	CurrencyPlaces         int32         `mapstructure:"CURRENCY_PLACES"`
	MaxSession             time.Duration `mapstructure:"MAX_SESSION"`

	TracingExporter string `mapstructure:"TRACING_EXPORTER"` // none | stdout | otlp
	OTLPEndpoint    string `mapstructure:"OTLP_ENDPOINT"`

	EnableScenarios bool          `mapstructure:"ENABLE_SCENARIOS"`
	StoreRetries    int           `mapstructure:"STORE_RETRIES"`
	BreakerTimeout  time.Duration `mapstructure:"BREAKER_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":              "8080",
	"CORS_ORIGINS":             []string{"http://localhost:3000", "http://localhost:5173"},
	"DB_DRIVER":                "sqlite",
	"DB_PATH":                  "./workhours.db",
	"DB_DSN":                   "",
	"LOG_LEVEL":                "info",
	"LOG_PRETTY":               false,
	"JWT_SECRET":               "",
	"TOKEN_TTL":                "12h",
	"TIMEZONE":                 "America/Bogota",
	"REGIME_FILE":              "",
	"CALENDAR_MIN_YEAR":        1900,
	"CALENDAR_MAX_YEAR":        2100,
	"MIN_JUSTIFICATION_LENGTH": 20,
	"CURRENCY_PLACES":          2,
	"MAX_SESSION":              "16h",
	"TRACING_EXPORTER":         "none",
	"OTLP_ENDPOINT":            "localhost:4317",
	"ENABLE_SCENARIOS":         false,
	"STORE_RETRIES":            3,
	"BREAKER_TIMEOUT":          "30s",
}

// Load reads configuration. A missing .env is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "memory":
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.TracingExporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("unknown TRACING_EXPORTER %q", c.TracingExporter)
	}
	if c.CalendarMinYear > c.CalendarMaxYear {
		return fmt.Errorf("CALENDAR_MIN_YEAR %d is after CALENDAR_MAX_YEAR %d", c.CalendarMinYear, c.CalendarMaxYear)
	}
	if c.MinJustificationLength < 0 {
		return errors.New("MIN_JUSTIFICATION_LENGTH must not be negative")
	}
	if c.MaxSession <= 0 {
		return errors.New("MAX_SESSION must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone. Validate has already checked it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
