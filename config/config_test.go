package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workhours/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 1900, cfg.CalendarMinYear)
	assert.Equal(t, 2100, cfg.CalendarMaxYear)
	assert.Equal(t, 20, cfg.MinJustificationLength)
	assert.Equal(t, int32(2), cfg.CurrencyPlaces)
	assert.Equal(t, 30*time.Second, cfg.BreakerTimeout)
	assert.Equal(t, 16*time.Hour, cfg.MaxSession)
	assert.False(t, cfg.EnableScenarios)
	assert.Equal(t, "America/Bogota", cfg.Location().String())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MIN_JUSTIFICATION_LENGTH", "40")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 40, cfg.MinJustificationLength)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workhours.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: \"7070\"\ncalendar_max_year: 2050\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, 2050, cfg.CalendarMaxYear)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string][2]string{
		"unknown driver":       {"DB_DRIVER", "oracle"},
		"postgres without dsn": {"DB_DRIVER", "postgres"},
		"unknown exporter":     {"TRACING_EXPORTER", "zipkin"},
		"bad timezone":         {"TIMEZONE", "Nowhere/Land"},
		"inverted year range":  {"CALENDAR_MIN_YEAR", "2200"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := config.Load()
	assert.Error(t, err)
}
