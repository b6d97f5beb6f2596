/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the work-hours server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, CONFIG_FILE, environment)
  2. Configure logging and tracing
  3. Open the store (sqlite, postgres or memory) behind the circuit breaker
  4. Build calendar, regime and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  See config/config.go for every key. The essentials:
    JWT_SECRET        Required. HS256 key for bearer tokens
    DB_DRIVER         sqlite (default) | postgres | memory
    DB_PATH / DB_DSN  Store location
    REGIME_FILE       Optional YAML regime, see factory/regime.go
    ENABLE_SCENARIOS  Allow POST /api/scenarios/load (wipes the store)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Flush traces and close the store
  4. Exit

EXAMPLES:
  # Local development with pretty logs and demo scenarios
  JWT_SECRET=dev LOG_PRETTY=true ENABLE_SCENARIOS=true ./server

  # PostgreSQL with OTLP tracing
  DB_DRIVER=postgres DB_DSN=postgres://... TRACING_EXPORTER=otlp ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - cmd/tokengen: Issue bearer tokens for local use
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/warp/workhours/api"
	"github.com/warp/workhours/calendar"
	"github.com/warp/workhours/config"
	"github.com/warp/workhours/factory"
	"github.com/warp/workhours/generic"
	memstore "github.com/warp/workhours/generic/store"
	"github.com/warp/workhours/logger"
	"github.com/warp/workhours/payroll"
	"github.com/warp/workhours/store/postgres"
	"github.com/warp/workhours/store/resilient"
	"github.com/warp/workhours/store/sqlite"
	"github.com/warp/workhours/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// backend is a concrete store before the resilience wrapper.
type backend interface {
	generic.Store
	Reset(ctx context.Context) error
}

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Configure structured logging
	base := logger.Setup(cfg.LogLevel, cfg.LogPretty)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer(context.Background(), "workhours-api", cfg.TracingExporter, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// Store
	db, ping, closeDB, err := openStore(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Error opening store")
	}
	defer closeDB()
	log.Info().Str("driver", cfg.DBDriver).Msg("Store ready")

	settings := resilient.DefaultSettings()
	settings.ReadAttempts = cfg.StoreRetries
	settings.Timeout = cfg.BreakerTimeout
	store := resilient.New(db, settings, base)

	// Domain
	regime, err := loadRegime(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load regime")
	}
	cal := calendar.New(calendar.WithYearRange(cfg.CalendarMinYear, cfg.CalendarMaxYear))

	handler := api.NewHandler(store, cal, regime, base)
	handler.Overtime.MinJustification = cfg.MinJustificationLength
	handler.CurrencyPlaces = cfg.CurrencyPlaces
	handler.Timesheet.MaxSession = cfg.MaxSession
	handler.Health = func(ctx context.Context) error {
		if store.State() == gobreaker.StateOpen {
			return errors.New("store circuit breaker is open")
		}
		return ping(ctx)
	}
	if cfg.EnableScenarios {
		handler.Reset = db.Reset
		log.Warn().Msg("Scenario loading enabled: POST /api/scenarios/load wipes the store")
	}

	router := api.NewRouter(handler, api.RouterOptions{
		JWTSecret:      []byte(cfg.JWTSecret),
		AllowedOrigins: cfg.CORSOrigins,
	})

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.EnrichContextWithLogger(r.Context(), base)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelhttp.NewHandler(loggerMiddleware(router), "api"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.ServerPort).
			Str("timezone", regime.Location.String()).
			Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

// openStore returns the configured backend with its health check and closer.
func openStore(ctx context.Context, cfg config.Config) (backend, func(context.Context) error, func(), error) {
	switch cfg.DBDriver {
	case "sqlite":
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s.Ping, func() { s.Close() }, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DBDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s.Ping, func() { s.Close() }, nil
	case "memory":
		return memstore.NewMemory(), func(context.Context) error { return nil }, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

// loadRegime reads REGIME_FILE, or returns the statutory regime in TIMEZONE.
func loadRegime(cfg config.Config) (payroll.Regime, error) {
	if cfg.RegimeFile == "" {
		return payroll.DefaultRegime(cfg.Location()), nil
	}
	f := factory.NewRegimeFactory()
	f.DefaultLocation = cfg.Location()
	regime, err := f.LoadRegime(cfg.RegimeFile)
	if err != nil {
		return payroll.Regime{}, err
	}
	log.Info().
		Str("file", cfg.RegimeFile).
		Dur("daily_ordinary", regime.DailyOrdinary).
		Msg("Regime loaded")
	return regime, nil
}
