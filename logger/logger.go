package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger and returns it.
// An unknown level falls back to info.
func Setup(level string, pretty bool) zerolog.Logger {
	return New(os.Stderr, level, pretty)
}

// New builds a logger writing to w and makes it the global one.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		// Pretty printing for local development
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Str("service", "workhours").Logger()
	return log.Logger
}

// EnrichContextWithLogger adds a logger carrying the trace and span ids to ctx.
func EnrichContextWithLogger(ctx context.Context, base zerolog.Logger) context.Context {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return base.WithContext(ctx)
	}

	sCtx := span.SpanContext()
	if !sCtx.HasTraceID() {
		return base.WithContext(ctx)
	}

	l := base.With().
		Str("trace_id", sCtx.TraceID().String()).
		Str("span_id", sCtx.SpanID().String()).
		Logger()

	return l.WithContext(ctx)
}
