package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Service is attached to every log line.
const Service = "radcr-backend"

// Setup initializes the global zerolog logger.
//   - level: trace, debug, info, warn, error, fatal, panic (unknown values fall back to info)
//   - format: "pretty" for a human-readable console, anything else for JSON lines
//
// Caller locations are only recorded at debug level and below.
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New is Setup with an explicit destination.
func New(out io.Writer, level, format string) zerolog.Logger {
	if format == "pretty" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.DurationFieldUnit = time.Millisecond

	ctx := zerolog.New(out).With().Timestamp().Str("service", Service)
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}
