// Package logging builds the zerolog loggers used across go-dexscan.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config contains logger configuration.
type Config struct {
	// Level sets the logging level (trace, debug, info, warn, error).
	Level string
	// Pretty enables human-readable console output.
	Pretty bool
	// Output sets the output writer (defaults to os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Pretty: true,
		Output: os.Stderr,
	}
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates a new zerolog logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// Component derives a sub-logger tagged with component.
func Component(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
