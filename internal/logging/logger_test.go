package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")

	out := buf.String()
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Output: &buf})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")

	out := buf.String()
	assert.NotContains(t, out, "trace message")
	assert.Contains(t, out, "debug message")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(Config{Level: "info", Output: &buf}), "scanner")

	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"scanner"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}

	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
