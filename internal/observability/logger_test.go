package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf, ServiceName: "pdf-cropper"})

	logger.WithRun("run-1").WithOperation("crop").Info().
		Str("file", "a.pdf").
		Int("page", 2).
		Err(errors.New("boom")).
		Msg("page processed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pdf-cropper", entry["service"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "crop", entry["operation"])
	assert.Equal(t, "a.pdf", entry["file"])
	assert.Equal(t, float64(2), entry["page"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "page processed", entry["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden too")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	assert.NotPanics(t, func() {
		logger.Error().Str("k", "v").Msg("discarded")
		logger.With().Str("k", "v").Logger().Info().Msg("discarded")
	})
}
