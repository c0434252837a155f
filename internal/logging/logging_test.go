package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Run("writes JSON with component field", func(t *testing.T) {
		var buf bytes.Buffer
		log := Component(NewWithWriter(Config{Level: "info"}, &buf), "prices")

		log.Info().Str("ticker", "AAPL").Msg("fetched")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "info", entry["level"])
		assert.Equal(t, "prices", entry["component"])
		assert.Equal(t, "AAPL", entry["ticker"])
		assert.Equal(t, "fetched", entry["message"])
		assert.Contains(t, entry, "time")
	})

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Level: "warn"}, &buf)

		log.Info().Msg("hidden")
		assert.Zero(t, buf.Len())

		log.Warn().Msg("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("pretty output is not JSON", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(Config{Pretty: true}, &buf)

		log.Info().Msg("hello")
		assert.Contains(t, buf.String(), "hello")
		assert.False(t, json.Valid(buf.Bytes()))
	})
}
