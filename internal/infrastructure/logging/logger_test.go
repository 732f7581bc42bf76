package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"loan-feature-engine/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("unknown"))
}

func TestNewLogger(t *testing.T) {
	t.Run("JSON encoding", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(config.LoggerConfig{Level: "info", Encoding: "json"}, &buf)

		logger.Info("pipeline finished", "entity", "loans")
		logger.Debug("hidden")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
		assert.Equal(t, "pipeline finished", entry["msg"])
		assert.Equal(t, "loans", entry["entity"])
	})

	t.Run("Text encoding", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(config.LoggerConfig{Level: "debug", Encoding: "text"}, &buf)

		logger.Debug("loading source")
		assert.Contains(t, buf.String(), "msg=\"loading source\"")
	})
}
