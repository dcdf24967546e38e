package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/unihub/internal/config"
)

func TestNew_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "unihub-api", "info")

	logger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "unihub-api", entry["service"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "", "warn")

	logger.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "", "chatty")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLogger_UsesConfig(t *testing.T) {
	logger := NewLogger(&config.Config{ServiceName: "unihub-api", LogLevel: "debug"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
