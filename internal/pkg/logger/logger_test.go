package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSettings(t *testing.T) {
	cfg := FromSettings("DEBUG", "text")
	assert.Equal(t, DebugLevel, cfg.Level)
	assert.True(t, cfg.Pretty)

	cfg = FromSettings("warn", "json")
	assert.Equal(t, WarnLevel, cfg.Level)
	assert.False(t, cfg.Pretty)
}

func TestConfigureWritesJSON(t *testing.T) {
	defer Configure(Config{Level: InfoLevel, Pretty: true})

	var buf bytes.Buffer
	Configure(Config{Level: WarnLevel, Output: &buf})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	Info().Msg("dropped")
	component := Component("reminders")
	component.Warn().Msg("kept")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "reminders", line["component"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, LogLevel("loud").parse())
	assert.Equal(t, zerolog.InfoLevel, LogLevel("").parse())
	assert.Equal(t, zerolog.ErrorLevel, ErrorLevel.parse())
}
