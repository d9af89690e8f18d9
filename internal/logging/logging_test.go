package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	require.NoError(t, err)

	logger.Named("stage").Info("tick", zap.Int("avatars", 3))
	logger.Debug("hidden")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "tick", entry["message"])
	assert.Equal(t, "stage", entry["logger"])
	assert.Equal(t, float64(3), entry["avatars"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ParsesLevelCaseInsensitively(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("DEBUG", &buf)
	require.NoError(t, err)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", nil)
	assert.Error(t, err)
}
