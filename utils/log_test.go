package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, TRACE, ParseLevel("trace"))
	assert.Equal(t, DEBUG, ParseLevel("DEBUG"))
	assert.Equal(t, WARN, ParseLevel("warning"))
	assert.Equal(t, CRITICAL, ParseLevel(" critical "))
	assert.Equal(t, INFO, ParseLevel("bogus"))
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, INFO)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown 2")
	assert.Contains(t, out, "[ERROR] also shown")
	assert.False(t, log.Enabled(DEBUG))

	log.SetMinLevel(TRACE)
	assert.True(t, log.Enabled(TRACE))
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, TRACE)

	log.With("runner").With("rx").Warn("stalled")
	assert.Contains(t, buf.String(), "[WARN] runner.rx: stalled")

	// derived loggers share the level
	log.SetMinLevel(ERROR)
	log.With("runner").Warn("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teleop.log")
	log, err := NewFileLogger(path, DEBUG, false)
	require.NoError(t, err)

	log.Debug("frame %s", "TELEOP_CMD")
	require.NoError(t, log.Close())
	require.NoError(t, log.Close())

	// writes after close are dropped
	log.Info("late")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "[DEBUG] frame TELEOP_CMD\n"))
}
