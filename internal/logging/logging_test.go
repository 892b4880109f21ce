package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesJSONWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(Config{
		Level:      "debug",
		Format:     "json",
		OutputPath: path,
		Fields:     map[string]string{"service": "moldquote"},
	})
	require.NoError(t, err)

	logger.WithField("tool", "T1").Debug("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "moldquote", entry["service"])
	assert.Equal(t, "T1", entry["tool"])
}

func TestNewLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(Config{Level: "chatty", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	parent := NewNop().WithField("a", 1)
	child := parent.WithFields(map[string]interface{}{"b": 2})

	assert.Equal(t, map[string]interface{}{"a": 1}, parent.Fields())
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, child.Fields())
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger("moldquote-server")
	require.NotNil(t, logger)
	assert.Equal(t, "moldquote-server", logger.Fields()["service"])
}
