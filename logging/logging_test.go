package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastrep.log")

	logger, err := New(Config{Level: "debug", Encoding: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("step", zap.String("scene", "gym"), zap.Int("week", 3))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"step"`)
	assert.Contains(t, string(data), `"scene":"gym"`)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastrep.log")

	logger, err := New(Config{Level: "warn", OutputPath: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Config{Level: "chatty", OutputPath: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)

	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(Config{OutputPath: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
