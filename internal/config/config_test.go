package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "POLICY_PATH",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "JWT_SECRET", "SEED_PRESETS", "SHUTDOWN_TIMEOUT",
}

// clearEnv empties every variable the package reads. t.Setenv restores the
// previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.AuthEnabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/mq.db")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SEED_PRESETS", "false")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/mq.db", cfg.DBPath)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.True(t, cfg.AuthEnabled())
	assert.False(t, cfg.SeedPresets)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"PORT":             "abc",
		"RATE_LIMIT_RPS":   "0",
		"RATE_LIMIT_BURST": "-1",
		"SEED_PRESETS":     "maybe",
		"SHUTDOWN_TIMEOUT": "soon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\nLOG_LEVEL=debug\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "6060")
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7070\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Port)
}

func TestLoadMissingFileIgnored(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}
