package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lauri/vocaflow/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:                 ":8080",
		DBPath:               "test.db",
		LogLevel:             "INFO",
		DefaultDailyTarget:   10,
		DebounceMillis:       2000,
		PoolUnlockThreshold:  50,
		StagingRetentionDays: 7,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	err := validConfig().Validate()
	assert.NoError(t, err)
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_NonPositiveTarget(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultDailyTarget = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_DAILY_TARGET")
}

func TestValidate_NonPositiveDebounce(t *testing.T) {
	cfg := validConfig()
	cfg.DebounceMillis = -5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEBOUNCE_MS")
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ADDR", "DB_PATH", "LOG_LEVEL", "DEFAULT_DAILY_TARGET", "DEBOUNCE_MS", "POOL_UNLOCK_THRESHOLD", "STAGING_RETENTION_DAYS"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := config.Load()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10, cfg.DefaultDailyTarget)
	assert.Equal(t, 2000, cfg.DebounceMillis)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_DAILY_TARGET", "25")
	t.Setenv("DEBOUNCE_MS", "500")

	cfg := config.Load()

	assert.Equal(t, 25, cfg.DefaultDailyTarget)
	assert.Equal(t, 500, cfg.DebounceMillis)
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DEBOUNCE_MS", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, 2000, cfg.DebounceMillis)
}
