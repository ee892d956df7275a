package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                 string
	DBPath               string
	CorpusPath           string
	LogLevel             string
	DefaultDailyTarget   int
	DebounceMillis       int
	PoolUnlockThreshold  int
	StagingRetentionDays int
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                 envOr("ADDR", ":8080"),
		DBPath:               envOr("DB_PATH", "vocaflow.db"),
		CorpusPath:           envOr("CORPUS_PATH", ""),
		LogLevel:             envOr("LOG_LEVEL", "INFO"),
		DefaultDailyTarget:   envIntOr("DEFAULT_DAILY_TARGET", 10),
		DebounceMillis:       envIntOr("DEBOUNCE_MS", 2000),
		PoolUnlockThreshold:  envIntOr("POOL_UNLOCK_THRESHOLD", 50),
		StagingRetentionDays: envIntOr("STAGING_RETENTION_DAYS", 7),
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.DefaultDailyTarget <= 0 {
		return fmt.Errorf("DEFAULT_DAILY_TARGET must be positive, got %d", c.DefaultDailyTarget)
	}
	if c.DebounceMillis <= 0 {
		return fmt.Errorf("DEBOUNCE_MS must be positive, got %d", c.DebounceMillis)
	}
	if c.PoolUnlockThreshold < 0 {
		return fmt.Errorf("POOL_UNLOCK_THRESHOLD cannot be negative, got %d", c.PoolUnlockThreshold)
	}
	if c.StagingRetentionDays <= 0 {
		return fmt.Errorf("STAGING_RETENTION_DAYS must be positive, got %d", c.StagingRetentionDays)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
