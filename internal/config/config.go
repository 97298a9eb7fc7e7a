// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Storage
	StorageDir    string
	FileTTL       time.Duration // how long processed files stay downloadable
	SweepInterval time.Duration // expired-file cleanup cadence

	// Upload limits
	MaxUploadBytes int64

	// Processing
	Workers      int    // concurrent render jobs
	OutputFormat string // default output format
	LogLevel     string
	RandomSeed   int64 // 0 means randomize per run
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		StorageDir:    envStr("VINYLFY_STORAGE_DIR", "/tmp/vinylfy/processed"),
		FileTTL:       time.Duration(envInt("VINYLFY_FILE_TTL_HOURS", 1)) * time.Hour,
		SweepInterval: time.Duration(envInt("VINYLFY_SWEEP_MINUTES", 30)) * time.Minute,

		MaxUploadBytes: int64(envInt("VINYLFY_MAX_UPLOAD_MB", 25)) * 1024 * 1024,

		Workers:      envInt("VINYLFY_WORKERS", 4),
		OutputFormat: envStr("VINYLFY_OUTPUT_FORMAT", "wav"),
		LogLevel:     envStr("VINYLFY_LOG_LEVEL", "info"),
		RandomSeed:   int64(envInt("VINYLFY_SEED", 0)),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
