package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.StorageDir != "/tmp/vinylfy/processed" {
		t.Errorf("StorageDir = %q, want default", cfg.StorageDir)
	}
	if cfg.FileTTL != time.Hour {
		t.Errorf("FileTTL = %v, want 1h", cfg.FileTTL)
	}
	if cfg.SweepInterval != 30*time.Minute {
		t.Errorf("SweepInterval = %v, want 30m", cfg.SweepInterval)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.OutputFormat != "wav" {
		t.Errorf("OutputFormat = %q, want wav", cfg.OutputFormat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("VINYLFY_STORAGE_DIR", "/var/lib/vinylfy")
	t.Setenv("VINYLFY_FILE_TTL_HOURS", "24")
	t.Setenv("VINYLFY_WORKERS", "2")
	t.Setenv("VINYLFY_SEED", "42")

	cfg := Load()

	if cfg.StorageDir != "/var/lib/vinylfy" {
		t.Errorf("StorageDir = %q", cfg.StorageDir)
	}
	if cfg.FileTTL != 24*time.Hour {
		t.Errorf("FileTTL = %v, want 24h", cfg.FileTTL)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.RandomSeed != 42 {
		t.Errorf("RandomSeed = %d, want 42", cfg.RandomSeed)
	}
}

func TestEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("VINYLFY_WORKERS", "not-a-number")

	cfg := Load()
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want fallback 4", cfg.Workers)
	}
}
