package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage != StorageFS {
		t.Errorf("default storage should be fs, got %q", cfg.Storage)
	}
	if cfg.StaleAfter != 5*time.Minute {
		t.Errorf("default stale threshold should be 5m, got %s", cfg.StaleAfter)
	}
	if cfg.SweepSchedule != "@every 2m" {
		t.Errorf("unexpected sweep schedule %q", cfg.SweepSchedule)
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("unexpected poll interval %s", cfg.PollInterval)
	}
	if cfg.HeartbeatEvery != 3 {
		t.Errorf("unexpected heartbeat cadence %d", cfg.HeartbeatEvery)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STALE_AFTER", "90s")
	t.Setenv("HEARTBEAT_EVERY", "5")
	t.Setenv("API_PORT", "9090")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StaleAfter != 90*time.Second {
		t.Errorf("expected 90s, got %s", cfg.StaleAfter)
	}
	if cfg.HeartbeatEvery != 5 {
		t.Errorf("expected 5, got %d", cfg.HeartbeatEvery)
	}
	if cfg.APIPort != "9090" {
		t.Errorf("expected 9090, got %q", cfg.APIPort)
	}
}

func TestFromEnv_UnknownStorage(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "gcs")

	if _, err := FromEnv(); err == nil {
		t.Error("expected error for unknown storage backend")
	}
}

func TestFromEnv_S3RequiresBucket(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "")

	if _, err := FromEnv(); err == nil {
		t.Error("expected error when S3_BUCKET is missing")
	}
}

func TestFromEnv_S3Valid(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "faktura-pdfs")
	t.Setenv("S3_REGION", "eu-west-1")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.S3Bucket != "faktura-pdfs" || cfg.S3Region != "eu-west-1" {
		t.Error("s3 settings should be read from the environment")
	}
}
