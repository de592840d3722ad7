package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Upload.MaxAttempts != defaultUploadMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.Upload.MaxAttempts)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := strings.Join([]string{
		"[upload]",
		"max_attempts = 7",
		"[logging]",
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Upload.MaxAttempts != 7 {
		t.Fatalf("expected max_attempts=7, got %d", cfg.Upload.MaxAttempts)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level=debug, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsPartialCredentials(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.YouTube.ClientID = "id-only"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for partial youtube credentials")
	}
}

func TestValidateRejectsBadPrivacyStatus(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.YouTube.PrivacyStatus = "secret"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid privacy status")
	}
}

func TestValidateRejectsBackoffInversion(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Upload.BackoffInitialMS = 5000
	cfg.Upload.BackoffMaxMS = 100
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when backoff max < initial")
	}
}

func TestEnvironmentOverridesCredentials(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "env-id")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "env-secret")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "env-token")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !cfg.HasYouTubeCredentials() {
		t.Fatal("expected credentials from environment")
	}
	if cfg.YouTube.ClientID != "env-id" {
		t.Fatalf("expected env client id, got %q", cfg.YouTube.ClientID)
	}
}
