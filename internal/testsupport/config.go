// Package testsupport provides shared helpers for package tests: temp-dir
// configs, store setup, and a scripted fake publish client.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Upload.BackoffInitialMS = 1
	cfg.Upload.BackoffMaxMS = 5
	cfg.Workflow.ReconcilePollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMaxAttempts overrides the upload retry budget on the test config.
func WithMaxAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Upload.MaxAttempts = attempts
	}
}

// WithBackoff overrides the upload retry backoff window on the test config.
func WithBackoff(initialMS, maxMS int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Upload.BackoffInitialMS = initialMS
		cfg.Upload.BackoffMaxMS = maxMS
	}
}

// WithNtfyTopic points notifications at a test server.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
		cfg.Notifications.Uploads = true
		cfg.Notifications.Errors = true
	}
}
