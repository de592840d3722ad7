package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateUpload(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateYouTube()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateUpload() error {
	if err := ensurePositiveMap(map[string]int{
		"upload.max_attempts":       c.Upload.MaxAttempts,
		"upload.backoff_initial_ms": c.Upload.BackoffInitialMS,
		"upload.backoff_max_ms":     c.Upload.BackoffMaxMS,
		"upload.request_timeout":    c.Upload.RequestTimeout,
		"upload.status_timeout":     c.Upload.StatusTimeout,
	}); err != nil {
		return err
	}
	if c.Upload.BackoffMaxMS < c.Upload.BackoffInitialMS {
		return errors.New("upload.backoff_max_ms must be >= upload.backoff_initial_ms")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.transition_retries":      c.Workflow.TransitionRetries,
		"workflow.reconcile_poll_interval": c.Workflow.ReconcilePollInterval,
	})
}

func (c *Config) validateEvents() error {
	return ensurePositiveMap(map[string]int{
		"events.buffer_size":      c.Events.BufferSize,
		"events.subscriber_queue": c.Events.SubscriberQueue,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateYouTube() error {
	// Credentials are optional; the daemon falls back to a disabled publisher
	// and rejects startUpload with a configuration error. Partial credentials
	// are a config mistake worth failing fast on.
	set := 0
	for _, v := range []string{c.YouTube.ClientID, c.YouTube.ClientSecret, c.YouTube.RefreshToken} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return errors.New("youtube credentials are partial: set client_id, client_secret, and refresh_token together (or none)")
	}
	if strings.TrimSpace(c.YouTube.PrivacyStatus) != "" {
		switch c.YouTube.PrivacyStatus {
		case "public", "private", "unlisted":
		default:
			return fmt.Errorf("youtube.privacy_status must be public, private, or unlisted, got %q", c.YouTube.PrivacyStatus)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
