package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// YouTube contains credentials and defaults for the publishing API.
type YouTube struct {
	ClientID          string `toml:"client_id"`
	ClientSecret      string `toml:"client_secret"`
	RefreshToken      string `toml:"refresh_token"`
	CategoryID        string `toml:"category_id"`
	PrivacyStatus     string `toml:"privacy_status"`
	DefaultLanguage   string `toml:"default_language"`
	NotifySubscribers bool   `toml:"notify_subscribers"`
}

// Upload contains retry and timeout policy for publish calls.
type Upload struct {
	MaxAttempts      int `toml:"max_attempts"`
	BackoffInitialMS int `toml:"backoff_initial_ms"`
	BackoffMaxMS     int `toml:"backoff_max_ms"`
	RequestTimeout   int `toml:"request_timeout"`
	StatusTimeout    int `toml:"status_timeout"`
}

// Workflow contains orchestrator timing and retry intervals.
type Workflow struct {
	TransitionRetries     int `toml:"transition_retries"`
	ReconcilePollInterval int `toml:"reconcile_poll_interval"`
}

// Events contains sizing for the state-change event bus.
type Events struct {
	BufferSize      int `toml:"buffer_size"`
	SubscriberQueue int `toml:"subscriber_queue"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Uploads        bool   `toml:"uploads"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scriptcast.
//
// Sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - YouTube: publishing API credentials and upload defaults
//   - Upload: retry attempts, backoff bounds, call timeouts
//   - Workflow: orchestrator CAS retries and reconcile polling
//   - Events: event bus buffer sizing
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Upload        Upload        `toml:"upload"`
	Workflow      Workflow      `toml:"workflow"`
	Events        Events        `toml:"events"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scriptcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The second return is the resolved
// path, the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("scriptcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	// Environment wins over the file for credentials so tokens can stay out
	// of version-controlled configs.
	if v := strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_ID")); v != "" {
		c.YouTube.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_SECRET")); v != "" {
		c.YouTube.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("YOUTUBE_REFRESH_TOKEN")); v != "" {
		c.YouTube.RefreshToken = v
	}
	return nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the content item database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "scriptcast.db")
}

// LockFilePath returns the daemon singleton lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.DataDir, "scriptcastd.lock")
}

// HasYouTubeCredentials reports whether a real publish client can be built.
func (c *Config) HasYouTubeCredentials() bool {
	return strings.TrimSpace(c.YouTube.ClientID) != "" &&
		strings.TrimSpace(c.YouTube.ClientSecret) != "" &&
		strings.TrimSpace(c.YouTube.RefreshToken) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
