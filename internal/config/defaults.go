package config

const (
	defaultDataDir               = "~/.local/share/scriptcast"
	defaultLogDir                = "~/.local/share/scriptcast/logs"
	defaultAPIBind               = "127.0.0.1:7621"
	defaultCategoryID            = "22"
	defaultPrivacyStatus         = "private"
	defaultLanguage              = "en"
	defaultUploadMaxAttempts     = 3
	defaultBackoffInitialMS      = 500
	defaultBackoffMaxMS          = 30_000
	defaultUploadRequestTimeout  = 1800
	defaultStatusTimeout         = 30
	defaultTransitionRetries     = 5
	defaultReconcilePollInterval = 30
	defaultEventBufferSize       = 512
	defaultSubscriberQueue       = 64
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		YouTube: YouTube{
			CategoryID:      defaultCategoryID,
			PrivacyStatus:   defaultPrivacyStatus,
			DefaultLanguage: defaultLanguage,
		},
		Upload: Upload{
			MaxAttempts:      defaultUploadMaxAttempts,
			BackoffInitialMS: defaultBackoffInitialMS,
			BackoffMaxMS:     defaultBackoffMaxMS,
			RequestTimeout:   defaultUploadRequestTimeout,
			StatusTimeout:    defaultStatusTimeout,
		},
		Workflow: Workflow{
			TransitionRetries:     defaultTransitionRetries,
			ReconcilePollInterval: defaultReconcilePollInterval,
		},
		Events: Events{
			BufferSize:      defaultEventBufferSize,
			SubscriberQueue: defaultSubscriberQueue,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Uploads:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
