package config

const (
	defaultDataDir            = "~/.local/share/bananadb"
	defaultUploadDir          = "~/.local/share/bananadb/uploads"
	defaultLogDir             = "~/.local/share/bananadb/logs"
	defaultAPIBind            = "127.0.0.1:8000"
	defaultCollectorURL       = "http://localhost:8000"
	defaultVisionBaseURL      = "https://openrouter.ai/api/v1/chat/completions"
	defaultVisionModel        = "google/gemini-2.0-flash-001"
	defaultVisionReferer      = "https://github.com/bananadb/bananadb"
	defaultVisionTitle        = "BananaDB"
	defaultVisionTimeout      = 90
	defaultFetchTimeout       = 30
	defaultFetchMaxMiB        = 50
	defaultFetchUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultNotifyTimeout      = 10
	defaultNotifyIconURL      = "icons/icon128.png"
	defaultExtensionHostName  = "com.bananadb.host"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 20
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 30
	defaultDatabaseFilename   = "bananadb.db"
	defaultServerLockFilename = "bananadb-server.lock"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Collector: Collector{
			URL: defaultCollectorURL,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			Referer:        defaultVisionReferer,
			Title:          defaultVisionTitle,
			TimeoutSeconds: defaultVisionTimeout,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			MaxMiB:         defaultFetchMaxMiB,
			UserAgent:      defaultFetchUserAgent,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Browser:        true,
			IconURL:        defaultNotifyIconURL,
		},
		Extension: Extension{
			HostName: defaultExtensionHostName,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
