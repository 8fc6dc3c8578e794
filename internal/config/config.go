package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	UploadDir string `toml:"upload_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// Collector describes the collection endpoint the capture coordinator posts to.
type Collector struct {
	URL string `toml:"url"`
	// TimeoutSeconds bounds the collect call. Zero leaves the call unbounded.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Vision contains the chat-completions connection used for prompt analysis.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Fetch controls how the server downloads images referenced by URL.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxMiB         int    `toml:"max_mib"`
	UserAgent      string `toml:"user_agent"`
}

// Notifications contains configuration for capture outcome notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Browser        bool   `toml:"browser"`
	IconURL        string `toml:"icon_url"`
}

// Extension identifies the browser extension allowed to talk to BananaDB.
type Extension struct {
	ID       string `toml:"id"`
	HostName string `toml:"host_name"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for BananaDB.
//
// Configuration sections by subsystem:
//   - Paths: data, upload, and log directories plus the API bind address
//   - Collector: the endpoint the capture coordinator saves images to
//   - Vision: chat-completions settings for prompt reverse-engineering
//   - Fetch: image download behaviour for collect-by-URL
//   - Notifications: ntfy topic and browser notification settings
//   - Extension: browser extension id and native messaging host name
//   - Logging: log format, level, and rotation
type Config struct {
	Paths         Paths         `toml:"paths"`
	Collector     Collector     `toml:"collector"`
	Vision        Vision        `toml:"vision"`
	Fetch         Fetch         `toml:"fetch"`
	Notifications Notifications `toml:"notifications"`
	Extension     Extension     `toml:"extension"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bananadb/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
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
		_, err = os.Stat(expanded)
		if err != nil {
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

	projectPath, err := filepath.Abs("bananadb.toml")
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

// EnsureDirectories creates required directories for server and host operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.UploadDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, defaultDatabaseFilename)
}

// ServerLockPath returns the lock file guarding single-instance server execution.
func (c *Config) ServerLockPath() string {
	return filepath.Join(c.Paths.DataDir, defaultServerLockFilename)
}

// CollectorTimeout returns the configured collect call timeout; zero means none.
func (c *Config) CollectorTimeout() time.Duration {
	if c.Collector.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Collector.TimeoutSeconds) * time.Second
}

// FetchMaxBytes returns the download size cap in bytes.
func (c *Config) FetchMaxBytes() int64 {
	return int64(c.Fetch.MaxMiB) << 20
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

// VisionConfig contains the vision connection settings in a transport-neutral shape.
type VisionConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetVision returns the vision connection settings.
func (c *Config) GetVision() VisionConfig {
	return VisionConfig{
		APIKey:         strings.TrimSpace(c.Vision.APIKey),
		BaseURL:        strings.TrimSpace(c.Vision.BaseURL),
		Model:          strings.TrimSpace(c.Vision.Model),
		Referer:        strings.TrimSpace(c.Vision.Referer),
		Title:          strings.TrimSpace(c.Vision.Title),
		TimeoutSeconds: c.Vision.TimeoutSeconds,
	}
}
