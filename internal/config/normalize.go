package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCollector(); err != nil {
		return err
	}
	c.normalizeVision()
	c.normalizeFetch()
	c.normalizeNotifications()
	c.normalizeExtension()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.UploadDir) == "" {
		c.Paths.UploadDir = defaultUploadDir
	}
	if c.Paths.UploadDir, err = expandPath(c.Paths.UploadDir); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("BANANADB_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeCollector() error {
	c.Collector.URL = strings.TrimRight(strings.TrimSpace(c.Collector.URL), "/")
	if c.Collector.URL == "" {
		c.Collector.URL = defaultCollectorURL
	}
	if _, err := url.Parse(c.Collector.URL); err != nil {
		return fmt.Errorf("collector.url: %w", err)
	}
	if c.Collector.TimeoutSeconds < 0 {
		c.Collector.TimeoutSeconds = 0
	}
	return nil
}

func (c *Config) normalizeVision() {
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	c.Vision.Referer = strings.TrimSpace(c.Vision.Referer)
	if c.Vision.Referer == "" {
		c.Vision.Referer = defaultVisionReferer
	}
	c.Vision.Title = strings.TrimSpace(c.Vision.Title)
	if c.Vision.Title == "" {
		c.Vision.Title = defaultVisionTitle
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		for _, key := range []string{"BANANADB_VISION_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.Vision.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
}

func (c *Config) normalizeFetch() {
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
	if c.Fetch.MaxMiB <= 0 {
		c.Fetch.MaxMiB = defaultFetchMaxMiB
	}
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Notifications.IconURL = strings.TrimSpace(c.Notifications.IconURL)
	if c.Notifications.IconURL == "" {
		c.Notifications.IconURL = defaultNotifyIconURL
	}
}

func (c *Config) normalizeExtension() {
	c.Extension.ID = strings.TrimSpace(c.Extension.ID)
	if c.Extension.ID == "" {
		if value, ok := os.LookupEnv("BANANADB_EXTENSION_ID"); ok {
			c.Extension.ID = strings.TrimSpace(value)
		}
	}
	c.Extension.HostName = strings.TrimSpace(c.Extension.HostName)
	if c.Extension.HostName == "" {
		c.Extension.HostName = defaultExtensionHostName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
