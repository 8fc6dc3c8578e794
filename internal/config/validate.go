package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCollector(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateExtension(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.UploadDir == "" {
		return errors.New("paths.upload_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateCollector() error {
	parsed, err := url.Parse(c.Collector.URL)
	if err != nil {
		return fmt.Errorf("collector.url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("collector.url must use http or https, got %q", c.Collector.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("collector.url must include a host, got %q", c.Collector.URL)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be a full URL (e.g. https://ntfy.sh/bananadb)")
	}
	return nil
}

func (c *Config) validateExtension() error {
	name := c.Extension.HostName
	for _, r := range name {
		if !(r == '.' || r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("extension.host_name %q may only contain lowercase letters, digits, '.' and '_'", name)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return fmt.Errorf("extension.host_name %q has an empty segment", name)
	}
	return nil
}
