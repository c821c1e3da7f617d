package config

import (
	"fmt"
	"os"
	"strings"

	"tankobon/internal/metadata"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeNotifications()
	c.normalizeResolver()
	c.normalizeProviders()
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
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("TANKOBON_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TANKOBON_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeResolver() {
	if c.Resolver.ProviderTimeout <= 0 {
		c.Resolver.ProviderTimeout = defaultResolverTimeout
	}
	if c.Resolver.SearchLimit <= 0 {
		c.Resolver.SearchLimit = defaultResolverSearchLimit
	}
	if c.Resolver.Workers <= 0 {
		c.Resolver.Workers = defaultResolverWorkers
	}
}

func (c *Config) normalizeProviders() {
	for _, id := range metadata.AllProviders() {
		section := c.Providers.Get(id)
		section.MediaType = strings.ToLower(strings.TrimSpace(section.MediaType))
		if section.MediaType == "" {
			section.MediaType = defaultMediaType
		}
		section.NameMatchingMode = strings.ToLower(strings.TrimSpace(section.NameMatchingMode))
		if section.NameMatchingMode == "" {
			section.NameMatchingMode = defaultNameMatchingMode
		}
		section.BaseURL = strings.TrimRight(strings.TrimSpace(section.BaseURL), "/")
	}
	if c.Providers.MangaUpdates.BaseURL == "" {
		c.Providers.MangaUpdates.BaseURL = defaultMangaUpdatesBaseURL
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
}
