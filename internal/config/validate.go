package config

import (
	"errors"
	"fmt"

	"tankobon/internal/metadata"
	"tankobon/internal/namematch"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateResolver() error {
	return ensurePositiveMap(map[string]int{
		"resolver.provider_timeout":     c.Resolver.ProviderTimeout,
		"resolver.search_limit":         c.Resolver.SearchLimit,
		"resolver.workers":              c.Resolver.Workers,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateProviders() error {
	enabled := c.Providers.Enabled()
	if len(enabled) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("at least one provider must be enabled; edit %s (create with 'tankobon config init')", defaultPath)
	}
	priorities := make(map[int]metadata.ProviderID, len(enabled))
	for _, id := range enabled {
		section := c.Providers.Get(id)
		if _, ok := metadata.ParseMediaType(section.MediaType); !ok {
			return fmt.Errorf("providers.%s.media_type %q is not one of manga, novel, comic, webtoon", id, section.MediaType)
		}
		if _, err := namematch.ParseMode(section.NameMatchingMode); err != nil {
			return fmt.Errorf("providers.%s.name_matching_mode: %w", id, err)
		}
		if other, dup := priorities[section.Priority]; dup {
			return fmt.Errorf("providers.%s.priority %d duplicates providers.%s", id, section.Priority, other)
		}
		priorities[section.Priority] = id
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
