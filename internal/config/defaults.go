package config

import "tankobon/internal/metadata"

const (
	defaultConfigPath             = "~/.config/tankobon/config.toml"
	defaultDataDir                = "~/.local/share/tankobon"
	defaultLogDir                 = "~/.local/share/tankobon/logs"
	defaultServerBind             = "127.0.0.1:8085"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultNotifyRequestTimeout   = 10
	defaultResolverTimeout        = 60
	defaultResolverSearchLimit    = 10
	defaultResolverWorkers        = 4
	defaultMediaType              = string(metadata.MediaManga)
	defaultNameMatchingMode       = "closest_match"
	defaultMangaUpdatesBaseURL    = "https://api.mangaupdates.com/v1"
	defaultProviderPriorityStride = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Resolved:       true,
			Errors:         true,
		},
		Resolver: Resolver{
			ProviderTimeout: defaultResolverTimeout,
			SearchLimit:     defaultResolverSearchLimit,
			Workers:         defaultResolverWorkers,
		},
		Providers: defaultProviders(),
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultProviders() Providers {
	var providers Providers
	for i, id := range metadata.AllProviders() {
		section := providers.Get(id)
		*section = Provider{
			Priority:         (i + 1) * defaultProviderPriorityStride,
			MediaType:        defaultMediaType,
			NameMatchingMode: defaultNameMatchingMode,
			SeriesFields:     metadata.AllSeriesFields(),
			BookFields:       metadata.AllBookFields(),
		}
	}
	providers.MangaUpdates.Enabled = true
	providers.MangaUpdates.BaseURL = defaultMangaUpdatesBaseURL
	return providers
}
