package providers

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"tankobon/internal/config"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/services"
)

// Entry pairs a provider with its configured priority and book field policy.
type Entry struct {
	Provider   MetadataProvider
	Priority   int
	BookFields metadata.BookFieldMask
}

// Registry lists providers in ascending priority order.
type Registry struct {
	entries []Entry
}

// NewRegistry sorts entries by priority. Ties keep their given order.
func NewRegistry(entries ...Entry) *Registry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return a.Priority - b.Priority
	})
	return &Registry{entries: sorted}
}

// Entries returns the registered providers in query order.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	return slices.Clone(r.entries)
}

// Get looks up a provider by id.
func (r *Registry) Get(id metadata.ProviderID) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	for _, entry := range r.entries {
		if entry.Provider.ProviderName() == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// Len reports the number of registered providers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Settings is what a Factory receives to build one provider.
type Settings struct {
	ID          metadata.ProviderID
	Config      config.Provider
	SearchLimit int
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Factory constructs a provider from its configuration section.
type Factory func(Settings) (MetadataProvider, error)

// Build constructs every enabled provider in cfg using factories. Enabling a
// provider with no factory is a configuration error.
func Build(cfg *config.Config, factories map[metadata.ProviderID]Factory, httpClient *http.Client, logger *slog.Logger) (*Registry, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "providers", "build", "config is nil", nil)
	}
	var entries []Entry
	for _, id := range cfg.Providers.Enabled() {
		factory, ok := factories[id]
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "providers", "build",
				fmt.Sprintf("provider %s is enabled but not available in this build", id), nil)
		}
		section := *cfg.Providers.Get(id)
		provider, err := factory(Settings{
			ID:          id,
			Config:      section,
			SearchLimit: cfg.Resolver.SearchLimit,
			HTTPClient:  httpClient,
			Logger:      logging.NewComponentLogger(logger, string(id)),
		})
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", id, err)
		}
		entries = append(entries, Entry{
			Provider:   provider,
			Priority:   section.Priority,
			BookFields: section.BookFields,
		})
	}
	return NewRegistry(entries...), nil
}
