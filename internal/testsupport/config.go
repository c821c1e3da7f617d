package testsupport

import (
	"path/filepath"
	"testing"

	"tankobon/internal/config"
	"tankobon/internal/metadata"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithProvider enables id at the given base URL and priority.
func WithProvider(id metadata.ProviderID, baseURL string, priority int) ConfigOption {
	return func(b *configBuilder) {
		p := b.cfg.Providers.Get(id)
		if p == nil {
			b.t.Fatalf("unknown provider %q", id)
			return
		}
		p.Enabled = true
		p.BaseURL = baseURL
		p.Priority = priority
	}
}

// WithResolver overrides resolver tuning.
func WithResolver(fn func(*config.Resolver)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Resolver)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
