package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"tankobon/internal/metadata"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Server contains configuration for the HTTP API.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Resolved       bool   `toml:"resolved"`
	Errors         bool   `toml:"errors"`
}

// Resolver contains settings for the resolution pipeline.
type Resolver struct {
	// Aggregate keeps querying lower-priority providers after the first match
	// and fills remaining gaps from their results.
	Aggregate bool `toml:"aggregate"`
	// ProviderTimeout bounds each provider call, in seconds.
	ProviderTimeout int `toml:"provider_timeout"`
	SearchLimit     int `toml:"search_limit"`
	Workers         int `toml:"workers"`
}

// Provider configures one metadata provider.
type Provider struct {
	Enabled          bool                     `toml:"enabled"`
	Priority         int                      `toml:"priority"`
	MediaType        string                   `toml:"media_type"`
	NameMatchingMode string                   `toml:"name_matching_mode"`
	BaseURL          string                   `toml:"base_url"`
	SeriesFields     metadata.SeriesFieldMask `toml:"series_fields"`
	BookFields       metadata.BookFieldMask   `toml:"book_fields"`
}

// Providers holds one section per known provider. Fields that a file leaves
// out keep their defaults, including individual field-mask flags.
type Providers struct {
	MangaUpdates Provider `toml:"mangaupdates"`
	AniList      Provider `toml:"anilist"`
	MyAnimeList  Provider `toml:"myanimelist"`
	ComicVine    Provider `toml:"comicvine"`
	MangaDex     Provider `toml:"mangadex"`
	BookWalker   Provider `toml:"bookwalker"`
	Kodansha     Provider `toml:"kodansha"`
	Viz          Provider `toml:"viz"`
	YenPress     Provider `toml:"yenpress"`
	Nautiljon    Provider `toml:"nautiljon"`
	Bangumi      Provider `toml:"bangumi"`
	Hentag       Provider `toml:"hentag"`
}

// Get returns the section for id, or nil for an unknown provider.
func (p *Providers) Get(id metadata.ProviderID) *Provider {
	switch id {
	case metadata.ProviderMangaUpdates:
		return &p.MangaUpdates
	case metadata.ProviderAniList:
		return &p.AniList
	case metadata.ProviderMyAnimeList:
		return &p.MyAnimeList
	case metadata.ProviderComicVine:
		return &p.ComicVine
	case metadata.ProviderMangaDex:
		return &p.MangaDex
	case metadata.ProviderBookWalker:
		return &p.BookWalker
	case metadata.ProviderKodansha:
		return &p.Kodansha
	case metadata.ProviderViz:
		return &p.Viz
	case metadata.ProviderYenPress:
		return &p.YenPress
	case metadata.ProviderNautiljon:
		return &p.Nautiljon
	case metadata.ProviderBangumi:
		return &p.Bangumi
	case metadata.ProviderHentag:
		return &p.Hentag
	default:
		return nil
	}
}

// Enabled returns the IDs of enabled providers in declaration order.
func (p *Providers) Enabled() []metadata.ProviderID {
	var ids []metadata.ProviderID
	for _, id := range metadata.AllProviders() {
		if section := p.Get(id); section != nil && section.Enabled {
			ids = append(ids, id)
		}
	}
	return ids
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for tankobon.
//
// Configuration sections by subsystem:
//   - Paths: data directory (job database, lock file) and log directory
//   - Server: HTTP API bind address and bearer token
//   - Notifications: ntfy push notification settings
//   - Resolver: aggregation, per-provider timeout, search limit
//   - Providers: per-provider priority, media type, and field masks
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Resolver      Resolver      `toml:"resolver"`
	Providers     Providers     `toml:"providers"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tankobon.toml")
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

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the job database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// ResultsDir returns where resolved series records are written.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.Paths.DataDir, "results")
}

// LockPath returns the location of the server single-instance lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "tankobon.lock")
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

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
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
