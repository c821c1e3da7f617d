package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tankobon/internal/config"
)

const seriesJSON = `{
	"series_id": 42,
	"title": "Naruto",
	"url": "https://www.mangaupdates.com/series/abc/naruto",
	"description": "A ninja story.",
	"type": "Manga",
	"year": "1999",
	"genres": [{"genre": "Action"}],
	"status": "72 Volumes (Complete)",
	"completed": true
}`

func newFakeMangaUpdates(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /series/search", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_hits":1,"results":[
			{"record":{"series_id":42,"title":"Naruto","type":"Manga"},"hit_title":"Naruto"}
		]}`))
	})
	mux.HandleFunc("GET /series/42", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(seriesJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliTestEnv struct {
	base        string
	configPath  string
	providerURL string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TANKOBON_API_TOKEN", "")
	t.Setenv("TANKOBON_NTFY_TOPIC", "")

	env := &cliTestEnv{
		base:        base,
		configPath:  filepath.Join(base, "config.toml"),
		providerURL: newFakeMangaUpdates(t).URL,
	}
	env.writeConfig(t, "127.0.0.1:1")
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T, bind string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[server]
bind = %q
api_token = "secret"

[logging]
level = "error"

[providers.mangaupdates]
enabled = true
priority = 10
base_url = %q
`, filepath.Join(e.base, "data"), filepath.Join(e.base, "logs"), bind, e.providerURL)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) config(t *testing.T) *config.Config {
	t.Helper()
	cfg, _, _, err := config.Load(e.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
