package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tankobon/internal/metadata"
	"tankobon/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"temp dir", dir, true},
		{"missing", filepath.Join(dir, "nope"), false},
		{"file", file, false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckDirectoryAccess("test", tt.path)
			if result.Passed != tt.want {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tt.want, result.Detail)
			}
			if result.Detail == "" {
				t.Fatal("expected non-empty detail")
			}
		})
	}
}

func TestCheckEndpoint(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	if result := CheckEndpoint(context.Background(), nil, "ok", notFound.URL); !result.Passed {
		t.Fatalf("expected 404 to count as reachable, got %s", result.Detail)
	}
	if result := CheckEndpoint(context.Background(), nil, "broken", broken.URL); result.Passed {
		t.Fatal("expected 502 to fail")
	}
	if result := CheckEndpoint(context.Background(), nil, "missing", ""); result.Passed {
		t.Fatal("expected missing url to fail")
	}
	if result := CheckEndpoint(context.Background(), nil, "closed", "http://127.0.0.1:1"); result.Passed {
		t.Fatal("expected closed port to fail")
	}
}

func TestRunAll(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer provider.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithProvider(metadata.ProviderMangaUpdates, provider.URL, 10))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}

	cfg.Notifications.NtfyTopic = "http://127.0.0.1:1/topic"
	results = RunAll(context.Background(), cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "ntfy" {
		t.Fatalf("expected ntfy failure, got %+v", failed)
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
