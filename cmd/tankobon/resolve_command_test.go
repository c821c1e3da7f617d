package main

import (
	"context"
	"strings"
	"testing"

	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
	"tankobon/internal/resolver"
)

func TestDeriveSeriesName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"naruto", "Naruto"},
		{"library/one_piece", "One Piece"},
		{"attack-on-titan.cbz", "Attack On Titan"},
		{"JoJo_no_Kimyou", "JoJo No Kimyou"},
		{"  spaced__out  ", "Spaced Out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := deriveSeriesName(tt.in); got != tt.want {
			t.Errorf("deriveSeriesName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveCommandPrintsEventsAndPersistsJob(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "resolve", "naruto")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, want := range []string{
		"mangaupdates: searching series",
		"mangaupdates: done",
		"completed",
		"Matched: Naruto",
		"Sources: mangaupdates:42",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("output missing %q:\n%s", want, stdout)
		}
	}

	cfg := env.config(t)
	store, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	records, err := store.FindAll(context.Background(), nil, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].SeriesID != "naruto" || records[0].Status != jobs.StatusCompleted {
		t.Fatalf("unexpected jobs %+v", records)
	}

	saved, err := resolver.FileWriter{Dir: cfg.ResultsDir()}.ReadSeries("naruto")
	if err != nil {
		t.Fatalf("ReadSeries: %v", err)
	}
	if saved.Title() != "Naruto" {
		t.Fatalf("saved title = %q", saved.Title())
	}
}

func TestResolveCommandStructuredOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, env.configPath, "resolve", "library/naruto", "--format", "yaml")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, want := range []string{"series_id: library/naruto", "query: Naruto", "provider: mangaupdates"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "searching series") {
		t.Fatal("structured output should not include event lines")
	}

	stdout, _, err = runCLI(t, env.configPath, "resolve", "naruto", "-f", "json", "--name", "Naruto")
	if err != nil {
		t.Fatalf("resolve json: %v", err)
	}
	if !strings.Contains(stdout, `"series_id": "naruto"`) {
		t.Fatalf("json output missing series id:\n%s", stdout)
	}
}

func TestResolveCommandJSONPersistsCompletedJobs(t *testing.T) {
	env := setupCLITestEnv(t)

	// Without event printing the services close right after the terminal
	// event, so every run must still be stored as completed.
	const runs = 3
	for i := 0; i < runs; i++ {
		if _, _, err := runCLI(t, env.configPath, "resolve", "naruto", "--format", "json"); err != nil {
			t.Fatalf("resolve run %d: %v", i, err)
		}
	}

	store, err := jobstore.Open(env.config(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	records, err := store.FindAll(context.Background(), nil, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != runs {
		t.Fatalf("expected %d jobs, got %d", runs, len(records))
	}
	for _, job := range records {
		if job.Status != jobs.StatusCompleted || job.Message != "" {
			t.Fatalf("job %s stored as %s %q", job.ID, job.Status, job.Message)
		}
	}
}

func TestResolveCommandRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"format", []string{"resolve", "naruto", "--format", "xml"}, "unsupported format"},
		{"book number", []string{"resolve", "naruto", "--book-number", "one"}, "invalid --book-number"},
		{"cover", []string{"resolve", "naruto", "--cover", "/does/not/exist.png"}, "read cover"},
		{"args", []string{"resolve"}, "accepts 1 arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, env.configPath, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
