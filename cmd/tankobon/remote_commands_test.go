package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tankobon/internal/api"
	"tankobon/internal/daemonrun"
	"tankobon/internal/jobs"
	"tankobon/internal/logging"
)

// startDaemonAPI serves the HTTP API in-process and points the CLI config at it.
func startDaemonAPI(t *testing.T, env *cliTestEnv) *logging.StreamHub {
	t.Helper()
	cfg := env.config(t)
	cfg.Server.Bind = "127.0.0.1:0"

	svc, err := daemonrun.Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	hub := logging.NewStreamHub(64)
	server := api.NewServer(cfg, api.Deps{
		Resolver: svc.Resolver,
		Tracker:  svc.Tracker,
		Store:    svc.Store,
		Registry: svc.Registry,
		Results:  svc.Results,
		Logs:     hub,
	}, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := server.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		server.Stop()
		_ = svc.Close()
	})
	env.writeConfig(t, server.Addr())
	return hub
}

func TestSubmitWatchFollowsJobToCompletion(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemonAPI(t, env)

	stdout, _, err := runCLI(t, env.configPath, "submit", "library/naruto", "--watch")
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, stdout)
	}
	// The job may finish before the first events request, so only the
	// final status is certain.
	for _, want := range []string{`Submitted job`, `for library/naruto ("Naruto")`, ": COMPLETED"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("submit output missing %q:\n%s", want, stdout)
		}
	}
}

func TestSubmitReportsValidationErrors(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemonAPI(t, env)

	_, _, err := runCLI(t, env.configPath, "submit", "naruto", "--book-number", "x")
	if err == nil || !strings.Contains(err.Error(), "invalid book number") {
		t.Fatalf("expected 400 from the daemon, got %v", err)
	}
}

func TestLogsCommandPrintsFilteredEvents(t *testing.T) {
	env := setupCLITestEnv(t)
	hub := startDaemonAPI(t, env)
	hub.Publish(logging.LogEvent{Level: "info", Message: "series matched", Component: "resolver", JobID: "j1", Provider: "mangaupdates"})
	hub.Publish(logging.LogEvent{Level: "warn", Message: "provider failed", Component: "tracker"})

	stdout, _, err := runCLI(t, env.configPath, "logs")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if !strings.Contains(stdout, "INFO [resolver] series matched job=j1 provider=mangaupdates") ||
		!strings.Contains(stdout, "WARN [tracker] provider failed") {
		t.Fatalf("unexpected logs output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, env.configPath, "logs", "--component", "tracker")
	if err != nil {
		t.Fatalf("logs --component: %v", err)
	}
	if strings.Contains(stdout, "series matched") || !strings.Contains(stdout, "provider failed") {
		t.Fatalf("unexpected filtered logs:\n%s", stdout)
	}
}

func TestRemoteCommandsExplainMissingDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	for _, args := range [][]string{
		{"logs"},
		{"submit", "naruto"},
		{"jobs", "watch", "00000000-0000-0000-0000-000000000000"},
	} {
		_, _, err := runCLI(t, env.configPath, args...)
		if err == nil || !strings.Contains(err.Error(), "tankobon serve") {
			t.Fatalf("%v: expected daemon hint, got %v", args, err)
		}
	}
}

func TestWatchJobPrintsEventsUntilClosed(t *testing.T) {
	const id = "6f1d9a9e-3b1c-4b7e-9a43-2f0f3c7b1e11"
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path+"?"+r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/jobs/"+id+"/events" && r.URL.Query().Get("since") == "":
			_ = json.NewEncoder(w).Encode(api.JobEventsResponse{
				Events: []jobs.Envelope{
					jobs.Encode(1, jobs.ProviderSeriesEvent{Provider: "mangaupdates"}),
					jobs.Encode(2, jobs.ProviderErrorEvent{Provider: "mangaupdates", Message: "timeout"}),
				},
				Next:   2,
				Closed: true,
			})
		case r.URL.Path == "/api/jobs/"+id:
			_ = json.NewEncoder(w).Encode(api.JobResponse{Job: api.Job{
				ID: id, Status: string(jobs.StatusFailed), Message: "mangaupdates: timeout",
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client, err := api.NewClient(srv.URL, "")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err = watchJob(context.Background(), &out, client, id)
	if err == nil || !strings.Contains(err.Error(), "job failed: mangaupdates: timeout") {
		t.Fatalf("expected failed job error, got %v", err)
	}
	for _, want := range []string{"mangaupdates: searching series", "mangaupdates: error: timeout", "Job " + id + ": FAILED"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("watch output missing %q:\n%s", want, out.String())
		}
	}
	if len(calls) != 2 || !strings.Contains(calls[0], "follow=1") {
		t.Fatalf("unexpected calls %v", calls)
	}
}
