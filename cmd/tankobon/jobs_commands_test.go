package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
)

func seedJobs(t *testing.T, env *cliTestEnv) (jobs.MetadataJob, jobs.MetadataJob) {
	t.Helper()
	store, err := jobstore.Open(env.config(t))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := jobs.NewMetadataJob("series/naruto", start).Completed(start.Add(1500 * time.Millisecond))
	failed := jobs.NewMetadataJob("series/bleach", start.Add(time.Minute)).Failed("mangaupdates: no response within 1m0s", start.Add(2*time.Minute))
	for _, job := range []jobs.MetadataJob{done, failed} {
		if err := store.Save(context.Background(), job); err != nil {
			t.Fatal(err)
		}
	}
	return done, failed
}

func TestJobsListAndFilter(t *testing.T) {
	env := setupCLITestEnv(t)
	done, failed := seedJobs(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs", "list")
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	for _, want := range []string{done.ID.String(), failed.ID.String(), "COMPLETED", "FAILED", "1.5s"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("list output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, failed.ID.String()) > strings.Index(stdout, done.ID.String()) {
		t.Fatal("expected newest job first")
	}

	stdout, _, err = runCLI(t, env.configPath, "jobs", "list", "--status", "failed")
	if err != nil {
		t.Fatalf("jobs list --status: %v", err)
	}
	if strings.Contains(stdout, done.ID.String()) || !strings.Contains(stdout, failed.ID.String()) {
		t.Fatalf("unexpected filtered output:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, env.configPath, "jobs", "list", "--limit", "1")
	if err != nil {
		t.Fatalf("jobs list --limit: %v", err)
	}
	if !strings.Contains(stdout, "Showing 1 of 2 jobs") {
		t.Fatalf("expected paging footer:\n%s", stdout)
	}

	if _, _, err := runCLI(t, env.configPath, "jobs", "list", "--status", "paused"); err == nil {
		t.Fatal("expected invalid status error")
	}
}

func TestJobsShowFormats(t *testing.T) {
	env := setupCLITestEnv(t)
	_, failed := seedJobs(t, env)
	id := failed.ID.String()

	stdout, _, err := runCLI(t, env.configPath, "jobs", "show", id)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	for _, want := range []string{"Series:   series/bleach", "Status:   FAILED", "Message:  mangaupdates: no response within 1m0s"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("show output missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = runCLI(t, env.configPath, "jobs", "show", id, "--format", "yaml")
	if err != nil {
		t.Fatalf("jobs show yaml: %v", err)
	}
	if !strings.Contains(stdout, "status: FAILED") || !strings.Contains(stdout, "series_id: series/bleach") {
		t.Fatalf("unexpected yaml:\n%s", stdout)
	}

	stdout, _, err = runCLI(t, env.configPath, "jobs", "show", id, "--format", "json")
	if err != nil {
		t.Fatalf("jobs show json: %v", err)
	}
	if !strings.Contains(stdout, `"status": "FAILED"`) {
		t.Fatalf("unexpected json:\n%s", stdout)
	}

	if _, _, err := runCLI(t, env.configPath, "jobs", "show", "not-a-uuid"); err == nil {
		t.Fatal("expected invalid id error")
	}
	_, _, err = runCLI(t, env.configPath, "jobs", "show", jobs.NewMetadataJob("x", time.Now()).ID.String())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJobsClear(t *testing.T) {
	env := setupCLITestEnv(t)
	seedJobs(t, env)

	stdout, _, err := runCLI(t, env.configPath, "jobs", "clear")
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	if !strings.Contains(stdout, "Removed 2 jobs") {
		t.Fatalf("unexpected clear output: %s", stdout)
	}
	stdout, _, err = runCLI(t, env.configPath, "jobs", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "No jobs") {
		t.Fatalf("expected empty list, got:\n%s", stdout)
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "job"); got != "1 job" {
		t.Fatalf("pluralize(1) = %q", got)
	}
	if got := pluralize(0, "job"); got != "0 jobs" {
		t.Fatalf("pluralize(0) = %q", got)
	}
}
