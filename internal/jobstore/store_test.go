package jobstore_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
	"tankobon/internal/testsupport"
)

func TestSaveAndGetRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)
	job := jobs.NewMetadataJob("series-42", started)
	if err := store.Save(ctx, job); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil || fetched.SeriesID != "series-42" || fetched.Status != jobs.StatusRunning {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
	if !fetched.StartedAt.Equal(started) || fetched.FinishedAt != nil || fetched.Message != "" {
		t.Fatalf("unexpected timestamps or message: %#v", fetched)
	}

	failed := job.Failed("mangaupdates: HTTP 502", started.Add(time.Minute))
	if err := store.Save(ctx, failed); err != nil {
		t.Fatalf("Save update failed: %v", err)
	}
	fetched, err = store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get after update failed: %v", err)
	}
	if fetched.Status != jobs.StatusFailed || fetched.Message != "mangaupdates: HTTP 502" {
		t.Fatalf("update not persisted: %#v", fetched)
	}
	if fetched.FinishedAt == nil || !fetched.FinishedAt.Equal(started.Add(time.Minute)) {
		t.Fatalf("finished_at = %v", fetched.FinishedAt)
	}
	if n, _ := store.CountAll(ctx, nil); n != 1 {
		t.Fatalf("upsert created %d rows", n)
	}
}

func TestGetUnknownReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	job, err := store.Get(context.Background(), jobs.NewMetadataJob("x", time.Now()).ID)
	if err != nil || job != nil {
		t.Fatalf("expected nil, nil; got %#v, %v", job, err)
	}
}

func TestFindAllOrderingAndPaging(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var saved []jobs.MetadataJob
	for i := range 6 {
		job := jobs.NewMetadataJob("series", base.Add(time.Duration(i)*time.Second))
		switch i % 3 {
		case 1:
			job = job.Completed(base.Add(time.Hour))
		case 2:
			job = job.Failed("boom", base.Add(time.Hour))
		}
		if err := store.Save(ctx, job); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		saved = append(saved, job)
	}

	all, err := store.FindAll(ctx, nil, 0, 0)
	if err != nil {
		t.Fatalf("FindAll failed: %v", err)
	}
	if len(all) != 6 {
		t.Fatalf("expected 6 jobs, got %d", len(all))
	}
	for i, job := range all {
		if job.ID != saved[5-i].ID {
			t.Fatalf("position %d: got %s, want %s", i, job.ID, saved[5-i].ID)
		}
	}

	page, err := store.FindAll(ctx, nil, 2, 2)
	if err != nil {
		t.Fatalf("FindAll page failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != saved[3].ID || page[1].ID != saved[2].ID {
		t.Fatalf("unexpected page: %#v", page)
	}

	tail, err := store.FindAll(ctx, nil, 0, 5)
	if err != nil || len(tail) != 1 || tail[0].ID != saved[0].ID {
		t.Fatalf("unexpected offset-only page: %#v %v", tail, err)
	}

	failed := jobs.StatusFailed
	onlyFailed, err := store.FindAll(ctx, &failed, 10, 0)
	if err != nil {
		t.Fatalf("FindAll failed filter: %v", err)
	}
	if len(onlyFailed) != 2 || onlyFailed[0].ID != saved[5].ID || onlyFailed[1].ID != saved[2].ID {
		t.Fatalf("unexpected failed jobs: %#v", onlyFailed)
	}
	if n, _ := store.CountAll(ctx, &failed); n != 2 {
		t.Fatalf("failed count = %d", n)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobs.StatusRunning] != 2 || stats[jobs.StatusCompleted] != 2 || stats[jobs.StatusFailed] != 2 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestDeleteAllAndFailRunning(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	running := jobs.NewMetadataJob("a", time.Now())
	done := jobs.NewMetadataJob("b", time.Now()).Completed(time.Now())
	for _, job := range []jobs.MetadataJob{running, done} {
		if err := store.Save(ctx, job); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	n, err := store.FailRunning(ctx, "interrupted by restart")
	if err != nil || n != 1 {
		t.Fatalf("FailRunning = %d, %v", n, err)
	}
	got, _ := store.Get(ctx, running.ID)
	if got.Status != jobs.StatusFailed || got.Message != "interrupted by restart" || got.FinishedAt == nil {
		t.Fatalf("running job not failed: %#v", got)
	}

	deleted, err := store.DeleteAll(ctx)
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteAll = %d, %v", deleted, err)
	}
	if n, _ := store.CountAll(ctx, nil); n != 0 {
		t.Fatalf("count after delete = %d", n)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := jobstore.OpenPath(path); !errors.Is(err, jobstore.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestTrackerPersistsThroughSQLite(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	tracker := jobs.NewTracker(store, jobs.Inline{}, nil)

	flow := jobs.NewEventFlow()
	_ = flow.Emit(jobs.ProviderSeriesEvent{Provider: "mangaupdates"})
	_ = flow.Emit(jobs.CompletionEvent{})

	id, err := tracker.RegisterMetadataJob(context.Background(), "series-1", flow)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := store.Get(context.Background(), id)
	if err != nil || got == nil || got.Status != jobs.StatusCompleted {
		t.Fatalf("unexpected persisted job %#v, %v", got, err)
	}
}
