package daemonrun

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"tankobon/internal/config"
	"tankobon/internal/jobs"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/notifications"
	"tankobon/internal/services"
	"tankobon/internal/testsupport"
)

type recordingNotifier struct {
	notifications.Service
	failed []string
	err    error
}

func (r *recordingNotifier) NotifyFailed(_ context.Context, seriesID, message string) error {
	r.failed = append(r.failed, seriesID+": "+message)
	return r.err
}

func TestFailureNotifierOnlyReportsFailedJobs(t *testing.T) {
	notifier := &recordingNotifier{}
	hook := failureNotifier(notifier, logging.NewNop())
	now := time.Now()

	hook(context.Background(), jobs.NewMetadataJob("done", now).Completed(now))
	hook(context.Background(), jobs.NewMetadataJob("broken", now).Failed("provider down", now))

	if len(notifier.failed) != 1 || notifier.failed[0] != "broken: provider down" {
		t.Fatalf("unexpected notifications %v", notifier.failed)
	}

	notifier.err = errors.New("ntfy down")
	hook(context.Background(), jobs.NewMetadataJob("again", now).Failed("x", now))
	if len(notifier.failed) != 2 {
		t.Fatal("expected notifier errors to be swallowed after the attempt")
	}
}

func TestBuildWiresEnabledProviders(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProvider(metadata.ProviderMangaUpdates, "http://127.0.0.1:1", 5))
	svc, err := Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	if svc.Registry.Len() != 1 {
		t.Fatalf("expected one provider, got %d", svc.Registry.Len())
	}
	entry, ok := svc.Registry.Get(metadata.ProviderMangaUpdates)
	if !ok || entry.Priority != 5 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if svc.Results.Dir != cfg.ResultsDir() {
		t.Fatalf("results dir = %q", svc.Results.Dir)
	}
	if svc.Store.Path() != cfg.DatabasePath() {
		t.Fatalf("store path = %q", svc.Store.Path())
	}
}

func TestBuildRejectsProvidersWithoutFactory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithProvider(metadata.ProviderAniList, "http://127.0.0.1:1", 5))
	_, err := Build(cfg, logging.NewNop())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func newMangaUpdatesServer(t *testing.T) *httptest.Server {
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
		_, _ = w.Write([]byte(`{
			"series_id": 42,
			"title": "Naruto",
			"url": "https://www.mangaupdates.com/series/abc/naruto",
			"description": "A ninja story.",
			"type": "Manga",
			"year": "1999",
			"genres": [{"genre": "Action"}],
			"status": "72 Volumes (Complete)",
			"completed": true
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSingleWorkerCompletesQueuedJobs(t *testing.T) {
	srv := newMangaUpdatesServer(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithProvider(metadata.ProviderMangaUpdates, srv.URL, 10),
		testsupport.WithResolver(func(r *config.Resolver) { r.Workers = 1 }),
	)
	svc, err := Build(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	ctx := context.Background()
	var ids []uuid.UUID
	for _, seriesID := range []string{"library/a", "library/b", "library/c"} {
		id, err := svc.Resolver.Submit(ctx, seriesID, metadata.MatchQuery{SeriesName: "Naruto"})
		if err != nil {
			t.Fatalf("Submit %s: %v", seriesID, err)
		}
		ids = append(ids, id)
	}

	deadline := time.Now().Add(5 * time.Second)
	for _, id := range ids {
		for {
			job, err := svc.Store.Get(ctx, id)
			if err != nil {
				t.Fatalf("Get %s: %v", id, err)
			}
			if job != nil && job.Status == jobs.StatusCompleted {
				break
			}
			if job != nil && job.Status == jobs.StatusFailed {
				t.Fatalf("job %s failed: %s", id, job.Message)
			}
			if time.Now().After(deadline) {
				t.Fatalf("job %s still %v; active jobs: %d", id, job, len(svc.Tracker.ActiveJobs()))
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}
