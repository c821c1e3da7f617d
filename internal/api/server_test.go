package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tankobon/internal/api"
	"tankobon/internal/jobs"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/providers"
	"tankobon/internal/resolver"
	"tankobon/internal/testsupport"
)

const token = "secret"

type stubProvider struct {
	match *metadata.ProviderSeriesMetadata
}

func (stubProvider) ProviderName() metadata.ProviderID { return metadata.ProviderMangaUpdates }

func (stubProvider) SearchSeries(context.Context, string, int) ([]metadata.SeriesSearchResult, error) {
	return nil, nil
}

func (s stubProvider) GetSeriesMetadata(context.Context, string) (*metadata.ProviderSeriesMetadata, error) {
	return s.match, nil
}

func (stubProvider) GetSeriesCover(context.Context, string) (*metadata.Image, error) { return nil, nil }

func (stubProvider) GetBookMetadata(context.Context, string, string) (*metadata.ProviderBookMetadata, error) {
	return nil, nil
}

func (s stubProvider) MatchSeriesMetadata(context.Context, metadata.MatchQuery) (*metadata.ProviderSeriesMetadata, error) {
	return s.match, nil
}

type fixture struct {
	server  *httptest.Server
	client  *api.Client
	tracker *jobs.Tracker
	store   jobs.Store
	hub     *logging.StreamHub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	store := testsupport.MustOpenStore(t, cfg)
	sup := jobs.NewSupervisor(logging.NewNop(), 0)
	tracker := jobs.NewTracker(store, sup, logging.NewNop())
	t.Cleanup(tracker.Close)

	registry := providers.NewRegistry(providers.Entry{
		Provider: stubProvider{match: &metadata.ProviderSeriesMetadata{
			ID:       "42",
			Provider: metadata.ProviderMangaUpdates,
			Metadata: metadata.SeriesMetadata{Titles: []metadata.SeriesTitle{{Name: "Naruto"}}},
		}},
		Priority: 10,
	})
	results := resolver.FileWriter{Dir: cfg.ResultsDir()}
	res := resolver.New(registry, resolver.Options{Tracker: tracker, Scheduler: sup, Writer: results})
	hub := logging.NewStreamHub(64)

	srv := api.NewServer(cfg, api.Deps{
		Resolver: res,
		Tracker:  tracker,
		Store:    store,
		Registry: registry,
		Results:  results,
		Logs:     hub,
	}, logging.NewNop())
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)

	client, err := api.NewClient(httpSrv.URL, token)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &fixture{server: httpSrv, client: client, tracker: tracker, store: store, hub: hub}
}

func (f *fixture) request(t *testing.T, method, path string, body any, auth string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, f.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func waitForStatus(t *testing.T, client *api.Client, id string, want string) api.Job {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, err := client.Job(context.Background(), id)
		if err != nil {
			t.Fatalf("Job: %v", err)
		}
		if job.Status == want && !job.Active {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", id, want)
	return api.Job{}
}

func TestAuthAndRequestID(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		auth string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.request(t, http.MethodGet, "/api/providers", nil, tt.auth)
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Fatal("missing X-Request-ID")
			}
		})
	}
}

func TestResolveLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submitted, err := f.client.Submit(ctx, api.ResolveRequest{SeriesID: "series-9", SeriesName: "Naruto", BookNumber: "1"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	job := waitForStatus(t, f.client, submitted.JobID, string(jobs.StatusCompleted))
	if job.SeriesID != "series-9" || job.FinishedAt == "" {
		t.Fatalf("unexpected job %+v", job)
	}

	if _, err := f.client.Events(ctx, submitted.JobID, 0, false); !errors.Is(err, api.ErrJobInactive) {
		t.Fatalf("expected ErrJobInactive, got %v", err)
	}

	resp := f.request(t, http.MethodGet, "/api/results/series-9", nil, "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d", resp.StatusCode)
	}
	var result resolver.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Title() != "Naruto" || len(result.Sources) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"missing series name", api.ResolveRequest{SeriesID: "s"}},
		{"missing series id", api.ResolveRequest{SeriesName: "Naruto"}},
		{"bad book number", api.ResolveRequest{SeriesID: "s", SeriesName: "Naruto", BookNumber: "x-y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if raw, ok := tt.body.(string); ok {
				req, _ := http.NewRequest(http.MethodPost, f.server.URL+"/api/resolve", bytes.NewBufferString(raw))
				req.Header.Set("Authorization", "Bearer "+token)
				resp, doErr := http.DefaultClient.Do(req)
				if doErr != nil {
					t.Fatal(doErr)
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusBadRequest {
					t.Fatalf("status = %d", resp.StatusCode)
				}
				return
			}
			_, err = f.client.Submit(context.Background(), tt.body.(api.ResolveRequest))
			var statusErr *api.StatusError
			if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
		})
	}
}

func TestListAndDeleteJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		job := jobs.NewMetadataJob("s", base.Add(time.Duration(i)*time.Minute))
		if i == 0 {
			job = job.Failed("boom", base.Add(time.Hour))
		}
		if err := f.store.Save(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	resp := f.request(t, http.MethodGet, "/api/jobs?status=running&limit=1&offset=1", nil, "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var list api.JobListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Jobs) != 1 || list.Limit != 1 || list.Offset != 1 {
		t.Fatalf("unexpected list %+v", list)
	}
	if list.Jobs[0].StartedAt != "2026-01-01T00:01:00.000Z" {
		t.Fatalf("startedAt = %q", list.Jobs[0].StartedAt)
	}

	for _, path := range []string{"/api/jobs?status=paused", "/api/jobs?limit=-1", "/api/jobs?offset=x"} {
		if got := f.request(t, http.MethodGet, path, nil, "Bearer "+token).StatusCode; got != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", path, got)
		}
	}

	resp = f.request(t, http.MethodDelete, "/api/jobs", nil, "Bearer "+token)
	var deleted api.DeleteJobsResponse
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		t.Fatal(err)
	}
	if deleted.Deleted != 3 {
		t.Fatalf("deleted = %d", deleted.Deleted)
	}
}

func TestJobEventsWhileActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	flow := jobs.NewEventFlow()
	id, err := f.tracker.RegisterMetadataJob(ctx, "live", flow)
	if err != nil {
		t.Fatal(err)
	}
	_ = flow.Emit(jobs.ProviderSeriesEvent{Provider: metadata.ProviderMangaUpdates})

	first, err := f.client.Events(ctx, id.String(), 0, false)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(first.Events) != 1 || first.Events[0].Seq != 1 || first.Events[0].Kind != jobs.KindProviderSeries || first.Closed {
		t.Fatalf("unexpected first page %+v", first)
	}

	job, err := f.client.Job(ctx, id.String())
	if err != nil || !job.Active || job.Status != string(jobs.StatusRunning) {
		t.Fatalf("unexpected active job %+v, %v", job, err)
	}

	followed := make(chan api.JobEventsResponse, 1)
	go func() {
		resp, _ := f.client.Events(ctx, id.String(), first.Next, true)
		followed <- resp
	}()
	time.Sleep(20 * time.Millisecond)
	_ = flow.Emit(jobs.CompletionEvent{})

	select {
	case resp := <-followed:
		if len(resp.Events) != 1 || resp.Events[0].Seq != 2 || resp.Events[0].Kind != jobs.KindCompletion || !resp.Closed {
			t.Fatalf("unexpected followed page %+v", resp)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("follow request did not return")
	}
	waitForStatus(t, f.client, id.String(), string(jobs.StatusCompleted))
}

func TestJobLookupErrors(t *testing.T) {
	f := newFixture(t)
	auth := "Bearer " + token
	if got := f.request(t, http.MethodGet, "/api/jobs/not-a-uuid", nil, auth).StatusCode; got != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", got)
	}
	unknown := "/api/jobs/" + jobs.NewMetadataJob("x", time.Now()).ID.String()
	if got := f.request(t, http.MethodGet, unknown, nil, auth).StatusCode; got != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", got)
	}
	if got := f.request(t, http.MethodGet, unknown+"/events", nil, auth).StatusCode; got != http.StatusNotFound {
		t.Fatalf("unknown job events status = %d", got)
	}
	if got := f.request(t, http.MethodGet, "/api/results/missing", nil, auth).StatusCode; got != http.StatusNotFound {
		t.Fatalf("missing result status = %d", got)
	}
}

func TestProvidersAndLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp := f.request(t, http.MethodGet, "/api/providers", nil, "Bearer "+token)
	var providersResp api.ProvidersResponse
	if err := json.NewDecoder(resp.Body).Decode(&providersResp); err != nil {
		t.Fatal(err)
	}
	if len(providersResp.Providers) != 1 || providersResp.Providers[0].ID != "mangaupdates" || providersResp.Providers[0].Priority != 10 {
		t.Fatalf("unexpected providers %+v", providersResp)
	}

	f.hub.Publish(logging.LogEvent{Level: "info", Message: "one", Component: "resolver", JobID: "j1"})
	f.hub.Publish(logging.LogEvent{Level: "warn", Message: "two", Component: "tracker", JobID: "j2"})
	f.hub.Publish(logging.LogEvent{Level: "info", Message: "three", Component: "resolver", JobID: "j2"})

	all, err := f.client.Logs(ctx, api.LogQuery{})
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(all.Events) != 3 || all.Next != 3 {
		t.Fatalf("unexpected logs %+v", all)
	}

	filtered, err := f.client.Logs(ctx, api.LogQuery{Component: "resolver", JobID: "j2"})
	if err != nil || len(filtered.Events) != 1 || filtered.Events[0].Message != "three" {
		t.Fatalf("unexpected filtered logs %+v, %v", filtered, err)
	}

	tail, err := f.client.Logs(ctx, api.LogQuery{Tail: true, Limit: 1})
	if err != nil || len(tail.Events) != 1 || tail.Events[0].Message != "three" {
		t.Fatalf("unexpected tail %+v, %v", tail, err)
	}

	since, err := f.client.Logs(ctx, api.LogQuery{Since: 2})
	if err != nil || len(since.Events) != 1 || since.Events[0].Message != "three" {
		t.Fatalf("unexpected since page %+v, %v", since, err)
	}
}

func TestClientUnavailable(t *testing.T) {
	if _, err := api.NewClient("", ""); !errors.Is(err, api.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	client, err := api.NewClient("127.0.0.1:1", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Job(context.Background(), "x")
	if !api.IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
