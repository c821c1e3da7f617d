package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"tankobon/internal/jobs"
	"tankobon/internal/logging"
)

const (
	defaultJobsLimit = 50
	maxJobsLimit     = 500
	defaultLogsLimit = 200
	maxRequestBody   = 8 << 20
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	query, err := req.Query()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid book number: "+err.Error())
		return
	}
	id, err := s.deps.Resolver.Submit(r.Context(), strings.TrimSpace(req.SeriesID), query)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, ResolveResponse{JobID: id.String()})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var status *jobs.Status
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		parsed, ok := jobs.ParseStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "invalid status "+strconv.Quote(raw))
			return
		}
		status = &parsed
	}
	limit, ok := intParam(query.Get("limit"), defaultJobsLimit)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit == 0 {
		limit = defaultJobsLimit
	}
	limit = min(limit, maxJobsLimit)
	offset, ok := intParam(query.Get("offset"), 0)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	records, err := s.deps.Store.FindAll(r.Context(), status, limit, offset)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	total, err := s.deps.Store.CountAll(r.Context(), status)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	resp := JobListResponse{Jobs: make([]Job, 0, len(records)), Total: total, Limit: limit, Offset: offset}
	for _, job := range records {
		_, active := s.deps.Tracker.MetadataJobEvents(job.ID)
		resp.Jobs = append(resp.Jobs, FromMetadataJob(job, active))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteJobs(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.deps.Store.DeleteAll(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.logger.Info("jobs deleted",
		logging.Any("deleted", deleted),
		logging.String(logging.FieldEventType, "jobs_deleted"),
	)
	s.writeJSON(w, http.StatusOK, DeleteJobsResponse{Deleted: deleted})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	job, err := s.deps.Tracker.Job(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	_, active := s.deps.Tracker.MetadataJobEvents(id)
	s.writeJSON(w, http.StatusOK, JobResponse{Job: FromMetadataJob(*job, active)})
}

// handleJobEvents long-polls a live job's event flow. Finished jobs answer
// 410 so clients fall back to GET /api/jobs/{id}.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.jobID(w, r)
	if !ok {
		return
	}
	flow, active := s.deps.Tracker.MetadataJobEvents(id)
	if !active {
		job, err := s.deps.Store.Get(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if job == nil {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.writeError(w, http.StatusGone, "job is no longer active; final status is "+string(job.Status))
		return
	}

	query := r.URL.Query()
	since, ok := intParam(query.Get("since"), 0)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "invalid since")
		return
	}
	follow := boolParam(query.Get("follow"))

	ctx := r.Context()
	if follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
		defer cancel()
	}
	events, next, closed, err := flow.Fetch(ctx, since, follow)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.writeServiceError(w, err)
		return
	}
	resp := JobEventsResponse{Events: make([]jobs.Envelope, 0, len(events)), Next: next, Closed: closed}
	for i, event := range events {
		resp.Events = append(resp.Events, jobs.Encode(since+i+1, event))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if s.deps.Results == nil {
		s.writeError(w, http.StatusNotFound, "results are not stored")
		return
	}
	result, err := s.deps.Results.ReadSeries(r.PathValue("seriesID"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	entries := s.deps.Registry.Entries()
	resp := ProvidersResponse{Providers: make([]Provider, 0, len(entries))}
	for _, entry := range entries {
		resp.Providers = append(resp.Providers, Provider{
			ID:       string(entry.Provider.ProviderName()),
			Priority: entry.Priority,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := s.deps.Logs
	if hub == nil {
		s.writeJSON(w, http.StatusOK, LogStreamResponse{})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, ok := intParam(query.Get("limit"), defaultLogsLimit)
	if !ok || limit == 0 {
		limit = defaultLogsLimit
	}
	follow := boolParam(query.Get("follow"))
	tail := boolParam(query.Get("tail"))
	component := strings.TrimSpace(query.Get("component"))
	jobFilter := strings.TrimSpace(query.Get("job"))

	var (
		converted []LogEvent
		next      uint64
	)
	if tail && since == 0 && !follow {
		raw, cursor := hub.Tail(limit)
		converted, next = convertLogEvents(raw), cursor
	} else {
		ctx := r.Context()
		if follow {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, longPollTimeout)
			defer cancel()
		}
		raw, cursor, err := hub.Fetch(ctx, since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeServiceError(w, err)
			return
		}
		converted, next = convertLogEvents(raw), cursor
	}

	filtered := make([]LogEvent, 0, len(converted))
	for _, evt := range converted {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		if jobFilter != "" && evt.JobID != jobFilter {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, LogStreamResponse{Events: filtered, Next: next})
}

func (s *Server) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid job id")
		return uuid.Nil, false
	}
	return id, true
}

func intParam(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

func boolParam(raw string) bool {
	return raw == "1" || strings.EqualFold(raw, "true")
}
