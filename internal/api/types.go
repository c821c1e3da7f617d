package api

import (
	"time"

	"tankobon/internal/jobs"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ResolveRequest is the body of POST /api/resolve.
type ResolveRequest struct {
	SeriesID   string `json:"seriesId"`
	SeriesName string `json:"seriesName"`
	StartYear  *int   `json:"startYear,omitempty"`
	BookName   string `json:"bookName,omitempty"`
	BookNumber string `json:"bookNumber,omitempty"`
	// Cover is the qualifier cover image; JSON carries it as base64.
	Cover []byte `json:"cover,omitempty"`
}

// ResolveResponse acknowledges a submitted resolution.
type ResolveResponse struct {
	JobID string `json:"jobId"`
}

// Job describes a metadata job in a transport-friendly format.
type Job struct {
	ID         string `json:"id"`
	SeriesID   string `json:"seriesId"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
	Active     bool   `json:"active"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job Job `json:"job"`
}

// JobListResponse is one page of jobs plus the unpaged total.
type JobListResponse struct {
	Jobs   []Job `json:"jobs"`
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// JobEventsResponse carries job events after a cursor.
type JobEventsResponse struct {
	Events []jobs.Envelope `json:"events"`
	Next   int             `json:"next"`
	Closed bool            `json:"closed"`
}

// DeleteJobsResponse reports how many jobs were removed.
type DeleteJobsResponse struct {
	Deleted int64 `json:"deleted"`
}

// Provider describes one configured provider.
type Provider struct {
	ID       string `json:"id"`
	Priority int    `json:"priority"`
}

// ProvidersResponse lists providers in query order.
type ProvidersResponse struct {
	Providers []Provider `json:"providers"`
}

// LogEvent is a structured log line for live tailing.
type LogEvent struct {
	Sequence      uint64            `json:"seq"`
	Timestamp     time.Time         `json:"ts"`
	Level         string            `json:"level"`
	Message       string            `json:"msg"`
	Component     string            `json:"component,omitempty"`
	JobID         string            `json:"jobId,omitempty"`
	Provider      string            `json:"provider,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// LogStreamResponse is one batch of log events.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromMetadataJob converts a job record; active marks jobs still tracked live.
func FromMetadataJob(job jobs.MetadataJob, active bool) Job {
	out := Job{
		ID:        job.ID.String(),
		SeriesID:  job.SeriesID,
		Status:    string(job.Status),
		Message:   job.Message,
		StartedAt: job.StartedAt.UTC().Format(dateTimeFormat),
		Active:    active,
	}
	if job.FinishedAt != nil {
		out.FinishedAt = job.FinishedAt.UTC().Format(dateTimeFormat)
	}
	return out
}

// Query converts the request into a match query.
func (r ResolveRequest) Query() (metadata.MatchQuery, error) {
	query := metadata.MatchQuery{
		SeriesName: r.SeriesName,
		StartYear:  r.StartYear,
	}
	if r.BookName == "" && r.BookNumber == "" && len(r.Cover) == 0 {
		return query, nil
	}
	qualifier := &metadata.BookQualifier{Name: r.BookName}
	if r.BookNumber != "" {
		number, err := metadata.ParseBookRange(r.BookNumber)
		if err != nil {
			return metadata.MatchQuery{}, err
		}
		qualifier.Number = number
	}
	if len(r.Cover) > 0 {
		qualifier.Cover = &metadata.Image{Bytes: r.Cover}
	}
	query.BookQualifier = qualifier
	return query, nil
}

func convertLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:      evt.Sequence,
			Timestamp:     evt.Timestamp,
			Level:         evt.Level,
			Message:       evt.Message,
			Component:     evt.Component,
			JobID:         evt.JobID,
			Provider:      evt.Provider,
			CorrelationID: evt.CorrelationID,
			Fields:        evt.Fields,
		})
	}
	return out
}
