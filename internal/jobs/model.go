package jobs

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a metadata job.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusFailed    Status = "FAILED"
	StatusCompleted Status = "COMPLETED"
)

// IsTerminal reports whether no further transition can occur.
func (s Status) IsTerminal() bool {
	return s == StatusFailed || s == StatusCompleted
}

// ParseStatus accepts any letter case.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(value))) {
	case StatusRunning:
		return StatusRunning, true
	case StatusFailed:
		return StatusFailed, true
	case StatusCompleted:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// MetadataJob is the persisted record of one resolution run.
type MetadataJob struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	SeriesID   string     `json:"series_id" yaml:"series_id"`
	Status     Status     `json:"status" yaml:"status"`
	Message    string     `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt  time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// NewMetadataJob returns a RUNNING job with a fresh random ID.
func NewMetadataJob(seriesID string, startedAt time.Time) MetadataJob {
	return MetadataJob{
		ID:        uuid.New(),
		SeriesID:  seriesID,
		Status:    StatusRunning,
		StartedAt: startedAt.UTC(),
	}
}

// IsTerminal reports whether the job has finished.
func (j MetadataJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Completed returns a copy of j in COMPLETED state.
func (j MetadataJob) Completed(at time.Time) MetadataJob {
	finished := at.UTC()
	j.Status = StatusCompleted
	j.Message = ""
	j.FinishedAt = &finished
	return j
}

// Failed returns a copy of j in FAILED state with message.
func (j MetadataJob) Failed(message string, at time.Time) MetadataJob {
	finished := at.UTC()
	j.Status = StatusFailed
	j.Message = message
	j.FinishedAt = &finished
	return j
}

// Duration is the elapsed run time, measured to now for running jobs.
func (j MetadataJob) Duration(now time.Time) time.Duration {
	end := now
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	return end.Sub(j.StartedAt)
}
