package jobstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tankobon/internal/jobs"
)

func scanJob(scanner interface{ Scan(dest ...any) error }) (*jobs.MetadataJob, error) {
	var (
		idRaw       string
		seriesID    string
		status      string
		message     sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&idRaw, &seriesID, &status, &message, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return nil, fmt.Errorf("parse job id %q: %w", idRaw, err)
	}
	started, err := parseTimeString(startedRaw)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
	}
	job := &jobs.MetadataJob{
		ID:        id,
		SeriesID:  seriesID,
		Status:    jobs.Status(status),
		StartedAt: started,
	}
	if message.Valid {
		job.Message = message.String
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			job.FinishedAt = &finished
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

// formatTime uses a fixed-width layout so started_at sorts lexically.
func formatTime(value time.Time) string {
	return value.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
