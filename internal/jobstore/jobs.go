package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tankobon/internal/jobs"
)

const jobColumns = "id, series_id, status, message, started_at, finished_at"

// Save upserts job by ID in a single statement.
func (s *Store) Save(ctx context.Context, job jobs.MetadataJob) error {
	if job.ID == uuid.Nil {
		return errors.New("save job: missing id")
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO metadata_jobs (`+jobColumns+`)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            series_id = excluded.series_id,
            status = excluded.status,
            message = excluded.message,
            started_at = excluded.started_at,
            finished_at = excluded.finished_at`,
		job.ID.String(),
		job.SeriesID,
		string(job.Status),
		nullableString(job.Message),
		formatTime(job.StartedAt),
		nullableTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Get returns nil without error when id is unknown.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*jobs.MetadataJob, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+jobColumns+` FROM metadata_jobs WHERE id = ?`, id.String())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// FindAll lists jobs newest first. A nil status matches every job and
// limit <= 0 disables paging.
func (s *Store) FindAll(ctx context.Context, status *jobs.Status, limit, offset int) ([]jobs.MetadataJob, error) {
	var (
		query strings.Builder
		args  []any
	)
	query.WriteString(`SELECT ` + jobColumns + ` FROM metadata_jobs`)
	if status != nil {
		query.WriteString(` WHERE status = ?`)
		args = append(args, string(*status))
	}
	query.WriteString(` ORDER BY started_at DESC, id`)
	if limit > 0 {
		query.WriteString(` LIMIT ? OFFSET ?`)
		args = append(args, limit, max(offset, 0))
	} else if offset > 0 {
		query.WriteString(` LIMIT -1 OFFSET ?`)
		args = append(args, offset)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []jobs.MetadataJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}

// CountAll counts jobs, optionally restricted to one status.
func (s *Store) CountAll(ctx context.Context, status *jobs.Status) (int, error) {
	query := `SELECT COUNT(1) FROM metadata_jobs`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// DeleteAll removes every job row and reports how many were deleted.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM metadata_jobs`)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailRunning marks jobs left RUNNING by a previous process as FAILED. The
// tracker registry does not survive restarts, so nothing else would finish them.
func (s *Store) FailRunning(ctx context.Context, message string) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE metadata_jobs SET status = ?, message = ?, finished_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
        WHERE status = ?`,
		string(jobs.StatusFailed), message, string(jobs.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	return res.RowsAffected()
}

// Stats groups job counts by status.
func (s *Store) Stats(ctx context.Context) (map[jobs.Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM metadata_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[jobs.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[jobs.Status(status)] = count
	}
	return stats, rows.Err()
}
