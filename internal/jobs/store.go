package jobs

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store persists metadata jobs. Save writes one row atomically, inserting or
// replacing by ID. Get returns (nil, nil) for an unknown ID.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*MetadataJob, error)
	FindAll(ctx context.Context, status *Status, limit, offset int) ([]MetadataJob, error)
	CountAll(ctx context.Context, status *Status) (int, error)
	Save(ctx context.Context, job MetadataJob) error
	DeleteAll(ctx context.Context) (int64, error)
}

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]MetadataJob
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]MetadataJob)}
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*MetadataJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

// FindAll orders newest first; limit <= 0 means no limit.
func (m *MemoryStore) FindAll(_ context.Context, status *Status, limit, offset int) ([]MetadataJob, error) {
	m.mu.RLock()
	matched := make([]MetadataJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if status == nil || job.Status == *status {
			matched = append(matched, job)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(matched, func(a, b MetadataJob) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	offset = max(offset, 0)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryStore) CountAll(_ context.Context, status *Status) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if status == nil {
		return len(m.jobs), nil
	}
	count := 0
	for _, job := range m.jobs {
		if job.Status == *status {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) Save(_ context.Context, job MetadataJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.jobs))
	m.jobs = make(map[uuid.UUID]MetadataJob)
	return n, nil
}
