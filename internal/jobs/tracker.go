package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tankobon/internal/logging"
	"tankobon/internal/services"
)

// ErrTrackerClosed is returned when registering after Close.
var ErrTrackerClosed = errors.New("job tracker closed")

const (
	messageStreamClosed = "event stream closed before completion"
	messageStopped      = "tracker stopped"
	persistTimeout      = 10 * time.Second
)

// FinishHook observes a job after its terminal state has been persisted.
type FinishHook func(ctx context.Context, job MetadataJob)

// TrackerOption customises a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithFinishHook registers fn to run after every terminal transition.
func WithFinishHook(fn FinishHook) TrackerOption {
	return func(t *Tracker) {
		if fn != nil {
			t.hooks = append(t.hooks, fn)
		}
	}
}

type activeJob struct {
	job  MetadataJob
	flow *EventFlow
}

// Tracker owns the active-job registry. Each registered job gets one listener
// task on the scheduler; only that listener mutates the job.
type Tracker struct {
	store     Store
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
	hooks     []FinishHook

	mu     sync.RWMutex
	active map[uuid.UUID]*activeJob
	closed bool
}

// NewTracker wires a tracker to its store and scheduler. Listeners hold their
// slot until the job ends, so scheduler must not bound concurrency; give
// resolution work its own limited Supervisor.
func NewTracker(store Store, scheduler Scheduler, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:     store,
		scheduler: scheduler,
		logger:    logging.NewComponentLogger(logger, "tracker"),
		now:       time.Now,
		active:    make(map[uuid.UUID]*activeJob),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RegisterMetadataJob persists a RUNNING job for seriesID and starts
// listening to flow until it reports a terminal event.
func (t *Tracker) RegisterMetadataJob(ctx context.Context, seriesID string, flow *EventFlow) (uuid.UUID, error) {
	if flow == nil {
		return uuid.Nil, services.Wrap(services.ErrValidation, "tracker", "register", "event flow is required", nil)
	}
	job := NewMetadataJob(seriesID, t.now())
	if err := t.track(ctx, job, flow); err != nil {
		return uuid.Nil, err
	}

	t.logger.Info("metadata job registered",
		logging.JobID(job.ID.String()),
		logging.SeriesID(seriesID),
		logging.String(logging.FieldEventType, "job_registered"),
	)

	// Inline schedulers run the listener before Go returns, so the job must
	// already be in the registry.
	id := job.ID
	t.scheduler.Go("job-"+id.String(), func(taskCtx context.Context) {
		t.listen(taskCtx, id, flow)
	})
	return id, nil
}

func (t *Tracker) track(ctx context.Context, job MetadataJob, flow *EventFlow) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTrackerClosed
	}
	if err := t.store.Save(ctx, job); err != nil {
		return services.Wrap(services.ErrTransient, "tracker", "register", "persist job", err)
	}
	t.active[job.ID] = &activeJob{job: job, flow: flow}
	return nil
}

// MetadataJobEvents returns the live flow of an active job. Finished and
// unknown jobs report false; callers fall back to the store.
func (t *Tracker) MetadataJobEvents(id uuid.UUID) (*EventFlow, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.active[id]
	if !ok {
		return nil, false
	}
	return entry.flow, true
}

// ActiveJobs snapshots the registry, oldest first.
func (t *Tracker) ActiveJobs() []MetadataJob {
	t.mu.RLock()
	out := make([]MetadataJob, 0, len(t.active))
	for _, entry := range t.active {
		out = append(out, entry.job)
	}
	t.mu.RUnlock()
	slices.SortFunc(out, func(a, b MetadataJob) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
	return out
}

// Job returns the active record for id, falling back to the store.
func (t *Tracker) Job(ctx context.Context, id uuid.UUID) (*MetadataJob, error) {
	t.mu.RLock()
	entry, ok := t.active[id]
	t.mu.RUnlock()
	if ok {
		job := entry.job
		return &job, nil
	}
	return t.store.Get(ctx, id)
}

// Close stops accepting jobs, drains the scheduler when it supports it, and
// fails whatever is still registered.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	if stopper, ok := t.scheduler.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	t.mu.RLock()
	remaining := make(map[uuid.UUID]*EventFlow, len(t.active))
	for id, entry := range t.active {
		remaining[id] = entry.flow
	}
	t.mu.RUnlock()
	for id, flow := range remaining {
		transition, ok := pendingTerminal(flow)
		if !ok {
			transition = failWith(messageStopped)
		}
		t.finish(context.Background(), id, transition)
	}
}

func (t *Tracker) listen(ctx context.Context, id uuid.UUID, flow *EventFlow) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := t.logger.With(logging.JobID(id.String()))
	for event := range flow.Subscribe(subCtx) {
		switch ev := event.(type) {
		case ProviderSeriesEvent:
			logger.Debug("provider searching series", logging.Provider(ev.Provider))
		case ProviderBookEvent:
			logger.Debug("provider book progress",
				logging.Provider(ev.Provider),
				logging.Int("book_progress", ev.BookProgress),
				logging.Int("total_books", ev.TotalBooks),
			)
		case ProviderCompletedEvent:
			logger.Debug("provider completed", logging.Provider(ev.Provider))
		case PostProcessingStartEvent:
			logger.Debug("post-processing started")
		case ProviderErrorEvent, ProcessingErrorEvent, CompletionEvent:
			transition, _ := terminalTransition(event)
			t.finish(ctx, id, transition)
			return
		default:
			panic(fmt.Sprintf("jobs: listener cannot handle event %T", event))
		}
	}

	// A cancelled subscription can end before delivering a terminal event
	// that is already in the flow; that event still decides the outcome.
	if transition, ok := pendingTerminal(flow); ok {
		t.finish(ctx, id, transition)
		return
	}
	message := messageStreamClosed
	if ctx.Err() != nil {
		message = messageStopped
	}
	t.finish(ctx, id, failWith(message))
}

// pendingTerminal looks for a terminal event already recorded in flow.
func pendingTerminal(flow *EventFlow) (func(MetadataJob, time.Time) MetadataJob, bool) {
	events, _, _, _ := flow.Fetch(context.Background(), 0, false)
	for _, event := range events {
		if transition, ok := terminalTransition(event); ok {
			return transition, true
		}
	}
	return nil, false
}

// terminalTransition maps a terminal event to the job state it produces.
func terminalTransition(event Event) (func(MetadataJob, time.Time) MetadataJob, bool) {
	switch ev := event.(type) {
	case ProviderErrorEvent:
		return failWith(ev.Message), true
	case ProcessingErrorEvent:
		return failWith(ev.Message), true
	case CompletionEvent:
		return func(job MetadataJob, at time.Time) MetadataJob {
			return job.Completed(at)
		}, true
	default:
		return nil, false
	}
}

func failWith(message string) func(MetadataJob, time.Time) MetadataJob {
	return func(job MetadataJob, at time.Time) MetadataJob {
		return job.Failed(message, at)
	}
}

// finish removes id from the registry and persists its terminal state. An id
// missing from the registry means the bookkeeping is broken, so it panics.
func (t *Tracker) finish(ctx context.Context, id uuid.UUID, transition func(MetadataJob, time.Time) MetadataJob) {
	t.mu.Lock()
	entry, ok := t.active[id]
	if !ok {
		t.mu.Unlock()
		panic(fmt.Sprintf("jobs: terminal transition for unregistered job %s", id))
	}
	delete(t.active, id)
	t.mu.Unlock()

	job := transition(entry.job, t.now())
	entry.flow.Close()

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := t.store.Save(saveCtx, job); err != nil {
		logging.ErrorWithContext(t.logger, "persist terminal job state failed", "job_persist_failed",
			logging.JobID(id.String()),
			logging.String("status", string(job.Status)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the job database is writable"),
		)
		return
	}

	attrs := []logging.Attr{
		logging.JobID(id.String()),
		logging.SeriesID(job.SeriesID),
		logging.String("status", string(job.Status)),
		logging.Duration("duration", job.Duration(t.now())),
		logging.String(logging.FieldEventType, "job_finished"),
	}
	if job.Status == StatusFailed {
		attrs = append(attrs, logging.String("message", job.Message))
		t.logger.Warn("metadata job failed", logging.Args(attrs...)...)
	} else {
		t.logger.Info("metadata job completed", logging.Args(attrs...)...)
	}

	for _, hook := range t.hooks {
		hook(saveCtx, job)
	}
}
