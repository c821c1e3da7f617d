package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"tankobon/internal/logging"
)

// Scheduler runs background tasks. Implementations must isolate tasks from
// each other: a panicking task must not affect its siblings.
type Scheduler interface {
	Go(name string, fn func(ctx context.Context))
}

// Supervisor is a Scheduler backed by goroutines sharing one lifetime. It
// starts with the first task, recovers panics per task, and Stop cancels the
// shared context and drains every task.
type Supervisor struct {
	logger *slog.Logger
	sem    chan struct{}

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewSupervisor returns a supervisor running at most limit tasks at once;
// limit <= 0 means unbounded.
func NewSupervisor(logger *slog.Logger, limit int) *Supervisor {
	s := &Supervisor{logger: logging.NewComponentLogger(logger, "supervisor")}
	if limit > 0 {
		s.sem = make(chan struct{}, limit)
	}
	return s
}

// Go starts fn in its own goroutine. Tasks submitted after Stop are dropped.
func (s *Supervisor) Go(name string, fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		logging.WarnWithContext(s.logger, "task rejected after shutdown", "supervisor_rejected",
			logging.String("task", name),
			logging.String(logging.FieldImpact, "task did not run"),
		)
		return
	}
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	ctx := s.ctx
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			select {
			case s.sem <- struct{}{}:
				defer func() { <-s.sem }()
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}
		}
		runRecovered(ctx, s.logger, name, fn)
	}()
}

// Stop cancels running tasks and waits for them to return.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Inline runs each task synchronously on the caller's goroutine. It gives
// tests a deterministic schedule.
type Inline struct {
	Logger *slog.Logger
}

// Go runs fn before returning.
func (i Inline) Go(name string, fn func(ctx context.Context)) {
	runRecovered(context.Background(), i.Logger, name, fn)
}

func runRecovered(ctx context.Context, logger *slog.Logger, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "background task panicked", "task_panic",
				logging.String("task", name),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this as a bug; other jobs keep running"),
			)
		}
	}()
	fn(ctx)
}
