package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"tankobon/internal/api"
	"tankobon/internal/config"
	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
	"tankobon/internal/logging"
)

// RestartMessage is recorded on jobs that were still running when the
// previous daemon exited.
const RestartMessage = "interrupted by restart"

// Daemon owns the job store, tracker, and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobstore.Store
	tracker *jobs.Tracker
	api     *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	APIAddress   string
	ActiveJobs   int
	JobCounts    map[jobs.Status]int
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobstore.Store, tracker *jobs.Tracker, server *api.Server, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || tracker == nil || server == nil {
		return nil, errors.New("daemon requires config, store, tracker, and api server")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		tracker:  tracker,
		api:      server,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, recovers stale jobs, and starts the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another tankobon daemon instance is already running")
	}

	recovered, err := d.store.FailRunning(ctx, RestartMessage)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if recovered > 0 {
		logging.WarnWithContext(d.logger, "interrupted jobs marked failed", "jobs_recovered",
			logging.Any("jobs", recovered),
			logging.String(logging.FieldErrorHint, "resubmit the affected series"),
			logging.String(logging.FieldImpact, "metadata for those series was not written"),
		)
	}

	if err := d.api.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start api: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("tankobon daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.Addr()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop shuts the API down, fails jobs still in flight, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Swap(false) {
		return
	}
	d.api.Stop()
	d.tracker.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("tankobon daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		ActiveJobs:   len(d.tracker.ActiveJobs()),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if status.Running {
		status.APIAddress = d.api.Addr()
	}
	counts, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("job stats unavailable", logging.Error(err))
	} else {
		status.JobCounts = counts
	}
	return status
}
