package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"tankobon/internal/api"
	"tankobon/internal/config"
	"tankobon/internal/daemon"
	"tankobon/internal/jobs"
	"tankobon/internal/jobstore"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/notifications"
	"tankobon/internal/preflight"
	"tankobon/internal/providers"
	"tankobon/internal/providers/mangaupdates"
	"tankobon/internal/resolver"
)

// Factories lists the providers compiled into this build.
var Factories = map[metadata.ProviderID]providers.Factory{
	metadata.ProviderMangaUpdates: mangaupdates.Factory,
}

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Services is the wired object graph shared by the daemon and in-process
// CLI commands.
type Services struct {
	Store     *jobstore.Store
	Tracker   *jobs.Tracker
	Workers   *jobs.Supervisor
	Registry  *providers.Registry
	Resolver  *resolver.Resolver
	Results   resolver.FileWriter
	Notifier  notifications.Service
}

// Build opens the job store and wires providers, tracker, and resolver.
// Callers own Close.
func Build(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}

	httpClient := &http.Client{Timeout: time.Duration(cfg.Resolver.ProviderTimeout) * time.Second}
	registry, err := providers.Build(cfg, Factories, httpClient, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	// Listeners wait on their resolution, so only the resolution pool is
	// bounded by resolver.workers.
	listeners := jobs.NewSupervisor(logger, 0)
	workers := jobs.NewSupervisor(logger, cfg.Resolver.Workers)
	tracker := jobs.NewTracker(store, listeners, logger, jobs.WithFinishHook(failureNotifier(notifier, logger)))
	results := resolver.FileWriter{Dir: cfg.ResultsDir()}

	res := resolver.New(registry, resolver.Options{
		Aggregate:       cfg.Resolver.Aggregate,
		ProviderTimeout: time.Duration(cfg.Resolver.ProviderTimeout) * time.Second,
		Tracker:         tracker,
		Scheduler:       workers,
		Writer:          results,
		Notifier:        notifier,
		Logger:          logger,
	})

	return &Services{
		Store:     store,
		Tracker:   tracker,
		Workers:   workers,
		Registry:  registry,
		Resolver:  res,
		Results:   results,
		Notifier:  notifier,
	}, nil
}

// Close cancels running resolutions, stops the tracker, and releases the
// store.
func (s *Services) Close() error {
	s.Workers.Stop()
	s.Tracker.Close()
	return s.Store.Close()
}

// Run starts the tankobon daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logHub := logging.NewStreamHub(4096)
	logger, err := logging.NewFromConfig(cfg, logHub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logPreflight(signalCtx, logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "tankobon.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	svc, err := Build(cfg, logger)
	if err != nil {
		logger.Error("build services", logging.Error(err))
		return err
	}

	server := api.NewServer(cfg, api.Deps{
		Resolver: svc.Resolver,
		Tracker:  svc.Tracker,
		Store:    svc.Store,
		Registry: svc.Registry,
		Results:  svc.Results,
		Logs:     logHub,
	}, logger)

	d, err := daemon.New(cfg, svc.Store, svc.Tracker, server, logger)
	if err != nil {
		_ = svc.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()
	// Runs before d.Close so cancelled resolutions report their own outcome
	// before the tracker stops.
	defer svc.Workers.Stop()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check server.bind and that no other daemon holds the lock"),
			logging.String(logging.FieldImpact, "no resolution requests will be accepted"),
		)
		if notifyErr := svc.Notifier.NotifyError(cmdCtx, err, "daemon start"); notifyErr != nil {
			logger.Warn("daemon start notification failed", logging.Error(notifyErr))
		}
		return err
	}

	<-signalCtx.Done()
	logger.Info("tankobon daemon shutting down")
	return nil
}

// failureNotifier pushes a notification for every job that ends FAILED.
func failureNotifier(notifier notifications.Service, logger *slog.Logger) jobs.FinishHook {
	return func(ctx context.Context, job jobs.MetadataJob) {
		if job.Status != jobs.StatusFailed {
			return
		}
		if err := notifier.NotifyFailed(ctx, job.SeriesID, job.Message); err != nil {
			logger.Warn("failure notification failed",
				logging.JobID(job.ID.String()),
				logging.Error(err),
			)
		}
	}
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "verify paths and provider base URLs in the config"),
			logging.String(logging.FieldImpact, "jobs that depend on this check will fail"),
		)
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
