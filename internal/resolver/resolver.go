package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tankobon/internal/jobs"
	"tankobon/internal/logging"
	"tankobon/internal/metadata"
	"tankobon/internal/providers"
	"tankobon/internal/services"
)

const defaultProviderTimeout = 60 * time.Second

// Options configures a Resolver. Tracker and Scheduler are only needed by
// Submit; Writer and Notifier are optional.
type Options struct {
	Aggregate       bool
	ProviderTimeout time.Duration
	Tracker         *jobs.Tracker
	Scheduler       jobs.Scheduler
	Writer          Writer
	Notifier        Notifier
	Logger          *slog.Logger
}

// Resolver drives providers for one query at a time.
type Resolver struct {
	registry  *providers.Registry
	aggregate bool
	timeout   time.Duration
	tracker   *jobs.Tracker
	scheduler jobs.Scheduler
	writer    Writer
	notifier  Notifier
	logger    *slog.Logger
}

// New constructs a resolver over registry.
func New(registry *providers.Registry, opts Options) *Resolver {
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &Resolver{
		registry:  registry,
		aggregate: opts.Aggregate,
		timeout:   timeout,
		tracker:   opts.Tracker,
		scheduler: opts.Scheduler,
		writer:    opts.Writer,
		notifier:  opts.Notifier,
		logger:    logging.NewComponentLogger(opts.Logger, "resolver"),
	}
}

// Submit registers a job for the query and resolves it in the background.
// The tracker's scheduler must not run tasks inline, since its listener only
// returns once the resolution has finished.
func (r *Resolver) Submit(ctx context.Context, seriesID string, query metadata.MatchQuery) (uuid.UUID, error) {
	if r.tracker == nil || r.scheduler == nil {
		return uuid.Nil, services.Wrap(services.ErrConfiguration, "resolver", "submit", "tracker and scheduler are required", nil)
	}
	if err := validate(seriesID, query); err != nil {
		return uuid.Nil, err
	}

	flow := jobs.NewEventFlow()
	id, err := r.tracker.RegisterMetadataJob(ctx, seriesID, flow)
	if err != nil {
		return uuid.Nil, err
	}
	r.scheduler.Go("resolve-"+id.String(), func(taskCtx context.Context) {
		taskCtx = services.WithJobID(taskCtx, id.String())
		taskCtx = services.WithSeriesID(taskCtx, seriesID)
		_, _ = r.Resolve(taskCtx, seriesID, query, flow)
	})
	return id, nil
}

// Resolve runs the query against every provider and reports progress on
// flow, which may be nil. Exactly one terminal event is emitted. An
// unmatched query is a successful resolution with an empty result.
func (r *Resolver) Resolve(ctx context.Context, seriesID string, query metadata.MatchQuery, flow *jobs.EventFlow) (result *Result, err error) {
	logger := logging.WithContext(ctx, r.logger)
	em := emitter{flow: flow, logger: logger}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("resolver panic: %v", rec)
			logging.ErrorWithContext(logger, "resolution panicked", "resolution_panic",
				logging.String("panic", fmt.Sprint(rec)),
				logging.String(logging.FieldErrorHint, "report this as a bug"),
			)
			em.emit(jobs.ProcessingErrorEvent{Message: err.Error()})
		}
	}()

	if err := validate(seriesID, query); err != nil {
		em.emit(jobs.ProcessingErrorEvent{Message: err.Error()})
		return nil, err
	}

	result = &Result{SeriesID: seriesID, Query: strings.TrimSpace(query.SeriesName)}
	for _, entry := range r.registry.Entries() {
		if err := ctx.Err(); err != nil {
			em.emit(jobs.ProcessingErrorEvent{Message: "resolution cancelled: " + err.Error()})
			return nil, err
		}

		id := entry.Provider.ProviderName()
		record, books, err := r.resolveProvider(ctx, entry, query, em)
		if err != nil {
			logging.WarnWithContext(logger, "provider failed", "provider_failed",
				logging.Provider(id),
				logging.ErrorKind(err),
				logging.Error(err),
				logging.String(logging.FieldImpact, "job failed"),
			)
			em.emit(jobs.ProviderErrorEvent{Provider: id, Message: err.Error()})
			return nil, err
		}
		em.emit(jobs.ProviderCompletedEvent{Provider: id})
		if record == nil {
			logger.Debug("provider found no match", logging.Provider(id))
			continue
		}

		logger.Info("series matched",
			logging.Provider(id),
			logging.String("provider_series_id", record.ID),
			logging.String("title", record.Metadata.PrimaryTitle()),
			logging.Int("books", len(books)),
			logging.String(logging.FieldEventType, "series_matched"),
		)
		result.Sources = append(result.Sources, Source{Provider: id, ID: record.ID})
		if result.Series == nil {
			series := record.Metadata
			result.Series = &series
		} else {
			merged := metadata.MergeSeries(*result.Series, record.Metadata)
			result.Series = &merged
		}
		if len(books) > 0 {
			result.Books = metadata.MergeBooks(result.Books, books)
		}
		if !r.aggregate {
			break
		}
	}

	em.emit(jobs.PostProcessingStartEvent{})
	if err := r.postProcess(ctx, logger, result); err != nil {
		em.emit(jobs.ProcessingErrorEvent{Message: err.Error()})
		return nil, err
	}
	em.emit(jobs.CompletionEvent{})
	return result, nil
}

func (r *Resolver) resolveProvider(ctx context.Context, entry providers.Entry, query metadata.MatchQuery, em emitter) (*metadata.ProviderSeriesMetadata, map[string]*metadata.BookMetadata, error) {
	id := entry.Provider.ProviderName()
	ctx = services.WithProvider(ctx, string(id))
	em.emit(jobs.ProviderSeriesEvent{Provider: id})

	var record *metadata.ProviderSeriesMetadata
	err := r.call(ctx, func(callCtx context.Context) error {
		var err error
		record, err = entry.Provider.MatchSeriesMetadata(callCtx, query)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, nil
	}
	books, err := r.fetchBooks(ctx, entry, record, em)
	if err != nil {
		return nil, nil, err
	}
	return record, books, nil
}

// fetchBooks loads every book of record. Providers without book granularity
// contribute no books.
func (r *Resolver) fetchBooks(ctx context.Context, entry providers.Entry, record *metadata.ProviderSeriesMetadata, em emitter) (map[string]*metadata.BookMetadata, error) {
	if len(record.Books) == 0 {
		return nil, nil
	}
	id := entry.Provider.ProviderName()
	out := make(map[string]*metadata.BookMetadata, len(record.Books))
	for i, ref := range record.Books {
		var book *metadata.ProviderBookMetadata
		err := r.call(ctx, func(callCtx context.Context) error {
			var err error
			book, err = entry.Provider.GetBookMetadata(callCtx, record.ID, ref.ID)
			return err
		})
		if errors.Is(err, services.ErrUnsupported) {
			logging.WithContext(ctx, r.logger).Debug("provider has no book metadata", logging.Provider(id))
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("book %s: %w", ref.ID, err)
		}
		em.emit(jobs.ProviderBookEvent{Provider: id, TotalBooks: len(record.Books), BookProgress: i + 1})
		if book == nil {
			continue
		}
		masked := metadata.ApplyBookMask(book.Metadata, entry.BookFields)
		out[bookKey(ref, book.Metadata)] = &masked
	}
	return out, nil
}

// call bounds one provider request by the configured timeout.
func (r *Resolver) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
		return services.Wrap(services.ErrTimeout, "resolver", "provider call",
			fmt.Sprintf("no response within %s", r.timeout), err)
	}
	return err
}

func (r *Resolver) postProcess(ctx context.Context, logger *slog.Logger, result *Result) error {
	if !result.Matched() {
		logger.Info("no provider matched",
			logging.String("query", result.Query),
			logging.String(logging.FieldEventType, "series_unmatched"),
		)
		return nil
	}
	if r.writer != nil {
		if err := r.writer.WriteSeries(ctx, result); err != nil {
			return fmt.Errorf("write back: %w", err)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyResolved(ctx, result.SeriesID, result.Title(), result.Providers()); err != nil {
			logging.WarnWithContext(logger, "resolved notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "no ntfy message for this series"),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			)
		}
	}
	return nil
}

// bookKey prefers the series listing's number, then the book record's.
func bookKey(ref metadata.SeriesBook, book metadata.BookMetadata) string {
	switch {
	case ref.Number != nil:
		return ref.Number.Key()
	case book.Number != nil:
		return book.Number.Key()
	default:
		return "id:" + ref.ID
	}
}

func validate(seriesID string, query metadata.MatchQuery) error {
	if strings.TrimSpace(seriesID) == "" {
		return services.Wrap(services.ErrValidation, "resolver", "validate", "series id is required", nil)
	}
	if strings.TrimSpace(query.SeriesName) == "" {
		return services.Wrap(services.ErrValidation, "resolver", "validate", "series name is required", nil)
	}
	return nil
}

type emitter struct {
	flow   *jobs.EventFlow
	logger *slog.Logger
}

func (e emitter) emit(event jobs.Event) {
	if e.flow == nil {
		return
	}
	if err := e.flow.Emit(event); err != nil {
		e.logger.Debug("event dropped", logging.String("kind", event.Kind()), logging.Error(err))
	}
}
