package jobs

import (
	"fmt"

	"tankobon/internal/metadata"
)

// Event is one progress signal of a resolution run. The set of variants is
// closed; the Tracker handles every one of them explicitly.
type Event interface {
	Kind() string
	isEvent()
}

// Event kinds, stable for JSON transport.
const (
	KindProviderSeries      = "provider_series"
	KindProviderBook        = "provider_book"
	KindProviderError       = "provider_error"
	KindProviderCompleted   = "provider_completed"
	KindPostProcessingStart = "post_processing_start"
	KindProcessingError     = "processing_error"
	KindCompletion          = "completion"
)

// ProviderSeriesEvent marks the start of a provider's series lookup.
type ProviderSeriesEvent struct {
	Provider metadata.ProviderID
}

// ProviderBookEvent reports book-level progress within one provider.
type ProviderBookEvent struct {
	Provider     metadata.ProviderID
	TotalBooks   int
	BookProgress int
}

// ProviderErrorEvent reports a provider failure; it fails the job.
type ProviderErrorEvent struct {
	Provider metadata.ProviderID
	Message  string
}

// ProviderCompletedEvent marks the end of one provider's work.
type ProviderCompletedEvent struct {
	Provider metadata.ProviderID
}

// PostProcessingStartEvent marks the start of write-back and notifications.
type PostProcessingStartEvent struct{}

// ProcessingErrorEvent reports a failure outside any provider; it fails the job.
type ProcessingErrorEvent struct {
	Message string
}

// CompletionEvent completes the job.
type CompletionEvent struct{}

func (ProviderSeriesEvent) Kind() string      { return KindProviderSeries }
func (ProviderBookEvent) Kind() string        { return KindProviderBook }
func (ProviderErrorEvent) Kind() string       { return KindProviderError }
func (ProviderCompletedEvent) Kind() string   { return KindProviderCompleted }
func (PostProcessingStartEvent) Kind() string { return KindPostProcessingStart }
func (ProcessingErrorEvent) Kind() string     { return KindProcessingError }
func (CompletionEvent) Kind() string          { return KindCompletion }

func (ProviderSeriesEvent) isEvent()      {}
func (ProviderBookEvent) isEvent()        {}
func (ProviderErrorEvent) isEvent()       {}
func (ProviderCompletedEvent) isEvent()   {}
func (PostProcessingStartEvent) isEvent() {}
func (ProcessingErrorEvent) isEvent()     {}
func (CompletionEvent) isEvent()          {}

// IsTerminal reports whether e ends a job.
func IsTerminal(e Event) bool {
	switch e.(type) {
	case ProviderErrorEvent, ProcessingErrorEvent, CompletionEvent:
		return true
	default:
		return false
	}
}

// Envelope is the flat JSON form of an Event.
type Envelope struct {
	Seq          int                 `json:"seq"`
	Kind         string              `json:"kind"`
	Provider     metadata.ProviderID `json:"provider,omitempty"`
	TotalBooks   int                 `json:"total_books,omitempty"`
	BookProgress int                 `json:"book_progress,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// Encode flattens e; seq is its position in the flow, starting at 1.
func Encode(seq int, e Event) Envelope {
	env := Envelope{Seq: seq, Kind: e.Kind()}
	switch ev := e.(type) {
	case ProviderSeriesEvent:
		env.Provider = ev.Provider
	case ProviderBookEvent:
		env.Provider = ev.Provider
		env.TotalBooks = ev.TotalBooks
		env.BookProgress = ev.BookProgress
	case ProviderErrorEvent:
		env.Provider = ev.Provider
		env.Message = ev.Message
	case ProviderCompletedEvent:
		env.Provider = ev.Provider
	case ProcessingErrorEvent:
		env.Message = ev.Message
	case PostProcessingStartEvent, CompletionEvent:
	default:
		panic(fmt.Sprintf("jobs: unhandled event %T", e))
	}
	return env
}

// Decode rebuilds the event an envelope was encoded from.
func Decode(env Envelope) (Event, error) {
	switch env.Kind {
	case KindProviderSeries:
		return ProviderSeriesEvent{Provider: env.Provider}, nil
	case KindProviderBook:
		return ProviderBookEvent{Provider: env.Provider, TotalBooks: env.TotalBooks, BookProgress: env.BookProgress}, nil
	case KindProviderError:
		return ProviderErrorEvent{Provider: env.Provider, Message: env.Message}, nil
	case KindProviderCompleted:
		return ProviderCompletedEvent{Provider: env.Provider}, nil
	case KindPostProcessingStart:
		return PostProcessingStartEvent{}, nil
	case KindProcessingError:
		return ProcessingErrorEvent{Message: env.Message}, nil
	case KindCompletion:
		return CompletionEvent{}, nil
	default:
		return nil, fmt.Errorf("jobs: unknown event kind %q", env.Kind)
	}
}

// Describe renders e as a short human-readable line.
func Describe(e Event) string {
	switch ev := e.(type) {
	case ProviderSeriesEvent:
		return fmt.Sprintf("%s: searching series", ev.Provider)
	case ProviderBookEvent:
		return fmt.Sprintf("%s: book %d/%d", ev.Provider, ev.BookProgress, ev.TotalBooks)
	case ProviderErrorEvent:
		return fmt.Sprintf("%s: error: %s", ev.Provider, ev.Message)
	case ProviderCompletedEvent:
		return fmt.Sprintf("%s: done", ev.Provider)
	case PostProcessingStartEvent:
		return "post-processing"
	case ProcessingErrorEvent:
		return "error: " + ev.Message
	case CompletionEvent:
		return "completed"
	default:
		panic(fmt.Sprintf("jobs: unhandled event %T", e))
	}
}
