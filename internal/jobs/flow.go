package jobs

import (
	"context"
	"errors"
	"sync"
)

// ErrFlowClosed is returned when emitting into a closed flow.
var ErrFlowClosed = errors.New("event flow closed")

// EventFlow is an append-only event stream of one resolution run. Every
// subscriber sees the full history from the first event, so a listener that
// attaches late cannot miss the terminal event. Emitting a terminal event
// closes the flow.
type EventFlow struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []Event
	closed bool
}

// NewEventFlow returns an open, empty flow.
func NewEventFlow() *EventFlow {
	f := &EventFlow{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Emit appends e and wakes waiting readers.
func (f *EventFlow) Emit(e Event) error {
	if e == nil {
		return errors.New("emit nil event")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFlowClosed
	}
	f.events = append(f.events, e)
	if IsTerminal(e) {
		f.closed = true
	}
	f.cond.Broadcast()
	return nil
}

// Close ends the flow without a terminal event. Closing twice is a no-op.
func (f *EventFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		f.cond.Broadcast()
	}
}

// Closed reports whether the flow accepts no more events.
func (f *EventFlow) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Len reports the number of events emitted so far.
func (f *EventFlow) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

// Fetch returns the events after position since (0 means from the start) and
// the position to pass next time. When wait is true and nothing is pending it
// blocks until an event arrives, the flow closes, or ctx ends. closed reports
// that no event will follow the returned ones.
func (f *EventFlow) Fetch(ctx context.Context, since int, wait bool) (events []Event, next int, closed bool, err error) {
	if since < 0 {
		since = 0
	}
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		f.cond.Broadcast()
		f.mu.Unlock()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for {
		if since < len(f.events) {
			events = append([]Event(nil), f.events[since:]...)
			return events, len(f.events), f.closed, nil
		}
		if f.closed || !wait {
			return nil, len(f.events), f.closed, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, since, false, err
		}
		f.cond.Wait()
	}
}

// Subscribe delivers every event, history first, on the returned channel.
// The channel closes after the flow closes and is drained, or when ctx ends.
func (f *EventFlow) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		since := 0
		for {
			events, next, closed, err := f.Fetch(ctx, since, true)
			if err != nil {
				return
			}
			for _, e := range events {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
			if closed {
				return
			}
			since = next
		}
	}()
	return out
}
