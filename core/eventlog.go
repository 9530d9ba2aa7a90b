package core

import (
	"context"
	"sync"
)

// EventLog is an append-only ordered record of game events. It follows a
// single-writer/multi-reader discipline: the phase machine and reflection
// pipeline append sequentially while any number of subscribers read
// concurrently. Subscribers always observe the backlog first and then new
// events, in append order, with no gaps.
type EventLog struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []GameEvent
	closed bool
	done   chan struct{}
}

// NewEventLog constructs an empty log.
func NewEventLog() *EventLog {
	l := &EventLog{done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// Append adds an event to the log and wakes subscribers. Appending to a
// closed log is a no-op.
func (l *EventLog) Append(ev GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.events = append(l.events, ev)
	l.cond.Broadcast()
}

// Len returns the number of events appended so far.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Events returns a defensive copy of the full ordered history.
func (l *EventLog) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Close marks the log complete. Subscribers drain the backlog and then their
// channels are closed.
func (l *EventLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
	l.cond.Broadcast()
}

// Subscribe returns a channel that first replays every event already in the
// log and then streams new events in order. The channel is closed when the
// log is closed or ctx is cancelled. Each subscriber tracks its own cursor,
// so a slow subscriber never blocks the writer or other readers.
func (l *EventLog) Subscribe(ctx context.Context) <-chan GameEvent {
	out := make(chan GameEvent)

	// Cancellation has to wake a subscriber blocked on the condition
	// variable. The watcher itself exits on Close, so a never-cancelled
	// context does not pin it forever.
	go func() {
		select {
		case <-ctx.Done():
			l.cond.Broadcast()
		case <-l.done:
		}
	}()

	go func() {
		defer close(out)
		cursor := 0
		for {
			l.mu.Lock()
			for cursor >= len(l.events) && !l.closed && ctx.Err() == nil {
				l.cond.Wait()
			}
			if ctx.Err() != nil || (l.closed && cursor >= len(l.events)) {
				l.mu.Unlock()
				return
			}
			ev := l.events[cursor]
			cursor++
			l.mu.Unlock()

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
