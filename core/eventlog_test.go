package core

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogAppendOrdering(t *testing.T) {
	log := NewEventLog()
	for i := 0; i < 5; i++ {
		ev := NewGameEvent("s1", "g1", EventSpeech, VisibilityPublic)
		ev.Payload = map[string]any{"n": i}
		log.Append(ev)
	}

	events := log.Events()
	require.Len(t, events, 5)
	for i, ev := range events {
		assert.Equal(t, i, ev.Payload["n"])
	}

	// Defensive copy: mutating the returned slice must not affect the log.
	events[0].Payload["n"] = 99
	assert.Equal(t, 5, log.Len())
}

func TestEventLogSubscribeReplaysBacklogThenStreams(t *testing.T) {
	log := NewEventLog()
	first := NewGameEvent("s1", "g1", EventGameStarted, VisibilityPublic)
	log.Append(first)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := log.Subscribe(ctx)

	got := <-sub
	assert.Equal(t, first.ID, got.ID)

	second := NewGameEvent("s1", "g1", EventDayStarted, VisibilityPublic)
	log.Append(second)

	got = <-sub
	assert.Equal(t, second.ID, got.ID)

	log.Close()
	_, open := <-sub
	assert.False(t, open, "channel should close after log close")
}

func TestEventLogSubscribeCancellation(t *testing.T) {
	log := NewEventLog()
	ctx, cancel := context.WithCancel(context.Background())
	sub := log.Subscribe(ctx)

	cancel()

	select {
	case _, open := <-sub:
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not terminate after cancellation")
	}
}

func TestEventLogConcurrentSubscribersSeeSameOrder(t *testing.T) {
	log := NewEventLog()
	ctx := context.Background()

	subA := log.Subscribe(ctx)
	subB := log.Subscribe(ctx)

	var ids []string
	for i := 0; i < 10; i++ {
		ev := NewGameEvent("s1", "g1", EventVoteCast, VisibilityPublic)
		ids = append(ids, ev.ID)
		log.Append(ev)
	}
	log.Close()

	collect := func(ch <-chan GameEvent) []string {
		var got []string
		for ev := range ch {
			got = append(got, ev.ID)
		}
		return got
	}

	assert.Equal(t, ids, collect(subA))
	assert.Equal(t, ids, collect(subB))
}

func TestEventLogAppendAfterCloseIsNoOp(t *testing.T) {
	log := NewEventLog()
	log.Close()
	log.Append(NewGameEvent("s1", "g1", EventError, VisibilityViewer))
	assert.Equal(t, 0, log.Len())
}

func TestEventLogCloseReleasesBackgroundSubscribers(t *testing.T) {
	base := runtime.NumGoroutine()

	log := NewEventLog()
	// Subscribers with a context that is never cancelled must still be fully
	// released once the log closes.
	subs := make([]<-chan GameEvent, 50)
	for i := range subs {
		subs[i] = log.Subscribe(context.Background())
	}

	log.Append(NewGameEvent("s1", "g1", EventGameStarted, VisibilityPublic))
	log.Close()
	log.Close() // idempotent

	for _, sub := range subs {
		for range sub {
		}
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+5
	}, 2*time.Second, 10*time.Millisecond, "subscriber goroutines should exit after Close")
}
