package events

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/model"
)

type collector struct {
	mu  sync.Mutex
	evs []model.Event
}

func (c *collector) add(ev model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evs = append(c.evs, ev)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.evs)
}

func (c *collector) types() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]model.EventType, len(c.evs))
	for i, ev := range c.evs {
		types[i] = ev.Type
	}
	return types
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestFollowDeliversExistingAndAppendedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Emit(testEvent(model.EventJobStarted, "")))

	var c collector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, c.add)
	}()

	// The pre-existing event arrives from the initial drain.
	waitFor(t, 3*time.Second, func() bool { return c.count() >= 1 })

	require.NoError(t, l.Emit(testEvent(model.EventStepStarted, "a")))
	require.NoError(t, l.Emit(testEvent(model.EventJobCompleted, "")))
	require.NoError(t, l.Close())

	waitFor(t, 3*time.Second, func() bool { return c.count() >= 3 })
	assert.Equal(t, []model.EventType{
		model.EventJobStarted,
		model.EventStepStarted,
		model.EventJobCompleted,
	}, c.types())

	cancel()
	err = <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFollowPicksUpLateCreatedLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.jsonl")

	var c collector
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Follow(ctx, path, c.add)
	}()

	// Give the watcher a moment to arm before the file exists.
	time.Sleep(50 * time.Millisecond)

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.Emit(testEvent(model.EventJobStarted, "")))
	require.NoError(t, l.Close())

	waitFor(t, 3*time.Second, func() bool { return c.count() >= 1 })

	cancel()
	<-done
}
