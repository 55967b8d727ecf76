package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/room"
)

type countingRunner struct {
	started atomic.Int32
	running atomic.Int32
	stopped chan uint64
}

func newCountingRunner() *countingRunner {
	return &countingRunner{stopped: make(chan uint64, 64)}
}

func (r *countingRunner) Run(ctx context.Context, eventID uint64) {
	r.started.Add(1)
	r.running.Add(1)
	<-ctx.Done()
	r.running.Add(-1)
	r.stopped <- eventID
}

func setup(t *testing.T) (*Coordinator, *room.Broadcaster, *countingRunner) {
	t.Helper()
	b := room.NewBroadcaster(8)
	r := newCountingRunner()
	c := NewCoordinator(context.Background(), b, r)
	t.Cleanup(c.Shutdown)
	return c, b, r
}

func TestIdleActiveIdle(t *testing.T) {
	c, b, r := setup(t)
	a, z := b.Register("a"), b.Register("z")

	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Join(z, 1))
	require.NoError(t, c.Join(a, 1))
	assert.True(t, c.Active(1))
	assert.Eventually(t, func() bool { return r.started.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Leave(a, 1))
	assert.True(t, c.Active(1))
	require.NoError(t, c.Leave(z, 1))
	assert.False(t, c.Active(1))
	assert.Equal(t, int32(0), r.running.Load(), "leave waits for the feed to exit")
	assert.Equal(t, uint64(1), <-r.stopped)

	require.NoError(t, c.Join(a, 1))
	assert.Eventually(t, func() bool { return r.started.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestEventsRunIndependently(t *testing.T) {
	c, b, r := setup(t)
	a := b.Register("a")

	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Join(a, 2))
	assert.Eventually(t, func() bool { return r.running.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Leave(a, 1))
	assert.False(t, c.Active(1))
	assert.True(t, c.Active(2))
}

func TestInvalidEvent(t *testing.T) {
	c, b, _ := setup(t)
	a := b.Register("a")
	assert.ErrorIs(t, c.Join(a, 0), ErrInvalidEvent)
	assert.ErrorIs(t, c.Leave(a, 0), ErrInvalidEvent)
}

func TestLeaveWithoutJoinKeepsFeed(t *testing.T) {
	c, b, _ := setup(t)
	a, stranger := b.Register("a"), b.Register("s")
	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Leave(stranger, 1))
	assert.True(t, c.Active(1))
}

func TestDisconnectStopsFeeds(t *testing.T) {
	c, b, r := setup(t)
	a := b.Register("a")
	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Join(a, 3))

	c.Disconnect(a)
	assert.False(t, c.Active(1))
	assert.False(t, c.Active(3))
	assert.Equal(t, int32(0), r.running.Load())
}

func TestConcurrentJoinsStartOneFeed(t *testing.T) {
	c, b, r := setup(t)
	var wg sync.WaitGroup
	clients := make([]*room.Client, 30)
	for i := range clients {
		clients[i] = b.Register(fmt.Sprintf("c%d", i))
		wg.Add(1)
		go func(cl *room.Client) {
			defer wg.Done()
			assert.NoError(t, c.Join(cl, 9))
		}(clients[i])
	}
	wg.Wait()
	assert.Eventually(t, func() bool { return r.started.Load() == 1 }, time.Second, 5*time.Millisecond)

	for _, cl := range clients {
		wg.Add(1)
		go func(cl *room.Client) {
			defer wg.Done()
			assert.NoError(t, c.Leave(cl, 9))
		}(cl)
	}
	wg.Wait()
	assert.False(t, c.Active(9))
	assert.Equal(t, int32(1), r.started.Load())
	assert.Equal(t, int32(0), r.running.Load())
}

func TestShutdownCancelsAll(t *testing.T) {
	b := room.NewBroadcaster(8)
	r := newCountingRunner()
	c := NewCoordinator(context.Background(), b, r)
	a := b.Register("a")
	for id := uint64(1); id <= 3; id++ {
		require.NoError(t, c.Join(a, id))
	}
	assert.Eventually(t, func() bool { return r.running.Load() == 3 }, time.Second, 5*time.Millisecond)
	c.Shutdown()
	assert.Equal(t, int32(0), r.running.Load())
}

func TestRunnerPanicIsContained(t *testing.T) {
	b := room.NewBroadcaster(8)
	c := NewCoordinator(context.Background(), b, RunnerFunc(func(context.Context, uint64) { panic("boom") }))
	a := b.Register("a")
	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Leave(a, 1))
	assert.False(t, c.Active(1))
}

func (c *Coordinator) sessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func TestIdleSessionsArePruned(t *testing.T) {
	c, b, r := setup(t)
	a, z := b.Register("a"), b.Register("z")

	for id := uint64(1); id <= 20; id++ {
		require.NoError(t, c.Join(a, id))
		require.NoError(t, c.Leave(a, id))
	}
	assert.Zero(t, c.sessionCount())

	require.NoError(t, c.Leave(z, 99))
	assert.Zero(t, c.sessionCount(), "leaving an unknown event leaves nothing behind")

	require.NoError(t, c.Join(a, 1))
	require.NoError(t, c.Join(z, 1))
	require.NoError(t, c.Leave(a, 1))
	assert.Equal(t, 1, c.sessionCount())
	assert.True(t, c.Active(1))
	require.NoError(t, c.Leave(z, 1))
	assert.Zero(t, c.sessionCount())
	assert.Equal(t, int32(0), r.running.Load())
}

func TestChurnNeverOrphansAFeed(t *testing.T) {
	b := room.NewBroadcaster(8)
	var running atomic.Int32
	c := NewCoordinator(context.Background(), b, RunnerFunc(func(ctx context.Context, _ uint64) {
		running.Add(1)
		<-ctx.Done()
		running.Add(-1)
	}))
	t.Cleanup(c.Shutdown)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		cl := b.Register(fmt.Sprintf("c%d", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Join(cl, 7)
				_ = c.Leave(cl, 7)
			}
		}()
	}
	wg.Wait()
	assert.False(t, c.Active(7))
	assert.Zero(t, c.sessionCount())
	assert.Equal(t, int32(0), running.Load())
}
