package room

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capacity(event uint64, current int) CapacityUpdate {
	return CapacityUpdate{EventID: event, ZoneID: 1, Current: current, Max: 100}
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case m := <-c.Messages():
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestJoinReportsFirstMember(t *testing.T) {
	b := NewBroadcaster(4)
	a, c := b.Register("a"), b.Register("c")

	first, joined := b.Join(a, 1)
	assert.True(t, first)
	assert.True(t, joined)

	first, joined = b.Join(a, 1)
	assert.False(t, first)
	assert.False(t, joined, "second join is a no-op")

	first, joined = b.Join(c, 1)
	assert.False(t, first)
	assert.True(t, joined)
	assert.Equal(t, 2, b.Members(1))
	assert.ElementsMatch(t, []uint64{1}, a.Rooms())
}

func TestLeaveCountsRemaining(t *testing.T) {
	b := NewBroadcaster(4)
	a, c := b.Register("a"), b.Register("c")
	b.Join(a, 1)
	b.Join(c, 1)

	remaining, was := b.Leave(a, 1)
	assert.Equal(t, 1, remaining)
	assert.True(t, was)

	remaining, was = b.Leave(a, 1)
	assert.Equal(t, 1, remaining)
	assert.False(t, was)

	remaining, was = b.Leave(c, 1)
	assert.Zero(t, remaining)
	assert.True(t, was)
	assert.Zero(t, b.Members(1))

	remaining, was = b.Leave(c, 2)
	assert.Zero(t, remaining)
	assert.False(t, was)

	first, joined := b.Join(a, 1)
	assert.True(t, first, "an emptied room starts over")
	assert.True(t, joined)
}

func TestPublishIsolatesRooms(t *testing.T) {
	b := NewBroadcaster(8)
	one, two, both := b.Register("one"), b.Register("two"), b.Register("both")
	b.Join(one, 1)
	b.Join(two, 2)
	b.Join(both, 1)
	b.Join(both, 2)

	assert.Equal(t, 2, b.Publish(capacity(1, 10)))
	assert.Equal(t, 2, b.Publish(capacity(2, 20)))
	assert.Zero(t, b.Publish(capacity(3, 30)))

	assert.Equal(t, []Message{capacity(1, 10)}, drain(one))
	assert.Equal(t, []Message{capacity(2, 20)}, drain(two))
	assert.Equal(t, []Message{capacity(1, 10), capacity(2, 20)}, drain(both))
}

func TestPublishKeepsOrderPerRoom(t *testing.T) {
	b := NewBroadcaster(100)
	c := b.Register("c")
	b.Join(c, 5)
	for i := 0; i < 50; i++ {
		b.Publish(capacity(5, i))
	}
	got := drain(c)
	require.Len(t, got, 50)
	for i, m := range got {
		assert.Equal(t, i, m.(CapacityUpdate).Current)
	}
}

func TestSlowClientDropsWithoutBlocking(t *testing.T) {
	b := NewBroadcaster(2)
	slow, fast := b.Register("slow"), b.Register("fast")
	b.Join(slow, 1)
	b.Join(fast, 1)

	for i := 0; i < 5; i++ {
		b.Publish(capacity(1, i))
		drain(fast)
	}
	got := drain(slow)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].(CapacityUpdate).Current)
	assert.Equal(t, 1, got[1].(CapacityUpdate).Current)
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	b := NewBroadcaster(4)
	c := b.Register("c")
	b.Join(c, 1)
	b.Join(c, 2)

	left := b.Unregister(c)
	assert.ElementsMatch(t, []uint64{1, 2}, left)
	assert.Zero(t, b.Members(1))
	assert.Zero(t, b.Members(2))

	_, open := <-c.Messages()
	assert.False(t, open)
	assert.Zero(t, b.Publish(capacity(1, 1)))

	_, joined := b.Join(c, 1)
	assert.False(t, joined, "closed clients cannot rejoin")
	assert.Empty(t, b.Unregister(c))
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	b := NewBroadcaster(1024)
	var wg sync.WaitGroup
	clients := make([]*Client, 40)
	for i := range clients {
		clients[i] = b.Register(fmt.Sprintf("c%d", i))
	}
	for i, c := range clients {
		wg.Add(1)
		go func(c *Client, event uint64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Join(c, event)
				b.Publish(capacity(event, j))
				b.Leave(c, event)
			}
		}(c, uint64(i%4+1))
	}
	wg.Wait()
	for e := uint64(1); e <= 4; e++ {
		assert.Zero(t, b.Members(e))
	}
	for _, c := range clients {
		for _, m := range drain(c) {
			assert.Contains(t, []uint64{1, 2, 3, 4}, m.Event())
		}
	}
}
