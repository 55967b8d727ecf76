// Package room fans push messages out to the clients that joined an
// event's room. Rooms are independent: publishing into one event never
// takes another event's lock.
package room

import (
	"sync"

	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultBuffer is the per-client outbound queue length.
const DefaultBuffer = 64

// Client is one realtime connection. Messages queued for it are read from
// Messages in the order they were published per room.
type Client struct {
	ID string

	mu     sync.Mutex
	send   chan Message
	rooms  map[uint64]struct{}
	closed bool
}

// Messages returns the outbound queue. It is closed on Unregister.
func (c *Client) Messages() <-chan Message { return c.send }

// Rooms returns the events the client currently belongs to.
func (c *Client) Rooms() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]uint64, 0, len(c.rooms))
	for id := range c.rooms {
		out = append(out, id)
	}
	return out
}

// deliver queues m without blocking. A full or closed queue drops it.
func (c *Client) deliver(m Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- m:
		return true
	default:
		return false
	}
}

type roomState struct {
	mu      sync.Mutex
	members map[string]*Client
	dead    bool
}

// Broadcaster keeps the event rooms. The outer lock only guards the map of
// rooms; membership and delivery are serialised per room.
type Broadcaster struct {
	mu     sync.Mutex
	rooms  map[uint64]*roomState
	buffer int
	log    zerolog.Logger
}

// NewBroadcaster creates an empty broadcaster. buffer <= 0 uses DefaultBuffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		rooms:  make(map[uint64]*roomState),
		buffer: buffer,
		log:    log.WithComponent("room"),
	}
}

// Register creates a client with an empty room set.
func (b *Broadcaster) Register(id string) *Client {
	return &Client{
		ID:    id,
		send:  make(chan Message, b.buffer),
		rooms: make(map[uint64]struct{}),
	}
}

// Unregister removes the client from every room and closes its queue.
// The returned ids are the rooms it was in.
func (b *Broadcaster) Unregister(c *Client) []uint64 {
	rooms := c.Rooms()
	for _, id := range rooms {
		b.Leave(c, id)
	}
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	return rooms
}

// lockRoom returns the live room for eventID with its lock held, creating
// it when missing.
func (b *Broadcaster) lockRoom(eventID uint64) *roomState {
	for {
		b.mu.Lock()
		r, ok := b.rooms[eventID]
		if !ok {
			r = &roomState{members: make(map[string]*Client)}
			b.rooms[eventID] = r
		}
		b.mu.Unlock()

		r.mu.Lock()
		if !r.dead {
			return r
		}
		r.mu.Unlock()
		b.drop(eventID, r)
	}
}

func (b *Broadcaster) drop(eventID uint64, r *roomState) {
	b.mu.Lock()
	if b.rooms[eventID] == r {
		delete(b.rooms, eventID)
	}
	b.mu.Unlock()
}

func (b *Broadcaster) lookup(eventID uint64) *roomState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rooms[eventID]
}

// Join adds c to the event's room. joined is false when c was already a
// member; first is true when c is now the only member.
func (b *Broadcaster) Join(c *Client, eventID uint64) (first, joined bool) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return false, false
	}

	r := b.lockRoom(eventID)
	defer r.mu.Unlock()
	if _, ok := r.members[c.ID]; ok {
		return false, false
	}
	r.members[c.ID] = c
	c.mu.Lock()
	c.rooms[eventID] = struct{}{}
	c.mu.Unlock()
	metrics.RoomMembers.Inc()
	return len(r.members) == 1, true
}

// Leave removes c from the event's room and reports how many members
// remain. was is false when c was not a member.
func (b *Broadcaster) Leave(c *Client, eventID uint64) (remaining int, was bool) {
	r := b.lookup(eventID)
	if r == nil {
		return 0, false
	}
	r.mu.Lock()
	if _, ok := r.members[c.ID]; !ok {
		remaining = len(r.members)
		r.mu.Unlock()
		return remaining, false
	}
	delete(r.members, c.ID)
	remaining = len(r.members)
	if remaining == 0 {
		r.dead = true
	}
	r.mu.Unlock()

	c.mu.Lock()
	delete(c.rooms, eventID)
	c.mu.Unlock()
	metrics.RoomMembers.Dec()
	if remaining == 0 {
		b.drop(eventID, r)
	}
	return remaining, true
}

// Publish queues m for every member of its event's room and returns how
// many clients received it. Members with a full queue miss the message.
func (b *Broadcaster) Publish(m Message) int {
	r := b.lookup(m.Event())
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delivered := 0
	for _, c := range r.members {
		if c.deliver(m) {
			delivered++
			continue
		}
		metrics.MessagesDroppedTotal.WithLabelValues(string(m.Type())).Inc()
		b.log.Warn().Uint64("event_id", m.Event()).Str("client_id", c.ID).
			Str("type", string(m.Type())).Msg("client queue full, message dropped")
	}
	return delivered
}

// Members returns the room size of an event.
func (b *Broadcaster) Members(eventID uint64) int {
	r := b.lookup(eventID)
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}
