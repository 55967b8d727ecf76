// Package session ties room membership to the lifecycle of the per-event
// density feed: the first member of an event's room starts the feed and
// the last one to leave cancels it.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/room"
	"github.com/rs/zerolog"
)

// ErrInvalidEvent rejects a join or leave without a positive event id.
var ErrInvalidEvent = errors.New("event_id must be a positive integer")

// Runner is the background task started per active event. Run must return
// soon after ctx is cancelled.
type Runner interface {
	Run(ctx context.Context, eventID uint64)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, eventID uint64)

func (f RunnerFunc) Run(ctx context.Context, eventID uint64) { f(ctx, eventID) }

// Rooms is the membership table the coordinator drives.
type Rooms interface {
	Join(c *room.Client, eventID uint64) (first, joined bool)
	Leave(c *room.Client, eventID uint64) (remaining int, was bool)
}

type eventSession struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	dead   bool // pruned from the map; lockers must fetch a fresh session
}

// Coordinator serialises joins and leaves per event. Different events never
// contend on the same lock.
type Coordinator struct {
	rooms  Rooms
	runner Runner
	base   context.Context
	stop   context.CancelFunc
	log    zerolog.Logger

	mu       sync.Mutex
	sessions map[uint64]*eventSession
}

// NewCoordinator returns a coordinator whose feeds are children of ctx.
func NewCoordinator(ctx context.Context, rooms Rooms, runner Runner) *Coordinator {
	base, stop := context.WithCancel(ctx)
	return &Coordinator{
		rooms:    rooms,
		runner:   runner,
		base:     base,
		stop:     stop,
		log:      log.WithComponent("session"),
		sessions: make(map[uint64]*eventSession),
	}
}

func (c *Coordinator) session(eventID uint64) *eventSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[eventID]
	if !ok {
		s = &eventSession{}
		c.sessions[eventID] = s
	}
	return s
}

// lock returns the event's live session with s.mu held.
func (c *Coordinator) lock(eventID uint64) *eventSession {
	for {
		s := c.session(eventID)
		s.mu.Lock()
		if !s.dead {
			return s
		}
		s.mu.Unlock()
	}
}

// pruneLocked forgets an idle session. Callers hold s.mu.
func (c *Coordinator) pruneLocked(s *eventSession, eventID uint64) {
	if s.cancel != nil {
		return
	}
	c.mu.Lock()
	if c.sessions[eventID] == s {
		delete(c.sessions, eventID)
	}
	c.mu.Unlock()
	s.dead = true
}

// Join adds the client to the event's room and starts the feed when the
// event goes from idle to active. Joining twice is a no-op.
func (c *Coordinator) Join(cl *room.Client, eventID uint64) error {
	if eventID == 0 {
		return ErrInvalidEvent
	}
	s := c.lock(eventID)
	defer s.mu.Unlock()

	first, joined := c.rooms.Join(cl, eventID)
	if !joined {
		return nil
	}
	c.log.Debug().Uint64("event_id", eventID).Str("client_id", cl.ID).Msg("joined event room")
	if first && s.cancel == nil {
		c.start(s, eventID)
	}
	return nil
}

func (c *Coordinator) start(s *eventSession, eventID uint64) {
	ctx, cancel := context.WithCancel(c.base)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Interface("panic", r).Uint64("event_id", eventID).Msg("density feed panicked")
			}
		}()
		c.runner.Run(ctx, eventID)
	}()
	c.log.Info().Uint64("event_id", eventID).Msg("event active")
}

// stopLocked cancels the event's feed and waits for it to exit.
func (c *Coordinator) stopLocked(s *eventSession, eventID uint64) {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
	c.log.Info().Uint64("event_id", eventID).Msg("event idle")
}

// Leave removes the client from the event's room and stops the feed when
// it was the last member.
func (c *Coordinator) Leave(cl *room.Client, eventID uint64) error {
	if eventID == 0 {
		return ErrInvalidEvent
	}
	s := c.lock(eventID)
	defer s.mu.Unlock()

	remaining, was := c.rooms.Leave(cl, eventID)
	if was && remaining == 0 {
		c.stopLocked(s, eventID)
	}
	if remaining == 0 {
		c.pruneLocked(s, eventID)
	}
	return nil
}

// Disconnect leaves every room the client is in.
func (c *Coordinator) Disconnect(cl *room.Client) {
	for _, id := range cl.Rooms() {
		_ = c.Leave(cl, id)
	}
}

// Active reports whether the event currently has a running feed.
func (c *Coordinator) Active(eventID uint64) bool {
	c.mu.Lock()
	s, ok := c.sessions[eventID]
	c.mu.Unlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Shutdown cancels every feed and waits for all of them to exit.
func (c *Coordinator) Shutdown() {
	c.stop()
	c.mu.Lock()
	ids := make([]uint64, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		s := c.lock(id)
		c.stopLocked(s, id)
		c.pruneLocked(s, id)
		s.mu.Unlock()
	}
}
