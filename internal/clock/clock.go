// Package clock lets background loops and services take time from an
// injectable source so tests can drive them deterministically.
package clock

import (
	"sync"
	"time"
)

// Ticker delivers ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock allows injecting time in domain/services.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now and time.NewTicker.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s *systemTicker) C() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()               { s.t.Stop() }

// Manual is a clock whose time and tickers only move when the test says so.
// A single Tick call wakes exactly one waiting loop.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*ManualTicker
}

// NewManual returns a manual clock starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t.UTC()}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d without firing tickers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) NewTicker(time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &ManualTicker{ch: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

// Tickers returns how many tickers have been created so far.
func (m *Manual) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// Tick sends one tick to the most recently created, still running ticker.
// It blocks until the owning loop receives it or the timeout elapses and
// reports whether the tick was delivered.
func (m *Manual) Tick(timeout time.Duration) bool {
	m.mu.Lock()
	var target *ManualTicker
	for i := len(m.tickers) - 1; i >= 0; i-- {
		if !m.tickers[i].stopped() {
			target = m.tickers[i]
			break
		}
	}
	now := m.now
	m.mu.Unlock()
	if target == nil {
		return false
	}
	select {
	case target.ch <- now:
		return true
	case <-time.After(timeout):
		return false
	}
}

// ManualTicker is the Ticker handed out by Manual.
type ManualTicker struct {
	mu   sync.Mutex
	ch   chan time.Time
	done bool
}

func (t *ManualTicker) C() <-chan time.Time { return t.ch }

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
}

func (t *ManualTicker) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
