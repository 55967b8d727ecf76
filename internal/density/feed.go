package density

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/crowdsafe/internal/alert"
	"github.com/iliyamo/crowdsafe/internal/clock"
	"github.com/iliyamo/crowdsafe/internal/log"
	"github.com/iliyamo/crowdsafe/internal/metrics"
	"github.com/iliyamo/crowdsafe/internal/model"
	"github.com/iliyamo/crowdsafe/internal/room"
)

// Defaults for FeedConfig.
const (
	DefaultInterval  = 2 * time.Second
	DefaultBatchSize = 25
	DefaultCooldown  = 30 * time.Second
)

// EventSource loads the event whose venue anchors the samples.
type EventSource interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// Publisher pushes density updates to the event room.
type Publisher interface {
	Publish(m room.Message) int
}

// Alerter raises predicted-bottleneck alerts.
type Alerter interface {
	Dispatch(ctx context.Context, cond alert.Condition) model.Alert
}

// FeedConfig tunes a Feed. Cooldown 0 alerts on every qualifying batch.
type FeedConfig struct {
	Interval  time.Duration
	BatchSize int
	Cooldown  time.Duration
}

// Feed runs the sample, detect, publish loop for one event at a time per
// Run call. A single Feed serves every event; cooldowns are per event.
type Feed struct {
	source Source
	events EventSource
	rooms  Publisher
	alerts Alerter
	clock  clock.Clock
	cfg    FeedConfig

	mu        sync.Mutex
	lastAlert map[uint64]time.Time
}

// NewFeed wires a feed. A zero interval or batch size takes its default.
func NewFeed(source Source, events EventSource, rooms Publisher, alerts Alerter, clk clock.Clock, cfg FeedConfig) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	return &Feed{
		source:    source,
		events:    events,
		rooms:     rooms,
		alerts:    alerts,
		clock:     clk,
		cfg:       cfg,
		lastAlert: make(map[uint64]time.Time),
	}
}

// Run samples immediately and then once per interval until ctx is
// cancelled. Nothing is published after cancellation is observed.
func (f *Feed) Run(ctx context.Context, eventID uint64) {
	l := log.WithEventID("density", eventID)
	ev, err := f.events.GetByID(ctx, eventID)
	if err != nil {
		l.Error().Err(err).Msg("load event failed, density feed not started")
		return
	}

	metrics.DensityFeedsActive.Inc()
	defer metrics.DensityFeedsActive.Dec()
	l.Info().Dur("interval", f.cfg.Interval).Int("batch", f.cfg.BatchSize).Msg("density feed started")
	defer l.Info().Msg("density feed stopped")

	ticker := f.clock.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := f.step(ctx, ev); err != nil && ctx.Err() == nil {
			l.Warn().Err(err).Msg("density sample failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
	}
}

func (f *Feed) step(ctx context.Context, ev model.Event) error {
	points, err := f.source.Sample(ctx, ev, f.cfg.BatchSize)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	critical, total := Stats(points)
	update := room.DensityUpdate{
		EventID: ev.ID,
		Points:  points,
		Stats:   room.DensityStats{Critical: critical, Total: total},
	}
	b, found := Detect(points)
	if found {
		update.Alert = &room.DensityAlert{
			Message:      BottleneckMessage,
			Level:        b.Risk,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
			DensityLevel: b.DensityLevel,
		}
	}
	f.rooms.Publish(update)

	if found && f.allow(ev.ID) {
		level := b.DensityLevel
		f.alerts.Dispatch(ctx, alert.PredictedBottleneck{
			Event:        ev.ID,
			RiskLevel:    b.Risk,
			Details:      BottleneckMessage,
			Latitude:     b.Latitude,
			Longitude:    b.Longitude,
			DensityLevel: &level,
			Prediction:   BottleneckPrediction,
		})
	}
	return nil
}

// allow reports whether a bottleneck alert may be dispatched for the event
// now, and records it when it may.
func (f *Feed) allow(eventID uint64) bool {
	now := f.clock.Now()
	f.mu.Lock()
	defer f.mu.Unlock()
	if last, ok := f.lastAlert[eventID]; ok && f.cfg.Cooldown > 0 && now.Sub(last) < f.cfg.Cooldown {
		return false
	}
	f.lastAlert[eventID] = now
	return true
}
