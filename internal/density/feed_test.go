package density

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/alert"
	"github.com/iliyamo/crowdsafe/internal/clock"
	"github.com/iliyamo/crowdsafe/internal/model"
	"github.com/iliyamo/crowdsafe/internal/room"
)

type fixedSource struct{ points []model.DensityPoint }

func (s fixedSource) Sample(ctx context.Context, _ model.Event, _ int) ([]model.DensityPoint, error) {
	return s.points, ctx.Err()
}

type events map[uint64]model.Event

func (e events) GetByID(_ context.Context, id uint64) (model.Event, error) {
	ev, ok := e[id]
	if !ok {
		return model.Event{}, errors.New("no such event")
	}
	return ev, nil
}

type sink struct {
	updates chan room.DensityUpdate

	mu     sync.Mutex
	alerts []alert.PredictedBottleneck
}

func newSink() *sink { return &sink{updates: make(chan room.DensityUpdate, 16)} }

func (s *sink) Publish(m room.Message) int {
	if u, ok := m.(room.DensityUpdate); ok {
		s.updates <- u
	}
	return 1
}

func (s *sink) Dispatch(_ context.Context, cond alert.Condition) model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, cond.(alert.PredictedBottleneck))
	return model.Alert{}
}

func (s *sink) alertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func (s *sink) next(t *testing.T) room.DensityUpdate {
	t.Helper()
	select {
	case u := <-s.updates:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("no density update published")
		return room.DensityUpdate{}
	}
}

var venue = events{7: {ID: 7, Name: "Harbour Fest", Latitude: 51.5, Longitude: -0.12}}

func startFeed(t *testing.T, src Source, cfg FeedConfig) (*sink, *clock.Manual, context.CancelFunc, chan struct{}) {
	t.Helper()
	out := newSink()
	clk := clock.NewManual(time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC))
	f := NewFeed(src, venue, out, out, clk, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx, 7)
	}()
	return out, clk, cancel, done
}

func TestFeedPublishesImmediatelyAndPerTick(t *testing.T) {
	out, clk, cancel, done := startFeed(t, fixedSource{batch(2, 23)}, FeedConfig{})
	defer cancel()

	u := out.next(t)
	assert.Equal(t, uint64(7), u.EventID)
	assert.Len(t, u.Points, 25)
	assert.Equal(t, room.DensityStats{Critical: 2, Total: 25}, u.Stats)
	assert.Nil(t, u.Alert)

	require.True(t, clk.Tick(time.Second))
	out.next(t)

	cancel()
	<-done
	assert.Zero(t, out.alertCount())
}

func TestFeedBottleneckCooldown(t *testing.T) {
	out, clk, cancel, done := startFeed(t, fixedSource{batch(6, 19)}, FeedConfig{Cooldown: 30 * time.Second})
	defer cancel()

	u := out.next(t)
	require.NotNil(t, u.Alert)
	assert.Equal(t, BottleneckMessage, u.Alert.Message)
	assert.Equal(t, model.RiskCritical, u.Alert.Level)
	assert.Equal(t, 9.0, u.Alert.DensityLevel)

	require.True(t, clk.Tick(time.Second))
	u = out.next(t)
	assert.NotNil(t, u.Alert, "room still sees the detection during cooldown")

	clk.Advance(31 * time.Second)
	require.True(t, clk.Tick(time.Second))
	out.next(t)

	cancel()
	<-done
	require.Equal(t, 2, out.alertCount())
	a := out.alerts[0]
	assert.Equal(t, uint64(7), a.Event)
	assert.Equal(t, model.RiskCritical, a.RiskLevel)
	assert.Equal(t, BottleneckPrediction, a.Prediction)
	require.NotNil(t, a.DensityLevel)
	assert.Equal(t, 9.0, *a.DensityLevel)
	assert.False(t, a.Manual)
}

func TestFeedWithoutCooldownAlertsEveryBatch(t *testing.T) {
	out, clk, cancel, done := startFeed(t, fixedSource{batch(5, 0)}, FeedConfig{Cooldown: 0})
	defer cancel()

	out.next(t)
	for i := 0; i < 2; i++ {
		require.True(t, clk.Tick(time.Second))
		out.next(t)
	}
	cancel()
	<-done
	assert.Equal(t, 3, out.alertCount())
}

func TestFeedStopsOnCancel(t *testing.T) {
	out, clk, cancel, done := startFeed(t, fixedSource{batch(1, 4)}, FeedConfig{})
	out.next(t)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
	assert.False(t, clk.Tick(50*time.Millisecond))
	assert.Empty(t, out.updates)
}

func TestFeedUnknownEvent(t *testing.T) {
	out := newSink()
	clk := clock.NewManual(time.Now())
	f := NewFeed(fixedSource{batch(5, 0)}, venue, out, out, clk, FeedConfig{})
	f.Run(context.Background(), 99)
	assert.Empty(t, out.updates)
	assert.Zero(t, clk.Tickers())
}
