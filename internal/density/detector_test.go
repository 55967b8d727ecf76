package density

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/crowdsafe/internal/model"
)

func batch(critical, calm int) []model.DensityPoint {
	var pts []model.DensityPoint
	for i := 0; i < critical; i++ {
		pts = append(pts, model.DensityPoint{Lat: 10 + float64(i), Lng: 20 - float64(i), Intensity: 0.9, Risk: model.RiskCritical})
	}
	for i := 0; i < calm; i++ {
		pts = append(pts, model.DensityPoint{Lat: 99, Lng: 99, Intensity: 0.3, Risk: model.RiskLow})
	}
	return pts
}

func TestDetectNeedsFiveCriticalPoints(t *testing.T) {
	_, found := Detect(batch(4, 20))
	assert.False(t, found)

	b, found := Detect(batch(5, 20))
	require.True(t, found)
	assert.Equal(t, 5, b.Critical)
	assert.InDelta(t, 12.0, b.Latitude, 1e-9)
	assert.InDelta(t, 18.0, b.Longitude, 1e-9)
	assert.InDelta(t, 0.9, b.MeanIntensity, 1e-9)
	assert.Equal(t, 9.0, b.DensityLevel)
	assert.Equal(t, model.RiskCritical, b.Risk)
}

func TestDetectBoundaryIntensity(t *testing.T) {
	pts := batch(0, 0)
	for i := 0; i < 5; i++ {
		pts = append(pts, model.DensityPoint{Intensity: 0.8})
	}
	_, found := Detect(pts)
	assert.True(t, found)

	pts[0].Intensity = 0.79
	_, found = Detect(pts)
	assert.False(t, found)
}

func TestStats(t *testing.T) {
	critical, total := Stats(batch(3, 22))
	assert.Equal(t, 3, critical)
	assert.Equal(t, 25, total)

	critical, total = Stats(nil)
	assert.Zero(t, critical)
	assert.Zero(t, total)
}

func TestSyntheticSourceStaysNearVenue(t *testing.T) {
	src := NewSyntheticSource(42)
	ev := model.Event{ID: 1, Latitude: 40.7128, Longitude: -74.0060}

	pts, err := src.Sample(context.Background(), ev, 200)
	require.NoError(t, err)
	require.Len(t, pts, 200)
	for _, p := range pts {
		assert.InDelta(t, ev.Latitude, p.Lat, Spread)
		assert.InDelta(t, ev.Longitude, p.Lng, Spread)
		assert.GreaterOrEqual(t, p.Intensity, 0.0)
		assert.LessOrEqual(t, p.Intensity, 1.0)
		assert.Equal(t, model.RiskFromIntensity(p.Intensity), p.Risk)
	}
}

func TestSyntheticSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSyntheticSource(1).Sample(ctx, model.Event{}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
