// Package density samples crowd intensity around an event venue, detects
// predicted bottlenecks and streams both to the event room.
package density

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// Spread is the half-width, in degrees, of the square around the venue
// that synthetic samples are drawn from.
const Spread = 0.001

// Source produces one batch of density points for an event.
type Source interface {
	Sample(ctx context.Context, ev model.Event, n int) ([]model.DensityPoint, error)
}

// SyntheticSource draws uniform random samples around the venue. It stands
// in for a camera or sensor feed.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource seeds a source. seed 0 uses the current time.
func NewSyntheticSource(seed uint64) *SyntheticSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SyntheticSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *SyntheticSource) Sample(ctx context.Context, ev model.Event, n int) ([]model.DensityPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]model.DensityPoint, 0, n)
	for i := 0; i < n; i++ {
		intensity := math.Min(1, s.rng.Float64()*1.2)
		points = append(points, model.DensityPoint{
			Lat:       ev.Latitude + (s.rng.Float64()*2-1)*Spread,
			Lng:       ev.Longitude + (s.rng.Float64()*2-1)*Spread,
			Intensity: intensity,
			Risk:      model.RiskFromIntensity(intensity),
		})
	}
	return points, nil
}
