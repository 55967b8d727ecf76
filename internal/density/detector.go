package density

import (
	"math"

	"github.com/iliyamo/crowdsafe/internal/model"
)

// Detection tuning.
const (
	// CriticalIntensity is the lower bound of the Critical risk band.
	CriticalIntensity = 0.8
	// MinCriticalPoints critical samples in one batch predict a bottleneck.
	MinCriticalPoints = 5
)

// Fixed texts attached to detected bottlenecks.
const (
	BottleneckMessage    = "Predictive overflow detected near main area. Open additional exits."
	BottleneckPrediction = "Overflow likely within 10 minutes; open additional exits"
)

// Bottleneck is a predicted overflow derived from one batch.
type Bottleneck struct {
	Latitude      float64
	Longitude     float64
	MeanIntensity float64
	DensityLevel  float64
	Risk          string
	Critical      int
}

// Stats counts critical points in a batch.
func Stats(points []model.DensityPoint) (critical, total int) {
	for _, p := range points {
		if p.Intensity >= CriticalIntensity {
			critical++
		}
	}
	return critical, len(points)
}

// Detect reports a bottleneck when the batch holds at least
// MinCriticalPoints critical samples. Location is their centroid; the
// density level is their mean intensity scaled to 0..10.
func Detect(points []model.DensityPoint) (Bottleneck, bool) {
	var (
		n              int
		lat, lng, sumI float64
	)
	for _, p := range points {
		if p.Intensity < CriticalIntensity {
			continue
		}
		n++
		lat += p.Lat
		lng += p.Lng
		sumI += p.Intensity
	}
	if n < MinCriticalPoints {
		return Bottleneck{}, false
	}
	mean := sumI / float64(n)
	return Bottleneck{
		Latitude:      lat / float64(n),
		Longitude:     lng / float64(n),
		MeanIntensity: mean,
		DensityLevel:  math.Round(mean*10*100) / 100,
		Risk:          model.RiskCritical,
		Critical:      n,
	}, true
}
