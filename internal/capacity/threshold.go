package capacity

import "math"

// Tier is a zone's occupancy classification. Tiers are ordered so that a
// larger value is a more dangerous state.
type Tier int

const (
	TierNormal Tier = iota
	TierWarning
	TierOverCapacity
)

// Occupancy bands, in percent of max capacity.
const (
	WarningPercent      = 80
	OverCapacityPercent = 100
)

func (t Tier) String() string {
	switch t {
	case TierWarning:
		return "Warning"
	case TierOverCapacity:
		return "OverCapacity"
	default:
		return "Normal"
	}
}

// Evaluate classifies an occupancy. A zone without a positive max is
// always Normal. Integer comparison keeps 8/10 exactly at the 80% band.
func Evaluate(current, max int) Tier {
	if max <= 0 || current <= 0 {
		return TierNormal
	}
	switch {
	case current*100 >= OverCapacityPercent*max:
		return TierOverCapacity
	case current*100 >= WarningPercent*max:
		return TierWarning
	default:
		return TierNormal
	}
}

// Percentage returns current/max*100 rounded to 2 decimals, or 0 when max
// is not positive.
func Percentage(current, max int) float64 {
	if max <= 0 {
		return 0
	}
	p := float64(current) / float64(max) * 100
	return math.Round(p*100) / 100
}

// Crossed reports whether moving from prev to next is an upward crossing
// into Warning or OverCapacity, the only transitions that raise an alert.
func Crossed(prev, next Tier) bool {
	return next > prev && next >= TierWarning
}
