package model

// Density risk tiers, assigned from a point's intensity by fixed bands.
const (
    RiskLow      = "Low"
    RiskMedium   = "Medium"
    RiskHigh     = "High"
    RiskCritical = "Critical"
)

// DensityPoint is one spatial sample of crowd intensity in [0,1].
type DensityPoint struct {
    Lat       float64 `json:"lat"`
    Lng       float64 `json:"lng"`
    Intensity float64 `json:"intensity"`
    Risk      string  `json:"risk"`
}

// RiskFromIntensity maps an intensity to its tier.
func RiskFromIntensity(x float64) string {
    switch {
    case x >= 0.8:
        return RiskCritical
    case x >= 0.6:
        return RiskHigh
    case x >= 0.4:
        return RiskMedium
    default:
        return RiskLow
    }
}
