package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		current, max int
		want         Tier
	}{
		{0, 10, TierNormal},
		{7, 10, TierNormal},
		{8, 10, TierWarning},
		{9, 10, TierWarning},
		{10, 10, TierOverCapacity},
		{12, 10, TierOverCapacity},
		{4, 5, TierWarning},
		{799, 1000, TierNormal},
		{800, 1000, TierWarning},
		{5, 0, TierNormal},
		{-1, 10, TierNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Evaluate(tt.current, tt.max), "%d/%d", tt.current, tt.max)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 80.0, Percentage(8, 10))
	assert.Equal(t, 33.33, Percentage(1, 3))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 0.0, Percentage(3, 0))
}

func TestCrossedOnlyUpward(t *testing.T) {
	assert.True(t, Crossed(TierNormal, TierWarning))
	assert.True(t, Crossed(TierNormal, TierOverCapacity))
	assert.True(t, Crossed(TierWarning, TierOverCapacity))
	assert.False(t, Crossed(TierWarning, TierWarning))
	assert.False(t, Crossed(TierOverCapacity, TierWarning))
	assert.False(t, Crossed(TierWarning, TierNormal))
	assert.False(t, Crossed(TierNormal, TierNormal))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "Normal", TierNormal.String())
	assert.Equal(t, "Warning", TierWarning.String())
	assert.Equal(t, "OverCapacity", TierOverCapacity.String())
}
