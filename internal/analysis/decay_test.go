package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBlendDualHorizon(t *testing.T) {
	assert.Equal(t, 0.8, BlendDualHorizon(1, 0.8, 0))
	assert.Equal(t, 1.0, BlendDualHorizon(1, 0.8, 1))
	assert.InDelta(t, 0.9, BlendDualHorizon(1, 0.8, 0.5), 1e-9)
	// lambda is clamped to [0, 1]
	assert.Equal(t, 0.8, BlendDualHorizon(1, 0.8, -3))
	assert.Equal(t, 1.0, BlendDualHorizon(1, 0.8, 7))
}

func TestDecayFactor(t *testing.T) {
	tests := []struct {
		name     string
		dates    []time.Time
		expected float64
	}{
		{"no activity means no decay", nil, 1.0},
		{"all recent", []time.Time{daysAgo(1), daysAgo(30), daysAgo(80)}, 1.0},
		{"all stale", []time.Time{daysAgo(100), daysAgo(200)}, 0.8},
		{"half recent", []time.Time{daysAgo(10), daysAgo(200)}, 0.9},
		{"three months ago is still recent", []time.Time{testNow.AddDate(0, -3, 0)}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DecayFactor(tt.dates, testNow), 1e-9)
		})
	}
}

func TestApplyDecay(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		factor   float64
		expected int
	}{
		{"factor one is a no-op", 800, 1.0, 800},
		{"factor one below baseline is a no-op", 123, 1.0, 123},
		{"pulls a high score toward baseline", 800, 0.8, 740},
		{"pulls a low score toward baseline", 200, 0.8, 260},
		{"baseline stays put", 500, 0.8, 500},
		{"negative input moves up", -150, 0.8, -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyDecay(tt.score, tt.factor))
		})
	}
}

func TestApplyDecay_NeverCrossesBaseline(t *testing.T) {
	for score := -200; score <= 1200; score += 7 {
		for _, f := range []float64{0.8, 0.85, 0.9, 0.95, 0.99} {
			got := ApplyDecay(score, f)
			switch {
			case score > Baseline:
				assert.GreaterOrEqual(t, got, Baseline)
				assert.LessOrEqual(t, got, score)
			case score < Baseline:
				assert.LessOrEqual(t, got, Baseline)
				assert.GreaterOrEqual(t, got, score)
			default:
				assert.Equal(t, Baseline, got)
			}
		}
	}
}
