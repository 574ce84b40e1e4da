package analysis

import "time"

const (
	minDecay = 0.8
	maxDecay = 1.0

	// recentMonths is the horizon that counts as recent activity
	recentMonths = 3
)

// BlendDualHorizon blends short- and long-horizon aggregates.
func BlendDualHorizon(shortAgg, longAgg, lambda float64) float64 {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return lambda*shortAgg + (1-lambda)*longAgg
}

// RecencyRatio is the share of dates within the last three months. ok is
// false when there are no dates.
func RecencyRatio(dates []time.Time, now time.Time) (r float64, ok bool) {
	if len(dates) == 0 {
		return 0, false
	}
	cutoff := now.AddDate(0, -recentMonths, 0)
	recent := 0
	for _, d := range dates {
		if !d.Before(cutoff) {
			recent++
		}
	}
	return ratio(recent, len(dates), 0), true
}

// DecayFactor maps merge recency onto [0.8, 1.0]. No activity means no decay.
func DecayFactor(mergeDates []time.Time, now time.Time) float64 {
	r, ok := RecencyRatio(mergeDates, now)
	if !ok {
		return maxDecay
	}
	return BlendDualHorizon(maxDecay, minDecay, r)
}

// ApplyDecay pulls score toward the baseline by factor; it never crosses it.
func ApplyDecay(score int, factor float64) int {
	return roundInt(Baseline + float64(score-Baseline)*factor)
}
