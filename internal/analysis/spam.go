package analysis

import (
	"fmt"
	"math"
)

const (
	// MaxSpamPenalty caps the sum of all triggered penalties
	MaxSpamPenalty = 150

	shortPRRatioTrigger   = 0.7
	burstClosedMinCount   = 10
	burstClosedMaxMerge   = 0.2
	newAccountBurstDays   = 7
	newAccountBurstPRs    = 5
	newAccountBurstPoints = 30
	rulePenaltyCap        = 75
)

// DetectSpam evaluates every spam heuristic independently
func DetectSpam(h PRHistory, a AccountActivity) []SpamPenalty {
	var penalties []SpamPenalty

	if h.Total > 0 && h.ShortPRRatio >= shortPRRatioTrigger {
		points := math.Min(50+(h.ShortPRRatio-shortPRRatioTrigger)*100, rulePenaltyCap)
		penalties = append(penalties, SpamPenalty{
			Kind:   PenaltyShortPRs,
			Points: roundInt(points),
			Reason: fmt.Sprintf("%.0f%% of pull requests change only a few lines", h.ShortPRRatio*100),
		})
	}

	if h.ClosedWithoutMerge >= burstClosedMinCount && h.MergeRate < burstClosedMaxMerge {
		points := math.Min(float64(50+h.ClosedWithoutMerge*2), rulePenaltyCap)
		penalties = append(penalties, SpamPenalty{
			Kind:   PenaltyBurstClosed,
			Points: roundInt(points),
			Reason: fmt.Sprintf("%d pull requests closed without merge at a %.0f%% merge rate", h.ClosedWithoutMerge, h.MergeRate*100),
		})
	}

	if a.AgeDays < newAccountBurstDays && h.Total > newAccountBurstPRs {
		penalties = append(penalties, SpamPenalty{
			Kind:   PenaltyNewAccountBurst,
			Points: newAccountBurstPoints,
			Reason: fmt.Sprintf("%d pull requests from a %d day old account", h.Total, a.AgeDays),
		})
	}

	return penalties
}

// TotalPenalty sums penalty points, capped at MaxSpamPenalty
func TotalPenalty(penalties []SpamPenalty) int {
	total := 0
	for _, p := range penalties {
		if p.Points > 0 {
			total += p.Points
		}
	}
	if total > MaxSpamPenalty {
		return MaxSpamPenalty
	}
	return total
}
