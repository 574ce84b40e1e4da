package analysis

import (
	"fmt"

	"github.com/jdiegosierra/contributor-quality/internal/config"
)

func newResult(name MetricName, raw, score, weight float64, dataPoints int, details string) MetricResult {
	score = clip(score, 0, 100)
	return MetricResult{
		Name:            name,
		RawValue:        raw,
		NormalizedScore: score,
		Weight:          weight,
		WeightedScore:   score * weight,
		Details:         details,
		DataPointCount:  dataPoints,
	}
}

// tierScore returns scores[i] for the highest tier i with n >= tiers[i], or
// NeutralScore below the first tier
func tierScore(n int, tiers [4]int, scores [4]float64) float64 {
	score := NeutralScore
	for i, t := range tiers {
		if n >= t {
			score = scores[i]
		}
	}
	return score
}

// NormalizePRMergeRate scores merge rate. The band between poor and good is
// neutral.
func NormalizePRMergeRate(h PRHistory, weight float64, t config.MetricThresholds) MetricResult {
	decided := h.Merged + h.ClosedWithoutMerge
	if decided == 0 {
		return newResult(MetricPRMergeRate, 0, NeutralScore, weight, 0, "No merged or closed pull requests in window")
	}

	r := h.MergeRate
	var score float64
	switch {
	case r >= t.MergeRateExcellent:
		score = 100
	case r >= t.MergeRateGood:
		score = NeutralScore + (r-t.MergeRateGood)/(t.MergeRateExcellent-t.MergeRateGood)*NeutralScore
	case r >= t.MergeRatePoor:
		score = NeutralScore
	default:
		score = r / t.MergeRatePoor * NeutralScore
	}

	details := fmt.Sprintf("%d of %d decided pull requests merged (%.0f%%)", h.Merged, decided, r*100)
	return newResult(MetricPRMergeRate, r, score, weight, decided, details)
}

// NormalizeRepoQuality scores the number of repositories at or above the star floor
func NormalizeRepoQuality(q RepoQuality, weight float64, t config.MetricThresholds) MetricResult {
	score := tierScore(q.QualityRepos, t.RepoQualityTiers, [4]float64{55, 65, 75, 100})
	details := fmt.Sprintf("Merged into %d quality repositories out of %d", q.QualityRepos, len(q.Repos))
	if q.MergedContributions == 0 {
		details = "No merged pull requests to resolvable repositories"
	}
	return newResult(MetricRepoQuality, float64(q.QualityRepos), score, weight, q.MergedContributions, details)
}

// NormalizePositiveReactions scores the share of positive reactions
func NormalizePositiveReactions(r Reactions, weight float64, t config.MetricThresholds) MetricResult {
	if r.Total < t.MinReactions {
		details := fmt.Sprintf("Only %d reactions received, not enough to judge", r.Total)
		return newResult(MetricPositiveReactions, r.PositiveRatio, NeutralScore, weight, r.Total, details)
	}

	p := r.PositiveRatio
	var score float64
	switch {
	case p >= t.PositiveRatioExcellent:
		score = 100
	case p >= t.PositiveRatioGood:
		score = 75
	case p >= t.PositiveRatioNeutral:
		score = NeutralScore
	default:
		score = p / t.PositiveRatioNeutral * NeutralScore
	}

	details := fmt.Sprintf("%d of %d reactions positive (%.0f%%)", r.Positive, r.Total, p*100)
	return newResult(MetricPositiveReactions, p, score, weight, r.Total, details)
}

// NormalizeNegativeReactions only ever lowers the score; a low negative
// share stays neutral
func NormalizeNegativeReactions(r Reactions, weight float64, t config.MetricThresholds) MetricResult {
	if r.Total < t.MinReactions {
		details := fmt.Sprintf("Only %d reactions received, not enough to judge", r.Total)
		return newResult(MetricNegativeReactions, r.NegativeRatio, NeutralScore, weight, r.Total, details)
	}

	n := r.NegativeRatio
	var score float64
	switch {
	case n < t.NegativeRatioMild:
		score = NeutralScore
	case n < t.NegativeRatioModerate:
		score = 40
	case n < t.NegativeRatioSevere:
		score = 25
	default:
		score = 25 - (n-t.NegativeRatioSevere)/(1-t.NegativeRatioSevere)*25
		if score < 0 {
			score = 0
		}
	}

	details := fmt.Sprintf("%d of %d reactions negative (%.0f%%)", r.Negative, r.Total, n*100)
	return newResult(MetricNegativeReactions, n, score, weight, r.Total, details)
}

// NormalizeAccountAge scores account age. Young accounts are neutral, never penalized.
func NormalizeAccountAge(a AccountActivity, weight float64, t config.MetricThresholds) MetricResult {
	var score float64
	switch d := a.AgeDays; {
	case d >= t.AccountAgeEstablishedDays:
		score = 100
	case d >= t.AccountAgeMatureDays:
		score = 75
	case d >= t.AccountAgeGrowingDays:
		score = 60
	case d >= t.AccountAgeYoungDays:
		score = 55
	default:
		score = NeutralScore
	}

	details := fmt.Sprintf("Account is %d days old", a.AgeDays)
	return newResult(MetricAccountAge, float64(a.AgeDays), score, weight, 1, details)
}

// NormalizeActivityConsistency scores the share of months with activity
func NormalizeActivityConsistency(a AccountActivity, weight float64, t config.MetricThresholds) MetricResult {
	if a.EffectiveMonths == 0 {
		return newResult(MetricActivityConsistency, 0, NeutralScore, weight, a.ActiveMonths, "Account too new to evaluate consistency")
	}

	c := a.ConsistencyRatio
	var score float64
	switch {
	case c >= t.ConsistencyExcellent:
		score = 100
	case c >= t.ConsistencyGood:
		score = 85
	case c >= t.ConsistencyFair:
		score = 70
	case c >= t.ConsistencyLow:
		score = 55
	default:
		score = NeutralScore
	}

	details := fmt.Sprintf("Active in %d of %d months", a.ActiveMonths, a.EffectiveMonths)
	return newResult(MetricActivityConsistency, c, score, weight, a.ActiveMonths, details)
}

// NormalizeIssueEngagement scores how much discussion issues drew
func NormalizeIssueEngagement(e IssueEngagement, weight float64, t config.MetricThresholds) MetricResult {
	if e.Total == 0 {
		return newResult(MetricIssueEngagement, 0, NeutralScore, weight, 0, "No issues opened in window")
	}

	var score float64
	switch {
	case e.Rate >= t.IssueEngagementHigh && e.Total >= t.IssueEngagementHighMin:
		score = 100
	case e.Rate >= t.IssueEngagementMedium && e.Total >= t.IssueEngagementMediumMin:
		score = 75
	case e.Rate >= t.IssueEngagementLow:
		score = 60
	default:
		score = NeutralScore
	}

	details := fmt.Sprintf("%d of %d issues drew engagement", e.Engaged, e.Total)
	return newResult(MetricIssueEngagement, e.Rate, score, weight, e.Total, details)
}

// NormalizeCodeReviews scores the number of reviews given
func NormalizeCodeReviews(c CodeReviews, weight float64, t config.MetricThresholds) MetricResult {
	score := tierScore(c.Given, t.CodeReviewTiers, [4]float64{55, 65, 80, 100})
	details := fmt.Sprintf("Gave %d code reviews", c.Given)
	return newResult(MetricCodeReviews, float64(c.Given), score, weight, c.Given, details)
}
