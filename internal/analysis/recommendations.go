package analysis

var metricAdvice = map[MetricName]string{
	MetricPRMergeRate:         "Focus on pull requests that are likely to be merged: discuss changes in an issue first and follow the project's contribution guide.",
	MetricRepoQuality:         "Contribute to established, well-maintained repositories.",
	MetricPositiveReactions:   "Aim for constructive, helpful comments that the community finds valuable.",
	MetricNegativeReactions:   "Review how your comments are received and keep discussions respectful and on topic.",
	MetricAccountAge:          "Keep building your history on the platform; account age improves with time.",
	MetricActivityConsistency: "Contribute regularly rather than in short bursts.",
	MetricIssueEngagement:     "Open well-described issues that invite discussion.",
	MetricCodeReviews:         "Review other contributors' pull requests.",
}

const fallbackAdvice = "Build a track record of meaningful, merged contributions before opening more pull requests."

// metricOrder fixes the order recommendations are emitted in
var metricOrder = []MetricName{
	MetricPRMergeRate,
	MetricRepoQuality,
	MetricPositiveReactions,
	MetricNegativeReactions,
	MetricAccountAge,
	MetricActivityConsistency,
	MetricIssueEngagement,
	MetricCodeReviews,
}

// Recommendations returns one message per metric scoring below neutral and
// one per spam heuristic. The fallback is used only when the result failed
// and no metric scored below neutral.
func Recommendations(metrics []MetricResult, penalties []SpamPenalty, passed bool) []string {
	low := make(map[MetricName]bool, len(metrics))
	for _, m := range metrics {
		if m.NormalizedScore < NeutralScore {
			low[m.Name] = true
		}
	}

	recs := []string{}
	for _, name := range metricOrder {
		if low[name] {
			recs = append(recs, metricAdvice[name])
		}
	}
	metricFired := len(recs) > 0

	for _, p := range penalties {
		switch p.Kind {
		case PenaltyShortPRs:
			recs = append(recs, "Bundle trivial changes into fewer, more substantial pull requests.")
		case PenaltyBurstClosed:
			recs = append(recs, "Slow down: many of your recent pull requests were closed without merge.")
		case PenaltyNewAccountBurst:
			recs = append(recs, "New accounts opening many pull requests at once are treated as suspicious; start with one contribution.")
		}
	}

	if !metricFired && !passed {
		recs = append(recs, fallbackAdvice)
	}
	return recs
}
