package analysis

import (
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/config"
)

// MetricName identifies one of the eight scored metrics
type MetricName string

const (
	MetricPRMergeRate         MetricName = "prMergeRate"
	MetricRepoQuality         MetricName = "repoQuality"
	MetricPositiveReactions   MetricName = "positiveReactions"
	MetricNegativeReactions   MetricName = "negativeReactions"
	MetricAccountAge          MetricName = "accountAge"
	MetricActivityConsistency MetricName = "activityConsistency"
	MetricIssueEngagement     MetricName = "issueEngagement"
	MetricCodeReviews         MetricName = "codeReviews"
)

// Baseline is the neutral score on the 0-1000 scale
const Baseline = 500

// NeutralScore is the normalized score for missing or inconclusive data
const NeutralScore = 50.0

// PRHistory summarizes the contributor's pull requests
type PRHistory struct {
	Total              int         `json:"total"`
	Merged             int         `json:"merged"`
	ClosedWithoutMerge int         `json:"closed_without_merge"`
	Open               int         `json:"open"`
	ShortPRs           int         `json:"short_prs"`
	MergeRate          float64     `json:"merge_rate"`
	ShortPRRatio       float64     `json:"short_pr_ratio"`
	AverageSize        float64     `json:"average_size"`
	MedianSize         float64     `json:"median_size"`
	MergeDates         []time.Time `json:"merge_dates"`
}

// RepoQuality summarizes where merged work landed
type RepoQuality struct {
	// QualityRepos is the number of repositories at or above the star floor
	QualityRepos int `json:"quality_repos"`
	// Repos maps each resolvable repository to the highest star count seen
	Repos map[string]int `json:"repos"`
	// MergedContributions counts merged PRs with a resolvable repository
	MergedContributions int `json:"merged_contributions"`
}

// Reactions summarizes reactions received on the contributor's comments
type Reactions struct {
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
	Total         int     `json:"total"`
	PositiveRatio float64 `json:"positive_ratio"`
	NegativeRatio float64 `json:"negative_ratio"`
}

// AccountActivity summarizes account age and month-over-month activity
type AccountActivity struct {
	AgeDays          int     `json:"age_days"`
	ActiveMonths     int     `json:"active_months"`
	EffectiveMonths  int     `json:"effective_months"`
	ConsistencyRatio float64 `json:"consistency_ratio"`
}

// IssueEngagement summarizes how much discussion the contributor's issues drew
type IssueEngagement struct {
	Total         int     `json:"total"`
	WithComments  int     `json:"with_comments"`
	WithReactions int     `json:"with_reactions"`
	Engaged       int     `json:"engaged"`
	Rate          float64 `json:"rate"`
}

// CodeReviews summarizes reviews given to others
type CodeReviews struct {
	Given int `json:"given"`
}

// MetricResult is one normalized, weighted metric
type MetricResult struct {
	Name            MetricName `json:"name"`
	RawValue        float64    `json:"raw_value"`
	NormalizedScore float64    `json:"normalized_score"`
	Weight          float64    `json:"weight"`
	WeightedScore   float64    `json:"weighted_score"`
	Details         string     `json:"details"`
	DataPointCount  int        `json:"data_point_count"`
}

// PenaltyKind names a spam heuristic
type PenaltyKind string

const (
	PenaltyShortPRs        PenaltyKind = "short-prs"
	PenaltyBurstClosed     PenaltyKind = "burst-closed"
	PenaltyNewAccountBurst PenaltyKind = "new-account-burst"
)

// SpamPenalty is one triggered spam heuristic
type SpamPenalty struct {
	Kind   PenaltyKind `json:"kind"`
	Points int         `json:"points"`
	Reason string      `json:"reason"`
}

// AnalysisWindow is the trailing period the score is based on
type AnalysisWindow struct {
	Since  time.Time `json:"since"`
	Until  time.Time `json:"until"`
	Months int       `json:"months"`
}

// ScoringResult is the outcome of one evaluation. It is built once and never
// modified afterwards.
type ScoringResult struct {
	Username          string             `json:"username"`
	FinalScore        int                `json:"final_score"`
	RawScore          int                `json:"raw_score"`
	ScoreAfterPenalty int                `json:"score_after_penalty"`
	DecayFactor       float64            `json:"decay_factor"`
	SpamPenalty       int                `json:"spam_penalty"`
	Penalties         []SpamPenalty      `json:"penalties"`
	Passed            bool               `json:"passed"`
	Threshold         int                `json:"threshold"`
	Metrics           []MetricResult     `json:"metrics"`
	Recommendations   []string           `json:"recommendations"`
	IsNewAccount      bool               `json:"is_new_account"`
	HasLimitedData    bool               `json:"has_limited_data"`
	Trusted           bool               `json:"trusted"`
	Mode              config.ScoringMode `json:"mode"`
	AccountAgeDays    int                `json:"account_age_days"`
	Window            AnalysisWindow     `json:"analysis_window"`
	EvaluatedAt       time.Time          `json:"evaluated_at"`
}

// Metric returns the result for name
func (r *ScoringResult) Metric(name MetricName) (MetricResult, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return MetricResult{}, false
}
