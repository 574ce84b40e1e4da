package analysis

import (
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/types"
)

// Analyzer orchestrates the full scoring pipeline for one configuration
type Analyzer struct {
	cfg      *config.Config
	composer Composer
}

// NewAnalyzer creates an analyzer using the composer selected by cfg.Mode
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		composer: NewComposer(cfg.Mode),
	}
}

// Evaluate scores a snapshot as of now. Missing history is never an error;
// only a snapshot without login or creation time is rejected.
func (a *Analyzer) Evaluate(s types.RawContributorSnapshot, now time.Time) (*ScoringResult, error) {
	if s.Login == "" {
		return nil, errors.NewFatalError("snapshot has no login", nil)
	}
	if s.CreatedAt.IsZero() {
		return nil, errors.NewFatalError("snapshot for "+s.Login+" has no account creation time", nil)
	}

	since := a.cfg.Since(now)
	window := NewPreprocessor(since, now).Process(s)

	prs := ExtractPRHistory(window, a.cfg)
	repos := ExtractRepoQuality(window, a.cfg)
	reactions := ExtractReactions(window, a.cfg)
	account := ExtractAccountActivity(window, a.cfg, now)
	issues := ExtractIssueEngagement(window, a.cfg)
	reviews := ExtractCodeReviews(window, a.cfg)

	w, t := a.cfg.Weights, a.cfg.Thresholds
	metrics := []MetricResult{
		NormalizePRMergeRate(prs, w.PRMergeRate, t),
		NormalizeRepoQuality(repos, w.RepoQuality, t),
		NormalizePositiveReactions(reactions, w.PositiveReactions, t),
		NormalizeNegativeReactions(reactions, w.NegativeReactions, t),
		NormalizeAccountAge(account, w.AccountAge, t),
		NormalizeActivityConsistency(account, w.ActivityConsistency, t),
		NormalizeIssueEngagement(issues, w.IssueEngagement, t),
		NormalizeCodeReviews(reviews, w.CodeReviews, t),
	}

	result := a.composer.Compose(CompositionInput{
		Username:                s.Login,
		Metrics:                 metrics,
		Penalties:               DetectSpam(prs, account),
		MergeDates:              prs.MergeDates,
		AccountAgeDays:          account.AgeDays,
		Threshold:               a.cfg.MinimumScoreThreshold,
		NewAccountThresholdDays: a.cfg.NewAccountThresholdDays,
		Window: AnalysisWindow{
			Since:  since,
			Until:  now,
			Months: a.cfg.AnalysisWindowMonths,
		},
		Now: now,
	})
	return &result, nil
}

// TrustedResult is the constant result for users on the trusted list. They
// are never scored.
func TrustedResult(login string, cfg *config.Config, now time.Time) *ScoringResult {
	return &ScoringResult{
		Username:          login,
		FinalScore:        1000,
		RawScore:          1000,
		ScoreAfterPenalty: 1000,
		DecayFactor:       1,
		Passed:            true,
		Threshold:         cfg.MinimumScoreThreshold,
		Metrics:           []MetricResult{},
		Penalties:         []SpamPenalty{},
		Recommendations:   []string{},
		Trusted:           true,
		Mode:              cfg.Mode,
		Window: AnalysisWindow{
			Since:  cfg.Since(now),
			Until:  now,
			Months: cfg.AnalysisWindowMonths,
		},
		EvaluatedAt: now,
	}
}
