package analysis

import (
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/config"
)

// CompositionInput is everything a Composer needs for one evaluation
type CompositionInput struct {
	Username                string
	Metrics                 []MetricResult
	Penalties               []SpamPenalty
	MergeDates              []time.Time
	AccountAgeDays          int
	Threshold               int
	NewAccountThresholdDays int
	Window                  AnalysisWindow
	Now                     time.Time
}

// Composer turns metric results, penalties and merge recency into the final
// score. Implementations differ only in how metrics are aggregated.
type Composer interface {
	Mode() config.ScoringMode
	Compose(in CompositionInput) ScoringResult
}

// NewComposer returns the composer for mode, defaulting to weighted
func NewComposer(mode config.ScoringMode) Composer {
	if mode == config.ModeThreshold {
		return ThresholdComposer{}
	}
	return WeightedComposer{}
}

// WeightedComposer sums the weighted sub-scores and rescales to 0-1000
type WeightedComposer struct{}

// Mode implements Composer
func (WeightedComposer) Mode() config.ScoringMode { return config.ModeWeighted }

// Compose implements Composer
func (c WeightedComposer) Compose(in CompositionInput) ScoringResult {
	sum := 0.0
	for _, m := range in.Metrics {
		sum += m.WeightedScore
	}
	return compose(c.Mode(), roundInt(sum*10), in)
}

// ThresholdComposer treats each metric as above, at or below neutral before
// weighting
type ThresholdComposer struct{}

// Mode implements Composer
func (ThresholdComposer) Mode() config.ScoringMode { return config.ModeThreshold }

// Compose implements Composer
func (c ThresholdComposer) Compose(in CompositionInput) ScoringResult {
	sum := 0.0
	for _, m := range in.Metrics {
		sum += quantize(m.NormalizedScore) * m.Weight
	}
	return compose(c.Mode(), roundInt(sum*10), in)
}

func quantize(score float64) float64 {
	switch {
	case score > NeutralScore:
		return 100
	case score < NeutralScore:
		return 0
	default:
		return NeutralScore
	}
}

// compose runs the steps shared by every strategy: penalty, decay, clamp and flags
func compose(mode config.ScoringMode, rawScore int, in CompositionInput) ScoringResult {
	penalty := TotalPenalty(in.Penalties)
	afterPenalty := rawScore - penalty

	factor := DecayFactor(in.MergeDates, in.Now)
	final := clipInt(ApplyDecay(afterPenalty, factor), 0, 1000)

	dataPoints := 0
	for _, m := range in.Metrics {
		dataPoints += m.DataPointCount
	}

	metrics := append([]MetricResult(nil), in.Metrics...)
	penalties := append([]SpamPenalty(nil), in.Penalties...)

	passed := final >= in.Threshold
	return ScoringResult{
		Username:          in.Username,
		FinalScore:        final,
		RawScore:          rawScore,
		ScoreAfterPenalty: afterPenalty,
		DecayFactor:       factor,
		SpamPenalty:       penalty,
		Penalties:         penalties,
		Passed:            passed,
		Threshold:         in.Threshold,
		Metrics:           metrics,
		Recommendations:   Recommendations(metrics, penalties, passed),
		IsNewAccount:      in.AccountAgeDays < in.NewAccountThresholdDays,
		HasLimitedData:    dataPoints < limitedDataPoints,
		Mode:              mode,
		AccountAgeDays:    in.AccountAgeDays,
		Window:            in.Window,
		EvaluatedAt:       in.Now,
	}
}

// limitedDataPoints is the total below which a result is flagged as thin
const limitedDataPoints = 5
