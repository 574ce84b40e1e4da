package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/jdiegosierra/contributor-quality/internal/errors"
)

// ScoringMode selects the composer strategy.
type ScoringMode string

const (
	// ModeWeighted sums the weighted sub-scores (primary).
	ModeWeighted ScoringMode = "weighted"
	// ModeThreshold quantizes each metric to above/at/below neutral first.
	ModeThreshold ScoringMode = "threshold"
)

// Default values for the scoring configuration.
const (
	DefaultMinimumScoreThreshold   = 500
	DefaultMinimumStarsForQuality  = 100
	DefaultAnalysisWindowMonths    = 12
	DefaultNewAccountThresholdDays = 30
	DefaultGraphQLEndpoint         = "https://api.github.com/graphql"
	DefaultPageSize                = 100

	// weightSumTolerance is how far the weights may drift from 1.0 before a warning.
	weightSumTolerance = 0.01
)

// Config is the validated configuration consumed by the scoring core and its
// thin CLI/server wrappers.
type Config struct {
	// MinimumScoreThreshold is the pass mark on the 0-1000 scale.
	MinimumScoreThreshold int `yaml:"minimum_score_threshold"`

	// MinimumStarsForQuality is the star floor for a repository to count
	// towards the repository-quality metric.
	MinimumStarsForQuality int `yaml:"minimum_stars_for_quality"`

	// AnalysisWindowMonths is the trailing look-back window.
	AnalysisWindowMonths int `yaml:"analysis_window_months"`

	// NewAccountThresholdDays flags accounts younger than this as new.
	NewAccountThresholdDays int `yaml:"new_account_threshold_days"`

	// Mode is one of: weighted | threshold.
	Mode ScoringMode `yaml:"mode"`

	Weights    Weights          `yaml:"weights"`
	Thresholds MetricThresholds `yaml:"thresholds"`

	// TrustedUsers bypass scoring entirely; the decision is made by the
	// caller before the analyzer runs.
	TrustedUsers []string `yaml:"trusted_users"`

	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
	Server  ServerConfig  `yaml:"server"`
}

// Weights holds the per-metric weight. They are expected to sum to 1.0.
type Weights struct {
	PRMergeRate         float64 `yaml:"pr_merge_rate"`
	RepoQuality         float64 `yaml:"repo_quality"`
	PositiveReactions   float64 `yaml:"positive_reactions"`
	NegativeReactions   float64 `yaml:"negative_reactions"`
	AccountAge          float64 `yaml:"account_age"`
	ActivityConsistency float64 `yaml:"activity_consistency"`
	IssueEngagement     float64 `yaml:"issue_engagement"`
	CodeReviews         float64 `yaml:"code_reviews"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.PRMergeRate + w.RepoQuality + w.PositiveReactions + w.NegativeReactions +
		w.AccountAge + w.ActivityConsistency + w.IssueEngagement + w.CodeReviews
}

func (w Weights) named() map[string]float64 {
	return map[string]float64{
		"pr_merge_rate":        w.PRMergeRate,
		"repo_quality":         w.RepoQuality,
		"positive_reactions":   w.PositiveReactions,
		"negative_reactions":   w.NegativeReactions,
		"account_age":          w.AccountAge,
		"activity_consistency": w.ActivityConsistency,
		"issue_engagement":     w.IssueEngagement,
		"code_reviews":         w.CodeReviews,
	}
}

// MetricThresholds holds the breakpoints of every normalization curve.
type MetricThresholds struct {
	// ShortPRLines: a PR with fewer added+removed lines is "short".
	ShortPRLines int `yaml:"short_pr_lines"`

	MergeRateExcellent float64 `yaml:"merge_rate_excellent"`
	MergeRateGood      float64 `yaml:"merge_rate_good"`
	MergeRatePoor      float64 `yaml:"merge_rate_poor"`

	// MinReactions below which reaction metrics stay neutral.
	MinReactions int `yaml:"min_reactions"`

	PositiveRatioExcellent float64 `yaml:"positive_ratio_excellent"`
	PositiveRatioGood      float64 `yaml:"positive_ratio_good"`
	PositiveRatioNeutral   float64 `yaml:"positive_ratio_neutral"`

	NegativeRatioMild     float64 `yaml:"negative_ratio_mild"`
	NegativeRatioModerate float64 `yaml:"negative_ratio_moderate"`
	NegativeRatioSevere   float64 `yaml:"negative_ratio_severe"`

	AccountAgeEstablishedDays int `yaml:"account_age_established_days"`
	AccountAgeMatureDays      int `yaml:"account_age_mature_days"`
	AccountAgeGrowingDays     int `yaml:"account_age_growing_days"`
	AccountAgeYoungDays       int `yaml:"account_age_young_days"`

	ConsistencyExcellent float64 `yaml:"consistency_excellent"`
	ConsistencyGood      float64 `yaml:"consistency_good"`
	ConsistencyFair      float64 `yaml:"consistency_fair"`
	ConsistencyLow       float64 `yaml:"consistency_low"`

	IssueEngagementHigh      float64 `yaml:"issue_engagement_high"`
	IssueEngagementHighMin   int     `yaml:"issue_engagement_high_min_issues"`
	IssueEngagementMedium    float64 `yaml:"issue_engagement_medium"`
	IssueEngagementMediumMin int     `yaml:"issue_engagement_medium_min_issues"`
	IssueEngagementLow       float64 `yaml:"issue_engagement_low"`

	// RepoQualityTiers: counts of quality repos scoring 55, 65, 75 and 100.
	RepoQualityTiers [4]int `yaml:"repo_quality_tiers"`

	// CodeReviewTiers: review counts scoring 55, 65, 80 and 100.
	CodeReviewTiers [4]int `yaml:"code_review_tiers"`
}

// FetchConfig controls the resilient GraphQL fetch client.
type FetchConfig struct {
	Endpoint string `yaml:"endpoint"`

	// Token is read from the environment only.
	Token string `yaml:"-"`

	// Timeout bounds a single HTTP round trip.
	Timeout time.Duration `yaml:"timeout"`

	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`

	// MaxRateLimitWait caps any wait for a quota reset. Default: 60s.
	MaxRateLimitWait time.Duration `yaml:"max_rate_limit_wait"`

	// LowWaterMark: when the last known remaining quota drops below this,
	// the client waits for the reset before issuing the next request.
	LowWaterMark int `yaml:"low_water_mark"`

	// RequestsPerSecond paces outgoing requests.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// PageSize bounds the number of PRs, comments and issues fetched.
	PageSize int `yaml:"page_size"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// ServerConfig controls the optional HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`

	// CacheTTL is how long a score is served from memory. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// HSTS sends Strict-Transport-Security; enable only behind TLS.
	HSTS bool `yaml:"hsts"`
}

// Default returns a Config populated with every default value.
func Default() *Config {
	return &Config{
		MinimumScoreThreshold:   DefaultMinimumScoreThreshold,
		MinimumStarsForQuality:  DefaultMinimumStarsForQuality,
		AnalysisWindowMonths:    DefaultAnalysisWindowMonths,
		NewAccountThresholdDays: DefaultNewAccountThresholdDays,
		Mode:                    ModeWeighted,
		Weights: Weights{
			PRMergeRate:         0.20,
			RepoQuality:         0.20,
			PositiveReactions:   0.15,
			NegativeReactions:   0.15,
			AccountAge:          0.10,
			ActivityConsistency: 0.10,
			IssueEngagement:     0.05,
			CodeReviews:         0.05,
		},
		Thresholds: MetricThresholds{
			ShortPRLines:              10,
			MergeRateExcellent:        0.9,
			MergeRateGood:             0.7,
			MergeRatePoor:             0.3,
			MinReactions:              5,
			PositiveRatioExcellent:    0.8,
			PositiveRatioGood:         0.6,
			PositiveRatioNeutral:      0.4,
			NegativeRatioMild:         0.10,
			NegativeRatioModerate:     0.20,
			NegativeRatioSevere:       0.30,
			AccountAgeEstablishedDays: 365,
			AccountAgeMatureDays:      180,
			AccountAgeGrowingDays:     90,
			AccountAgeYoungDays:       30,
			ConsistencyExcellent:      0.9,
			ConsistencyGood:           0.7,
			ConsistencyFair:           0.5,
			ConsistencyLow:            0.25,
			IssueEngagementHigh:       0.7,
			IssueEngagementHighMin:    3,
			IssueEngagementMedium:     0.5,
			IssueEngagementMediumMin:  2,
			IssueEngagementLow:        0.3,
			RepoQualityTiers:          [4]int{1, 2, 5, 10},
			CodeReviewTiers:           [4]int{1, 5, 10, 20},
		},
		Fetch: FetchConfig{
			Endpoint:          DefaultGraphQLEndpoint,
			Timeout:           30 * time.Second,
			MaxAttempts:       3,
			InitialDelay:      time.Second,
			MaxDelay:          30 * time.Second,
			MaxRateLimitWait:  60 * time.Second,
			LowWaterMark:      10,
			RequestsPerSecond: 5,
			PageSize:          DefaultPageSize,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr:     ":8080",
			CacheTTL: 15 * time.Minute,
		},
	}
}

// Load reads the YAML file at path (when non-empty), applies environment
// overrides and validates the result. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if sum, ok := cfg.WeightSumDrift(); ok {
		slog.Warn("config: metric weights do not sum to 1.0", "sum", sum)
	}

	return cfg, nil
}

// ApplyEnv overrides selected fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GITHUB_TOKEN"); ok {
		c.Fetch.Token = v
	}
	if v, ok := lookup("CQ_GITHUB_TOKEN"); ok {
		c.Fetch.Token = v
	}
	if v, ok := lookup("CQ_MODE"); ok {
		c.Mode = ScoringMode(strings.ToLower(v))
	}
	if v, ok := lookup("CQ_LOG_LEVEL"); ok {
		c.Logging.Level = strings.ToLower(v)
	}

	ints := map[string]*int{
		"CQ_MINIMUM_SCORE_THRESHOLD":    &c.MinimumScoreThreshold,
		"CQ_MINIMUM_STARS_FOR_QUALITY":  &c.MinimumStarsForQuality,
		"CQ_ANALYSIS_WINDOW_MONTHS":     &c.AnalysisWindowMonths,
		"CQ_NEW_ACCOUNT_THRESHOLD_DAYS": &c.NewAccountThresholdDays,
	}
	problems := map[string]string{}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems[key] = fmt.Sprintf("not an integer: %q", v)
			continue
		}
		*dst = n
	}
	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}

// Validate checks every bounded field and reports all violations at once.
func (c *Config) Validate() error {
	problems := map[string]string{}

	if c.MinimumScoreThreshold < 0 || c.MinimumScoreThreshold > 1000 {
		problems["minimum_score_threshold"] = fmt.Sprintf("%d is out of range [0, 1000]", c.MinimumScoreThreshold)
	}
	if c.MinimumStarsForQuality < 0 {
		problems["minimum_stars_for_quality"] = "must not be negative"
	}
	if c.AnalysisWindowMonths <= 0 {
		problems["analysis_window_months"] = "must be greater than 0"
	}
	if c.NewAccountThresholdDays < 0 {
		problems["new_account_threshold_days"] = "must not be negative"
	}
	switch c.Mode {
	case ModeWeighted, ModeThreshold:
	default:
		problems["mode"] = fmt.Sprintf("%q unknown: want weighted|threshold", c.Mode)
	}

	for name, w := range c.Weights.named() {
		if math.IsNaN(w) || w < 0 || w > 1 {
			problems["weights."+name] = fmt.Sprintf("%v is out of range [0, 1]", w)
		}
	}

	t := c.Thresholds
	if t.ShortPRLines < 0 {
		problems["thresholds.short_pr_lines"] = "must not be negative"
	}
	if !(t.MergeRatePoor < t.MergeRateGood && t.MergeRateGood < t.MergeRateExcellent) {
		problems["thresholds.merge_rate"] = "want merge_rate_poor < merge_rate_good < merge_rate_excellent"
	}
	if !(t.PositiveRatioNeutral < t.PositiveRatioGood && t.PositiveRatioGood < t.PositiveRatioExcellent) {
		problems["thresholds.positive_ratio"] = "want neutral < good < excellent"
	}
	if !(t.NegativeRatioMild < t.NegativeRatioModerate && t.NegativeRatioModerate < t.NegativeRatioSevere && t.NegativeRatioSevere < 1) {
		problems["thresholds.negative_ratio"] = "want mild < moderate < severe < 1"
	}
	if !(t.AccountAgeYoungDays < t.AccountAgeGrowingDays && t.AccountAgeGrowingDays < t.AccountAgeMatureDays &&
		t.AccountAgeMatureDays < t.AccountAgeEstablishedDays) {
		problems["thresholds.account_age"] = "want young < growing < mature < established"
	}
	if !(t.ConsistencyLow < t.ConsistencyFair && t.ConsistencyFair < t.ConsistencyGood && t.ConsistencyGood < t.ConsistencyExcellent) {
		problems["thresholds.consistency"] = "want low < fair < good < excellent"
	}
	if !ascending(t.RepoQualityTiers[:]) {
		problems["thresholds.repo_quality_tiers"] = "must be strictly ascending and positive"
	}
	if !ascending(t.CodeReviewTiers[:]) {
		problems["thresholds.code_review_tiers"] = "must be strictly ascending and positive"
	}

	f := c.Fetch
	if f.Endpoint == "" {
		problems["fetch.endpoint"] = "must not be empty"
	}
	if f.MaxAttempts < 1 {
		problems["fetch.max_attempts"] = "must be at least 1"
	}
	if f.InitialDelay < 0 || f.MaxDelay < 0 || f.MaxRateLimitWait < 0 || f.Timeout < 0 {
		problems["fetch.delays"] = "durations must not be negative"
	}
	if f.MaxDelay <= 0 {
		problems["fetch.max_delay"] = "must be greater than 0"
	}
	if f.LowWaterMark < 0 {
		problems["fetch.low_water_mark"] = "must not be negative"
	}
	if f.RequestsPerSecond <= 0 {
		problems["fetch.requests_per_second"] = "must be greater than 0"
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		problems["fetch.page_size"] = fmt.Sprintf("%d is out of range [1, 100]", f.PageSize)
	}

	if c.Server.CacheTTL < 0 {
		problems["server.cache_ttl"] = "must not be negative"
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems["logging.level"] = fmt.Sprintf("%q unknown: want debug|info|warn|error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		problems["logging.format"] = fmt.Sprintf("%q unknown: want json|text", c.Logging.Format)
	}

	if len(problems) > 0 {
		return apperrors.NewValidationErrorWithMap(problems)
	}
	return nil
}

// WeightSumDrift reports the weight total when it is not within tolerance of 1.0.
func (c *Config) WeightSumDrift() (float64, bool) {
	sum := c.Weights.Sum()
	return sum, math.Abs(sum-1) > weightSumTolerance
}

// IsTrusted reports whether login is on the trusted list (case-insensitive).
func (c *Config) IsTrusted(login string) bool {
	for _, u := range c.TrustedUsers {
		if strings.EqualFold(u, login) {
			return true
		}
	}
	return false
}

// Since returns the start of the analysis window ending at now.
func (c *Config) Since(now time.Time) time.Time {
	return now.AddDate(0, -c.AnalysisWindowMonths, 0)
}

func ascending(xs []int) bool {
	for i, v := range xs {
		if v <= 0 || (i > 0 && v <= xs[i-1]) {
			return false
		}
	}
	return true
}
