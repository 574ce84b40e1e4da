package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/types"
)

func TestExtractPRHistory(t *testing.T) {
	cfg := config.Default()
	r := repo("acme/widget", 10)
	s := types.RawContributorSnapshot{
		PullRequests: []types.PullRequest{
			mergedPR(1, daysAgo(40), 120, r),
			mergedPR(2, daysAgo(10), 4, r),
			closedPR(3, daysAgo(20), 2, r),
			openPR(4, daysAgo(1), 30, r),
		},
	}

	h := ExtractPRHistory(s, cfg)
	assert.Equal(t, 4, h.Total)
	assert.Equal(t, 2, h.Merged)
	assert.Equal(t, 1, h.ClosedWithoutMerge)
	assert.Equal(t, 1, h.Open)
	assert.InDelta(t, 2.0/3.0, h.MergeRate, 1e-9)
	assert.Equal(t, 2, h.ShortPRs)
	assert.Equal(t, 0.5, h.ShortPRRatio)
	assert.Equal(t, 39.0, h.AverageSize)
	assert.Equal(t, 17.0, h.MedianSize)

	require.Len(t, h.MergeDates, 2)
	assert.True(t, h.MergeDates[0].Before(h.MergeDates[1]), "merge dates are sorted")
}

func TestExtractPRHistory_OnlyOpenHasZeroMergeRate(t *testing.T) {
	s := types.RawContributorSnapshot{
		PullRequests: []types.PullRequest{openPR(1, daysAgo(3), 50, nil)},
	}
	h := ExtractPRHistory(s, config.Default())
	assert.Equal(t, 0.0, h.MergeRate)
	assert.Empty(t, h.MergeDates)
}

func TestExtractRepoQuality(t *testing.T) {
	cfg := config.Default()
	s := types.RawContributorSnapshot{
		PullRequests: []types.PullRequest{
			mergedPR(1, daysAgo(30), 50, repo("golang/go", 120000)),
			mergedPR(2, daysAgo(20), 50, repo("golang/go", 120500)),
			mergedPR(3, daysAgo(20), 50, repo("me/dotfiles", 3)),
			// star counts move over time; the highest seen wins
			mergedPR(4, daysAgo(60), 50, repo("acme/rising", 90)),
			mergedPR(5, daysAgo(10), 50, repo("acme/rising", 101)),
			// deleted or private repositories are skipped
			mergedPR(6, daysAgo(10), 50, nil),
			// unmerged work does not count
			closedPR(7, daysAgo(10), 50, repo("kubernetes/kubernetes", 100000)),
		},
	}

	q := ExtractRepoQuality(s, cfg)
	assert.Equal(t, 2, q.QualityRepos)
	assert.Equal(t, 5, q.MergedContributions)
	assert.Equal(t, map[string]int{
		"golang/go":   120500,
		"me/dotfiles": 3,
		"acme/rising": 101,
	}, q.Repos)
}

func TestExtractReactions(t *testing.T) {
	s := types.RawContributorSnapshot{
		Comments: []types.Comment{
			commentWith(daysAgo(5), map[types.ReactionContent]int{
				types.ReactionThumbsUp: 3,
				types.ReactionHeart:    1,
				types.ReactionLaugh:    2,
			}),
			commentWith(daysAgo(4), map[types.ReactionContent]int{
				types.ReactionThumbsDown: 1,
				types.ReactionConfused:   1,
				types.ReactionRocket:     1,
				types.ReactionHooray:     1,
				types.ReactionEyes:       1,
			}),
		},
	}

	r := ExtractReactions(s, config.Default())
	assert.Equal(t, 6, r.Positive)
	assert.Equal(t, 2, r.Negative)
	assert.Equal(t, 3, r.Neutral)
	assert.Equal(t, 11, r.Total)
	assert.InDelta(t, 6.0/11.0, r.PositiveRatio, 1e-9)
	assert.InDelta(t, 2.0/11.0, r.NegativeRatio, 1e-9)
}

func TestExtractReactions_NoneDefaultsToHalf(t *testing.T) {
	r := ExtractReactions(types.RawContributorSnapshot{}, config.Default())
	assert.Equal(t, 0, r.Total)
	assert.Equal(t, 0.5, r.PositiveRatio)
	assert.Equal(t, 0.0, r.NegativeRatio)
}

func TestExtractAccountActivity(t *testing.T) {
	tests := []struct {
		name              string
		windowMonths      int
		ageDays           int
		calendar          []types.ContributionDay
		expectedEffective int
		expectedActive    int
		expectedRatio     float64
	}{
		{
			name:              "established account uses full window",
			windowMonths:      12,
			ageDays:           800,
			calendar:          activeMonths(10),
			expectedEffective: 12,
			expectedActive:    10,
			expectedRatio:     10.0 / 12.0,
		},
		{
			name:              "window longer than a year is capped at 12",
			windowMonths:      24,
			ageDays:           800,
			calendar:          activeMonths(6),
			expectedEffective: 12,
			expectedActive:    6,
			expectedRatio:     0.5,
		},
		{
			name:              "young account is measured against its own age",
			windowMonths:      12,
			ageDays:           95,
			calendar:          activeMonths(3),
			expectedEffective: 3,
			expectedActive:    3,
			expectedRatio:     1,
		},
		{
			name:              "brand new account has nothing to evaluate",
			windowMonths:      12,
			ageDays:           10,
			calendar:          activeMonths(1),
			expectedEffective: 0,
			expectedActive:    1,
			expectedRatio:     0,
		},
		{
			name:              "days without contributions do not count",
			windowMonths:      12,
			ageDays:           800,
			calendar:          []types.ContributionDay{{Date: daysAgo(3), Count: 0}},
			expectedEffective: 12,
			expectedActive:    0,
			expectedRatio:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.AnalysisWindowMonths = tt.windowMonths
			s := types.RawContributorSnapshot{
				CreatedAt:            daysAgo(tt.ageDays),
				ContributionCalendar: tt.calendar,
			}

			a := ExtractAccountActivity(s, cfg, testNow)
			assert.Equal(t, tt.ageDays, a.AgeDays)
			assert.Equal(t, tt.expectedEffective, a.EffectiveMonths)
			assert.Equal(t, tt.expectedActive, a.ActiveMonths)
			assert.InDelta(t, tt.expectedRatio, a.ConsistencyRatio, 1e-9)
		})
	}
}

func TestExtractAccountActivity_AgeIsFloored(t *testing.T) {
	s := types.RawContributorSnapshot{CreatedAt: testNow.Add(-(47*time.Hour + 59*time.Minute))}
	a := ExtractAccountActivity(s, config.Default(), testNow)
	assert.Equal(t, 1, a.AgeDays)
}

func TestExtractIssueEngagement(t *testing.T) {
	s := types.RawContributorSnapshot{
		Issues: []types.Issue{
			{CreatedAt: daysAgo(10), CommentCount: 2},
			{CreatedAt: daysAgo(9), CommentCount: 1, ReactionCount: 4},
			{CreatedAt: daysAgo(8), ReactionCount: 1},
			{CreatedAt: daysAgo(7), ReactionCount: 1},
			{CreatedAt: daysAgo(6)},
		},
	}

	e := ExtractIssueEngagement(s, config.Default())
	assert.Equal(t, 5, e.Total)
	assert.Equal(t, 2, e.WithComments)
	assert.Equal(t, 3, e.WithReactions)
	// max of the two, not the union
	assert.Equal(t, 3, e.Engaged)
	assert.InDelta(t, 0.6, e.Rate, 1e-9)
}

func TestExtractCodeReviews(t *testing.T) {
	assert.Equal(t, 15, ExtractCodeReviews(types.RawContributorSnapshot{ReviewContributions: 15}, nil).Given)
	assert.Equal(t, 0, ExtractCodeReviews(types.RawContributorSnapshot{ReviewContributions: -2}, nil).Given)
}
