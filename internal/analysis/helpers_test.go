package analysis

import (
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/types"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.AddDate(0, 0, -n)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func repo(name string, stars int) *types.Repository {
	return &types.Repository{NameWithOwner: name, StargazerCount: stars}
}

func mergedPR(number int, created time.Time, size int, r *types.Repository) types.PullRequest {
	merged := created.Add(24 * time.Hour)
	return types.PullRequest{
		Number:     number,
		State:      types.PRStateMerged,
		Merged:     true,
		CreatedAt:  created,
		MergedAt:   timePtr(merged),
		ClosedAt:   timePtr(merged),
		Additions:  size,
		Repository: r,
	}
}

func closedPR(number int, created time.Time, size int, r *types.Repository) types.PullRequest {
	closed := created.Add(24 * time.Hour)
	return types.PullRequest{
		Number:     number,
		State:      types.PRStateClosed,
		CreatedAt:  created,
		ClosedAt:   timePtr(closed),
		Additions:  size,
		Repository: r,
	}
}

func openPR(number int, created time.Time, size int, r *types.Repository) types.PullRequest {
	return types.PullRequest{
		Number:     number,
		State:      types.PRStateOpen,
		CreatedAt:  created,
		Additions:  size,
		Repository: r,
	}
}

// activeMonths returns one active calendar day in each of the last n months
func activeMonths(n int) []types.ContributionDay {
	days := make([]types.ContributionDay, 0, n)
	for i := 0; i < n; i++ {
		d := testNow.AddDate(0, -i, 0)
		days = append(days, types.ContributionDay{
			Date:  time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC),
			Count: 3,
		})
	}
	return days
}

func commentWith(created time.Time, reactions map[types.ReactionContent]int) types.Comment {
	return types.Comment{CreatedAt: created, Reactions: reactions}
}
