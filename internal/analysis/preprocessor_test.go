package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdiegosierra/contributor-quality/internal/types"
)

func TestPreprocessor_FiltersToWindow(t *testing.T) {
	since := testNow.AddDate(0, -12, 0)
	r := repo("acme/widget", 500)

	s := types.RawContributorSnapshot{
		Login:     "octocat",
		CreatedAt: daysAgo(2000),
		PullRequests: []types.PullRequest{
			mergedPR(1, daysAgo(400), 20, r), // before the window
			mergedPR(2, daysAgo(100), 20, r),
			mergedPR(3, since, 20, r), // boundary is inclusive
			mergedPR(4, testNow.Add(time.Hour), 20, r),
		},
		Comments: []types.Comment{
			commentWith(daysAgo(500), map[types.ReactionContent]int{types.ReactionHeart: 5}),
			commentWith(daysAgo(5), map[types.ReactionContent]int{types.ReactionHeart: 1}),
		},
		Issues: []types.Issue{
			{CreatedAt: daysAgo(367), CommentCount: 1},
			{CreatedAt: daysAgo(30), CommentCount: 1},
		},
		ContributionCalendar: []types.ContributionDay{
			{Date: daysAgo(380), Count: 1},
			{Date: daysAgo(3), Count: 1},
		},
	}

	out := NewPreprocessor(since, testNow).Process(s)

	require.Len(t, out.PullRequests, 2)
	assert.Equal(t, 3, out.PullRequests[0].Number, "sorted oldest first")
	assert.Equal(t, 2, out.PullRequests[1].Number)
	assert.Len(t, out.Comments, 1)
	assert.Len(t, out.Issues, 1)
	assert.Len(t, out.ContributionCalendar, 1)
	assert.Equal(t, "octocat", out.Login)
}

func TestPreprocessor_RemovesDuplicatePRs(t *testing.T) {
	since := testNow.AddDate(0, -12, 0)
	s := types.RawContributorSnapshot{
		PullRequests: []types.PullRequest{
			mergedPR(7, daysAgo(10), 20, repo("acme/widget", 5)),
			mergedPR(7, daysAgo(10), 20, repo("acme/widget", 5)),
			// same number in another repository is a different PR
			mergedPR(7, daysAgo(9), 20, repo("acme/gadget", 5)),
			// unresolvable repositories are kept as-is
			closedPR(8, daysAgo(8), 20, nil),
			closedPR(8, daysAgo(8), 20, nil),
		},
	}

	out := NewPreprocessor(since, testNow).Process(s)
	assert.Len(t, out.PullRequests, 4)
}

func TestPreprocessor_DoesNotMutateInput(t *testing.T) {
	since := testNow.AddDate(0, -1, 0)
	r := repo("acme/widget", 5)
	s := types.RawContributorSnapshot{
		PullRequests: []types.PullRequest{
			mergedPR(2, daysAgo(3), 20, r),
			mergedPR(1, daysAgo(90), 20, r),
			mergedPR(3, daysAgo(5), 20, r),
		},
		Comments: []types.Comment{
			commentWith(daysAgo(2), map[types.ReactionContent]int{types.ReactionRocket: 1}),
		},
	}

	out := NewPreprocessor(since, testNow).Process(s)

	require.Len(t, s.PullRequests, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{s.PullRequests[0].Number, s.PullRequests[1].Number, s.PullRequests[2].Number})

	// the copy owns its nested values
	out.PullRequests[0].Repository.StargazerCount = 999
	out.Comments[0].Reactions[types.ReactionRocket] = 42
	assert.Equal(t, 5, r.StargazerCount)
	assert.Equal(t, 1, s.Comments[0].Reactions[types.ReactionRocket])
}
