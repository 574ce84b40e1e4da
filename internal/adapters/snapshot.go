package adapters

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/errors"
	"github.com/jdiegosierra/contributor-quality/internal/types"
)

// contributorQuery fetches everything the analyzer needs in one round trip.
// The contribution collection spans at most one year.
const contributorQuery = `
query($login: String!, $from: DateTime!, $to: DateTime!, $prs: Int!, $comments: Int!, $issues: Int!) {
  rateLimit { limit remaining used resetAt }
  user(login: $login) {
    login
    createdAt
    pullRequests(first: $prs, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        number
        title
        state
        merged
        createdAt
        mergedAt
        closedAt
        additions
        deletions
        repository { nameWithOwner stargazerCount }
      }
    }
    contributionsCollection(from: $from, to: $to) {
      totalPullRequestReviewContributions
      contributionCalendar {
        weeks { contributionDays { date contributionCount } }
      }
    }
    issueComments(last: $comments) {
      nodes {
        createdAt
        reactionGroups { content reactors { totalCount } }
      }
    }
    issues(first: $issues, orderBy: {field: CREATED_AT, direction: DESC}) {
      nodes {
        createdAt
        comments { totalCount }
        reactions { totalCount }
      }
    }
  }
}`

type contributorData struct {
	User *userNode `json:"user"`
}

type userNode struct {
	Login        string    `json:"login"`
	CreatedAt    time.Time `json:"createdAt"`
	PullRequests struct {
		Nodes []pullRequestNode `json:"nodes"`
	} `json:"pullRequests"`
	ContributionsCollection struct {
		TotalPullRequestReviewContributions int `json:"totalPullRequestReviewContributions"`
		ContributionCalendar                struct {
			Weeks []struct {
				ContributionDays []struct {
					Date              string `json:"date"`
					ContributionCount int    `json:"contributionCount"`
				} `json:"contributionDays"`
			} `json:"weeks"`
		} `json:"contributionCalendar"`
	} `json:"contributionsCollection"`
	IssueComments struct {
		Nodes []struct {
			CreatedAt      time.Time `json:"createdAt"`
			ReactionGroups []struct {
				Content  string `json:"content"`
				Reactors struct {
					TotalCount int `json:"totalCount"`
				} `json:"reactors"`
			} `json:"reactionGroups"`
		} `json:"nodes"`
	} `json:"issueComments"`
	Issues struct {
		Nodes []struct {
			CreatedAt time.Time `json:"createdAt"`
			Comments  struct {
				TotalCount int `json:"totalCount"`
			} `json:"comments"`
			Reactions struct {
				TotalCount int `json:"totalCount"`
			} `json:"reactions"`
		} `json:"nodes"`
	} `json:"issues"`
}

type pullRequestNode struct {
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	State      string     `json:"state"`
	Merged     bool       `json:"merged"`
	CreatedAt  time.Time  `json:"createdAt"`
	MergedAt   *time.Time `json:"mergedAt"`
	ClosedAt   *time.Time `json:"closedAt"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	Repository *struct {
		NameWithOwner  string `json:"nameWithOwner"`
		StargazerCount int    `json:"stargazerCount"`
	} `json:"repository"`
}

// FetchSnapshot fetches the raw activity of login. The contribution calendar
// starts at since, clamped to one year before now.
func (c *GitHubClient) FetchSnapshot(ctx context.Context, login string, since, now time.Time) (*types.RawContributorSnapshot, error) {
	if login == "" {
		return nil, errors.NewValidationError("login must not be empty")
	}

	from := since
	if yearAgo := now.AddDate(-1, 0, 0); from.Before(yearAgo) {
		from = yearAgo
	}

	vars := map[string]any{
		"login":    login,
		"from":     from.UTC().Format(time.RFC3339),
		"to":       now.UTC().Format(time.RFC3339),
		"prs":      c.pageSize,
		"comments": c.pageSize,
		"issues":   c.pageSize,
	}

	var data contributorData
	if err := c.Query(ctx, contributorQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.User == nil {
		return nil, errors.NewFatalError(fmt.Sprintf("user %q not found", login), nil).
			WithHTTPStatus(http.StatusNotFound)
	}

	snapshot := toSnapshot(data.User)
	snapshot.Since = since
	snapshot.FetchedAt = now
	return snapshot, nil
}

func toSnapshot(u *userNode) *types.RawContributorSnapshot {
	s := &types.RawContributorSnapshot{
		Login:               u.Login,
		CreatedAt:           u.CreatedAt,
		ReviewContributions: u.ContributionsCollection.TotalPullRequestReviewContributions,
	}

	for _, n := range u.PullRequests.Nodes {
		pr := types.PullRequest{
			Number:    n.Number,
			Title:     n.Title,
			State:     types.PRState(n.State),
			Merged:    n.Merged,
			CreatedAt: n.CreatedAt,
			MergedAt:  n.MergedAt,
			ClosedAt:  n.ClosedAt,
			Additions: n.Additions,
			Deletions: n.Deletions,
		}
		if n.Repository != nil {
			pr.Repository = &types.Repository{
				NameWithOwner:  n.Repository.NameWithOwner,
				StargazerCount: n.Repository.StargazerCount,
			}
		}
		s.PullRequests = append(s.PullRequests, pr)
	}

	for _, w := range u.ContributionsCollection.ContributionCalendar.Weeks {
		for _, d := range w.ContributionDays {
			date, err := time.Parse("2006-01-02", d.Date)
			if err != nil {
				continue
			}
			s.ContributionCalendar = append(s.ContributionCalendar, types.ContributionDay{
				Date:  date,
				Count: d.ContributionCount,
			})
		}
	}
	sort.Slice(s.ContributionCalendar, func(i, j int) bool {
		return s.ContributionCalendar[i].Date.Before(s.ContributionCalendar[j].Date)
	})

	for _, n := range u.IssueComments.Nodes {
		reactions := make(map[types.ReactionContent]int, len(n.ReactionGroups))
		for _, g := range n.ReactionGroups {
			if g.Reactors.TotalCount > 0 {
				reactions[types.ReactionContent(g.Content)] += g.Reactors.TotalCount
			}
		}
		s.Comments = append(s.Comments, types.Comment{CreatedAt: n.CreatedAt, Reactions: reactions})
	}

	for _, n := range u.Issues.Nodes {
		s.Issues = append(s.Issues, types.Issue{
			CreatedAt:     n.CreatedAt,
			CommentCount:  n.Comments.TotalCount,
			ReactionCount: n.Reactions.TotalCount,
		})
	}

	return s
}
