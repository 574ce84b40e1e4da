package analysis

import (
	"sort"
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/types"
)

// Preprocessor restricts a snapshot to the analysis window and cleans it
type Preprocessor struct {
	since time.Time
	until time.Time
}

// NewPreprocessor creates a preprocessor for the window [since, until]
func NewPreprocessor(since, until time.Time) *Preprocessor {
	return &Preprocessor{since: since, until: until}
}

// Process returns a filtered copy of s. Records outside the window are
// dropped, records are sorted chronologically and duplicate pull requests
// are collapsed. s is never modified.
func (p *Preprocessor) Process(s types.RawContributorSnapshot) types.RawContributorSnapshot {
	out := s

	out.PullRequests = p.removeDuplicates(p.pullRequests(s.PullRequests))
	out.Comments = p.comments(s.Comments)
	out.Issues = p.issues(s.Issues)
	out.ContributionCalendar = p.calendar(s.ContributionCalendar)

	return out
}

func (p *Preprocessor) inWindow(t time.Time) bool {
	return !t.Before(p.since) && !t.After(p.until)
}

func (p *Preprocessor) pullRequests(prs []types.PullRequest) []types.PullRequest {
	cleaned := make([]types.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if !p.inWindow(pr.CreatedAt) {
			continue
		}
		if pr.Repository != nil {
			repo := *pr.Repository
			pr.Repository = &repo
		}
		cleaned = append(cleaned, pr)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].CreatedAt.Before(cleaned[j].CreatedAt)
	})
	return cleaned
}

// removeDuplicates collapses pull requests reported twice, e.g. across pages
func (p *Preprocessor) removeDuplicates(prs []types.PullRequest) []types.PullRequest {
	type key struct {
		repo   string
		number int
	}

	seen := make(map[key]bool, len(prs))
	cleaned := prs[:0]
	for _, pr := range prs {
		// without a repository there is nothing to key on
		if pr.Repository == nil {
			cleaned = append(cleaned, pr)
			continue
		}
		k := key{repo: pr.Repository.NameWithOwner, number: pr.Number}
		if seen[k] {
			continue
		}
		seen[k] = true
		cleaned = append(cleaned, pr)
	}
	return cleaned
}

func (p *Preprocessor) comments(comments []types.Comment) []types.Comment {
	cleaned := make([]types.Comment, 0, len(comments))
	for _, c := range comments {
		if !p.inWindow(c.CreatedAt) {
			continue
		}
		reactions := make(map[types.ReactionContent]int, len(c.Reactions))
		for k, v := range c.Reactions {
			reactions[k] = v
		}
		c.Reactions = reactions
		cleaned = append(cleaned, c)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].CreatedAt.Before(cleaned[j].CreatedAt)
	})
	return cleaned
}

func (p *Preprocessor) issues(issues []types.Issue) []types.Issue {
	cleaned := make([]types.Issue, 0, len(issues))
	for _, is := range issues {
		if p.inWindow(is.CreatedAt) {
			cleaned = append(cleaned, is)
		}
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].CreatedAt.Before(cleaned[j].CreatedAt)
	})
	return cleaned
}

func (p *Preprocessor) calendar(days []types.ContributionDay) []types.ContributionDay {
	// calendar cells are dates; compare against the day the window opens
	since := time.Date(p.since.Year(), p.since.Month(), p.since.Day(), 0, 0, 0, 0, p.since.Location())

	cleaned := make([]types.ContributionDay, 0, len(days))
	for _, d := range days {
		if d.Date.Before(since) || d.Date.After(p.until) {
			continue
		}
		cleaned = append(cleaned, d)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].Date.Before(cleaned[j].Date)
	})
	return cleaned
}
