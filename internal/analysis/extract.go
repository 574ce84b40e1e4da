package analysis

import (
	"sort"
	"time"

	"github.com/jdiegosierra/contributor-quality/internal/config"
	"github.com/jdiegosierra/contributor-quality/internal/types"
)

var (
	positiveReactions = map[types.ReactionContent]bool{
		types.ReactionThumbsUp: true,
		types.ReactionHeart:    true,
		types.ReactionHooray:   true,
		types.ReactionRocket:   true,
	}
	negativeReactions = map[types.ReactionContent]bool{
		types.ReactionThumbsDown: true,
		types.ReactionConfused:   true,
	}
)

// ExtractPRHistory counts pull request outcomes and sizes
func ExtractPRHistory(s types.RawContributorSnapshot, cfg *config.Config) PRHistory {
	h := PRHistory{Total: len(s.PullRequests)}
	sizes := make([]float64, 0, len(s.PullRequests))

	for _, pr := range s.PullRequests {
		switch {
		case pr.Merged || pr.State == types.PRStateMerged:
			h.Merged++
			if pr.MergedAt != nil {
				h.MergeDates = append(h.MergeDates, *pr.MergedAt)
			}
		case pr.State == types.PRStateClosed:
			h.ClosedWithoutMerge++
		default:
			h.Open++
		}

		if pr.Size() < cfg.Thresholds.ShortPRLines {
			h.ShortPRs++
		}
		sizes = append(sizes, float64(pr.Size()))
	}

	sort.Slice(h.MergeDates, func(i, j int) bool { return h.MergeDates[i].Before(h.MergeDates[j]) })

	h.MergeRate = ratio(h.Merged, h.Merged+h.ClosedWithoutMerge, 0)
	h.ShortPRRatio = ratio(h.ShortPRs, h.Total, 0)
	h.AverageSize = mean(sizes)
	h.MedianSize = median(sizes)
	return h
}

// ExtractRepoQuality groups merged pull requests by repository and counts the
// repositories that meet the star floor
func ExtractRepoQuality(s types.RawContributorSnapshot, cfg *config.Config) RepoQuality {
	q := RepoQuality{Repos: map[string]int{}}

	for _, pr := range s.PullRequests {
		if !(pr.Merged || pr.State == types.PRStateMerged) || pr.Repository == nil {
			continue
		}
		q.MergedContributions++
		name := pr.Repository.NameWithOwner
		if stars, ok := q.Repos[name]; !ok || pr.Repository.StargazerCount > stars {
			q.Repos[name] = pr.Repository.StargazerCount
		}
	}

	for _, stars := range q.Repos {
		if stars >= cfg.MinimumStarsForQuality {
			q.QualityRepos++
		}
	}
	return q
}

// ExtractReactions classifies every reaction on the contributor's comments
func ExtractReactions(s types.RawContributorSnapshot, _ *config.Config) Reactions {
	var r Reactions
	for _, c := range s.Comments {
		for content, n := range c.Reactions {
			if n <= 0 {
				continue
			}
			switch {
			case positiveReactions[content]:
				r.Positive += n
			case negativeReactions[content]:
				r.Negative += n
			default:
				r.Neutral += n
			}
		}
	}

	r.Total = r.Positive + r.Negative + r.Neutral
	r.PositiveRatio = ratio(r.Positive, r.Total, 0.5)
	r.NegativeRatio = ratio(r.Negative, r.Total, 0)
	return r
}

// ExtractAccountActivity measures account age and how many months of the
// window show activity. The denominator never exceeds the account's own age
// so young accounts are not penalized for months they did not exist.
func ExtractAccountActivity(s types.RawContributorSnapshot, cfg *config.Config, now time.Time) AccountActivity {
	a := AccountActivity{}
	if !s.CreatedAt.IsZero() && now.After(s.CreatedAt) {
		a.AgeDays = int(now.Sub(s.CreatedAt).Hours() / 24)
	}

	months := map[string]bool{}
	for _, d := range s.ContributionCalendar {
		if d.Count > 0 {
			months[d.Date.Format("2006-01")] = true
		}
	}
	a.ActiveMonths = len(months)

	a.EffectiveMonths = clipInt(cfg.AnalysisWindowMonths, 0, 12)
	if ageMonths := a.AgeDays / 30; ageMonths < a.EffectiveMonths {
		a.EffectiveMonths = ageMonths
	}
	if a.EffectiveMonths > 0 {
		a.ConsistencyRatio = clip(ratio(a.ActiveMonths, a.EffectiveMonths, 0), 0, 1)
	}
	return a
}

// ExtractIssueEngagement measures how many of the contributor's issues drew
// comments or reactions
func ExtractIssueEngagement(s types.RawContributorSnapshot, _ *config.Config) IssueEngagement {
	e := IssueEngagement{Total: len(s.Issues)}
	for _, is := range s.Issues {
		if is.CommentCount > 0 {
			e.WithComments++
		}
		if is.ReactionCount > 0 {
			e.WithReactions++
		}
	}

	e.Engaged = e.WithComments
	if e.WithReactions > e.Engaged {
		e.Engaged = e.WithReactions
	}
	e.Rate = ratio(e.Engaged, e.Total, 0)
	return e
}

// ExtractCodeReviews returns the number of reviews given to others
func ExtractCodeReviews(s types.RawContributorSnapshot, _ *config.Config) CodeReviews {
	given := s.ReviewContributions
	if given < 0 {
		given = 0
	}
	return CodeReviews{Given: given}
}
