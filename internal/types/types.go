package types

import "time"

// PRState mirrors the platform's pull request state enum
type PRState string

const (
	PRStateOpen   PRState = "OPEN"
	PRStateClosed PRState = "CLOSED"
	PRStateMerged PRState = "MERGED"
)

// ReactionContent is the platform's reaction emoji identifier
type ReactionContent string

const (
	ReactionThumbsUp   ReactionContent = "THUMBS_UP"
	ReactionThumbsDown ReactionContent = "THUMBS_DOWN"
	ReactionLaugh      ReactionContent = "LAUGH"
	ReactionHooray     ReactionContent = "HOORAY"
	ReactionConfused   ReactionContent = "CONFUSED"
	ReactionHeart      ReactionContent = "HEART"
	ReactionRocket     ReactionContent = "ROCKET"
	ReactionEyes       ReactionContent = "EYES"
)

// Repository identifies the target repository of a pull request
type Repository struct {
	NameWithOwner  string `json:"name_with_owner"`
	StargazerCount int    `json:"stargazer_count"`
}

// PullRequest is one pull request authored by the contributor
type PullRequest struct {
	Number     int         `json:"number"`
	Title      string      `json:"title"`
	State      PRState     `json:"state"`
	Merged     bool        `json:"merged"`
	CreatedAt  time.Time   `json:"created_at"`
	MergedAt   *time.Time  `json:"merged_at,omitempty"`
	ClosedAt   *time.Time  `json:"closed_at,omitempty"`
	Additions  int         `json:"additions"`
	Deletions  int         `json:"deletions"`
	Repository *Repository `json:"repository,omitempty"` // nil when deleted or private
}

// Size returns the total number of changed lines
func (p PullRequest) Size() int {
	return p.Additions + p.Deletions
}

// ContributionDay is one cell of the contribution calendar
type ContributionDay struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// Comment is an issue or pull request comment written by the contributor
type Comment struct {
	CreatedAt time.Time               `json:"created_at"`
	Reactions map[ReactionContent]int `json:"reactions"`
}

// Issue is an issue opened by the contributor
type Issue struct {
	CreatedAt     time.Time `json:"created_at"`
	CommentCount  int       `json:"comment_count"`
	ReactionCount int       `json:"reaction_count"`
}

// RawContributorSnapshot holds everything fetched about one user in a single pass
type RawContributorSnapshot struct {
	Login                string            `json:"login"`
	CreatedAt            time.Time         `json:"created_at"`
	PullRequests         []PullRequest     `json:"pull_requests"`
	ContributionCalendar []ContributionDay `json:"contribution_calendar"`
	ReviewContributions  int               `json:"review_contributions"`
	Comments             []Comment         `json:"comments"`
	Issues               []Issue           `json:"issues"`
	Since                time.Time         `json:"since"`
	FetchedAt            time.Time         `json:"fetched_at"`
}
