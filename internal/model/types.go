package model

import "time"

// Bookmark is a jj bookmark (a named pointer to a commit).
type Bookmark struct {
	Name      string `yaml:"name"`
	CommitID  string `yaml:"commit_id"`
	ChangeID  string `yaml:"change_id"`
	HasRemote bool   `yaml:"has_remote"`
	IsSynced  bool   `yaml:"is_synced"`
}

// LogEntry is one commit from jj log.
type LogEntry struct {
	CommitID             string
	ChangeID             string
	AuthorName           string
	AuthorEmail          string
	DescriptionFirstLine string
	Description          string // full description, includes the first line
	Parents              []string
	LocalBookmarks       []string
	RemoteBookmarks      []string // "name@remote"
	IsWorkingCopy        bool
	AuthoredAt           time.Time
	CommittedAt          time.Time
}

// BookmarkSegment groups the changes belonging to one or more bookmarks.
// Changes are newest-first, matching jj log order.
type BookmarkSegment struct {
	Bookmarks []Bookmark
	Changes   []LogEntry
}

// Segment is a BookmarkSegment narrowed to a single selected bookmark.
type Segment struct {
	Bookmark Bookmark
	Changes  []LogEntry // newest first
}

// Stack is the chain of segments from trunk (index 0) to leaf.
type Stack struct {
	Segments []BookmarkSegment
}

// ChangeGraph is the linear stack between trunk and the working copy.
// Stack is nil when the working copy sits directly on trunk.
type ChangeGraph struct {
	Bookmarks             map[string]Bookmark
	Stack                 *Stack
	ExcludedBookmarkCount int // bookmarks dropped because they sit on merge commits
}

// PullRequest is the slim PR/MR view used during submission.
type PullRequest struct {
	Number  int    `yaml:"number"`
	HTMLURL string `yaml:"html_url"`
	BaseRef string `yaml:"base_ref"`
	HeadRef string `yaml:"head_ref"`
	Title   string `yaml:"title"`
	NodeID  string `yaml:"node_id,omitempty"` // GraphQL node id (GitHub only)
	IsDraft bool   `yaml:"is_draft"`
}

// PrComment is a comment on a PR/MR.
type PrComment struct {
	ID   int
	Body string
}

// GitRemote is a configured git remote.
type GitRemote struct {
	Name string
	URL  string
}

// PlatformKind identifies the hosting platform.
type PlatformKind string

const (
	PlatformGitHub PlatformKind = "github"
	PlatformGitLab PlatformKind = "gitlab"
)

// PlatformConfig describes where PRs live.
type PlatformConfig struct {
	Kind  PlatformKind
	Owner string
	Repo  string
	Host  string // empty for github.com / gitlab.com
}

// PrState is the lifecycle state of a PR.
type PrState string

const (
	PrStateOpen   PrState = "open"
	PrStateClosed PrState = "closed"
	PrStateMerged PrState = "merged"
)

// PullRequestDetails extends PullRequest with the fields merge planning needs.
// Mergeable is tri-state: nil means the platform has not computed it yet.
type PullRequestDetails struct {
	Number    int
	Title     string
	Body      string
	State     PrState
	IsDraft   bool
	Mergeable *bool
	HeadRef   string
	BaseRef   string
	HTMLURL   string
}

// MergeReadiness captures every condition that gates merging a PR.
type MergeReadiness struct {
	IsApproved bool
	CIPassed   bool
	// IsMergeable mirrors PullRequestDetails.Mergeable:
	// true = no conflicts, false = conflicts, nil = platform still computing.
	IsMergeable *bool
	IsDraft     bool
	// BlockingReasons hold only definitive negatives.
	BlockingReasons []string
	// Uncertainties hold unknown states that are not definitive blockers.
	Uncertainties []string
}

// IsBlocked reports whether a definitive blocker prevents the merge.
// An unknown mergeable status never blocks on its own.
func (r MergeReadiness) IsBlocked() bool {
	return !r.IsApproved || !r.CIPassed || r.IsDraft || (r.IsMergeable != nil && !*r.IsMergeable)
}

// Uncertainty returns the first uncertainty reason, or "" when none.
func (r MergeReadiness) Uncertainty() string {
	if len(r.Uncertainties) == 0 {
		return ""
	}
	return r.Uncertainties[0]
}

// MergeResult is the outcome of one merge API call.
type MergeResult struct {
	Merged  bool
	SHA     string
	Message string
}

// MergeMethod selects the merge strategy.
type MergeMethod string

const (
	MergeMethodSquash MergeMethod = "squash"
	MergeMethodMerge  MergeMethod = "merge"
	MergeMethodRebase MergeMethod = "rebase"
)
