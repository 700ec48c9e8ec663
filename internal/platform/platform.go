// Package platform talks to the PR hosting platform (GitHub or GitLab)
// behind a single Service interface, so submission and merge logic never
// know which one they are driving.
package platform

import (
	"context"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/model"
)

// Service is the platform capability consumed by the gather phase and the
// executors. PR and MR are the same thing here; "PR" throughout.
type Service interface {
	// FindExistingPR returns the open PR whose head is the given branch,
	// or nil when there is none.
	FindExistingPR(ctx context.Context, headBranch string) (*model.PullRequest, error)

	// CreatePR opens a new PR. An empty body means no body.
	CreatePR(ctx context.Context, head, base, title, body string, draft bool) (*model.PullRequest, error)

	// UpdatePRBase retargets the PR's base branch.
	UpdatePRBase(ctx context.Context, number int, newBase string) (*model.PullRequest, error)

	// PublishPR converts a draft PR to ready for review.
	PublishPR(ctx context.Context, number int) (*model.PullRequest, error)

	// ListPRComments returns the PR's comments, oldest first.
	ListPRComments(ctx context.Context, number int) ([]model.PrComment, error)

	// CreatePRComment adds a comment to the PR.
	CreatePRComment(ctx context.Context, number int, body string) error

	// UpdatePRComment rewrites an existing comment.
	UpdatePRComment(ctx context.Context, number, commentID int, body string) error

	// Config reports which repository this service operates on.
	Config() model.PlatformConfig

	// GetPRDetails returns the extended PR state merge planning needs.
	GetPRDetails(ctx context.Context, number int) (*model.PullRequestDetails, error)

	// CheckMergeReadiness evaluates approval, CI, draft and conflict state.
	CheckMergeReadiness(ctx context.Context, number int) (model.MergeReadiness, error)

	// MergePR merges the PR. For squash merges the PR title and body become
	// the commit message.
	MergePR(ctx context.Context, number int, method model.MergeMethod) (model.MergeResult, error)
}

// New builds the Service for a detected platform configuration.
func New(cfg model.PlatformConfig, token string) (Service, error) {
	switch cfg.Kind {
	case model.PlatformGitHub:
		return NewGitHub(cfg, token), nil
	case model.PlatformGitLab:
		return NewGitLab(cfg, token), nil
	default:
		return nil, errors.Errorf("unsupported platform %q", cfg.Kind)
	}
}
