package merge

import (
	"context"
	"fmt"
	"strings"

	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/submit"
)

// ExecutionResult reports how far a merge run got. A failed step records the
// bookmark, its message and whether the plan had already flagged that step
// as uncertain.
type ExecutionResult struct {
	MergedBookmarks []string
	FailedBookmark  string
	ErrorMessage    string
	WasUncertain    bool
}

// IsSuccess reports whether no step failed.
func (r *ExecutionResult) IsSuccess() bool { return r.FailedBookmark == "" }

// HasMerges reports whether at least one PR merged.
func (r *ExecutionResult) HasMerges() bool { return len(r.MergedBookmarks) > 0 }

// BottomMerged reports whether the bottom of the stack landed on trunk,
// meaning the remaining stack needs a rebase. Steps run trunk to leaf, so
// any merge implies the bottom one.
func (r *ExecutionResult) BottomMerged() bool { return len(r.MergedBookmarks) > 0 }

// Execute performs the plan's steps in order, stopping at the first failure
// or skip. Step failures land in the result rather than an error so callers
// can report partial progress; merges that already happened stay merged.
func Execute(ctx context.Context, plan *Plan, svc platform.Service, progress submit.Progress) *ExecutionResult {
	if progress == nil {
		progress = submit.NoopProgress{}
	}
	result := &ExecutionResult{}

	for _, step := range plan.Steps {
		switch step.Kind {
		case StepMerge:
			progress.Update(fmt.Sprintf("Merging PR #%d: %s", step.PrNumber, step.PrTitle))
			res, err := svc.MergePR(ctx, step.PrNumber, step.Method)
			if err != nil {
				result.FailedBookmark = step.Bookmark
				result.ErrorMessage = err.Error()
				result.WasUncertain = step.Confidence.Uncertain
				return result
			}
			if !res.Merged {
				result.FailedBookmark = step.Bookmark
				result.ErrorMessage = res.Message
				result.WasUncertain = step.Confidence.Uncertain
				return result
			}
			sha := res.SHA
			if sha == "" {
				sha = "(no sha)"
			}
			progress.Success("Merged: " + sha)
			result.MergedBookmarks = append(result.MergedBookmarks, step.Bookmark)

		case StepRetargetBase:
			progress.Update(fmt.Sprintf("Retargeting PR #%d: %s → %s", step.PrNumber, step.OldBase, step.NewBase))
			if _, err := svc.UpdatePRBase(ctx, step.PrNumber, step.NewBase); err != nil {
				result.FailedBookmark = step.Bookmark
				result.ErrorMessage = "Retarget failed: " + err.Error()
				return result
			}

		case StepSkip:
			progress.Update(fmt.Sprintf("Skipping PR #%d (%s): %s",
				step.PrNumber, step.Bookmark, strings.Join(step.Reasons, ", ")))
			// Merging out of order is never safe; stop here.
			return result
		}
	}
	return result
}
