package submit

import (
	"context"
	"fmt"
	"strings"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/store"
)

// Progress receives human-facing status updates during execution.
type Progress interface {
	Update(message string)
	Success(message string)
}

// NoopProgress discards all updates.
type NoopProgress struct{}

func (NoopProgress) Update(string)  {}
func (NoopProgress) Success(string) {}

// Workspace is the jj surface the executor needs. *jj.Workspace satisfies it.
type Workspace interface {
	Root() string
	GitPush(ctx context.Context, remote string, bookmarks ...string) error
}

// ExecutionResult reports what a submission run changed.
type ExecutionResult struct {
	PushedBookmarks []string
	CreatedPRs      []model.PullRequest
	UpdatedPRs      []model.PullRequest
}

// Executor runs submission plans. Draft controls whether created PRs start
// as drafts.
type Executor struct {
	ws       Workspace
	svc      platform.Service
	cache    *store.PrCache
	progress Progress

	Draft bool
}

// NewExecutor builds an executor. A nil progress is replaced with NoopProgress.
func NewExecutor(ws Workspace, svc platform.Service, cache *store.PrCache, progress Progress) *Executor {
	if progress == nil {
		progress = NoopProgress{}
	}
	return &Executor{ws: ws, svc: svc, cache: cache, progress: progress}
}

// Execute runs the plan: one push covering every out-of-sync bookmark, then
// PR creations and base updates in stack order. The PR cache is saved after
// every successful mutation, so an aborted run leaves the cache describing
// exactly what happened. On error the partial result is returned alongside
// it.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*ExecutionResult, error) {
	result := &ExecutionResult{}

	var toPush []string
	for _, step := range plan.Steps {
		if step.Kind == StepPush {
			toPush = append(toPush, step.Bookmark.Name)
		}
	}
	if len(toPush) > 0 {
		e.progress.Update(fmt.Sprintf("Pushing %d bookmark(s) to %s...", len(toPush), plan.Remote))
		if err := e.ws.GitPush(ctx, plan.Remote, toPush...); err != nil {
			return result, err
		}
		result.PushedBookmarks = toPush
		e.progress.Success("Pushed " + strings.Join(toPush, ", "))
	}

	// Refresh the cache with the PRs that already exist, so a run with no PR
	// work still rebuilds it.
	prsByBookmark := make(map[string]model.PullRequest, len(plan.ExistingPRs))
	for name, pr := range plan.ExistingPRs {
		prsByBookmark[name] = pr
		e.cachePut(name, pr)
	}
	e.cacheSave()

	for _, step := range plan.Steps {
		switch step.Kind {
		case StepCreate:
			e.progress.Update(fmt.Sprintf("Creating PR for %s...", step.Bookmark.Name))
			pr, err := e.svc.CreatePR(ctx, step.Bookmark.Name, step.BaseBranch, step.Title, step.Body, e.Draft)
			if err != nil {
				return result, err
			}
			result.CreatedPRs = append(result.CreatedPRs, *pr)
			prsByBookmark[step.Bookmark.Name] = *pr
			e.cachePut(step.Bookmark.Name, *pr)
			e.cacheSave()
			e.progress.Success(fmt.Sprintf("Created PR #%d: %s", pr.Number, pr.HTMLURL))

		case StepUpdateBase:
			e.progress.Update(fmt.Sprintf("Retargeting PR #%d to %s...", step.Pr.Number, step.ExpectedBase))
			pr, err := e.svc.UpdatePRBase(ctx, step.Pr.Number, step.ExpectedBase)
			if err != nil {
				return result, err
			}
			result.UpdatedPRs = append(result.UpdatedPRs, *pr)
			prsByBookmark[step.Bookmark.Name] = *pr
			e.cachePut(step.Bookmark.Name, *pr)
			e.cacheSave()
			e.progress.Success(fmt.Sprintf("Retargeted PR #%d to %s", pr.Number, step.ExpectedBase))
		}
	}

	e.updateStackComments(ctx, plan, prsByBookmark)
	return result, nil
}

// updateStackComments upserts the stack overview comment on every PR in the
// stack. Comment failures are logged but never fail the run; the PRs
// themselves are already in the right shape.
func (e *Executor) updateStackComments(ctx context.Context, plan *Plan, prs map[string]model.PullRequest) {
	data := BuildStackCommentData(plan, prs)
	if len(data.Stack) < 2 {
		return
	}
	e.progress.Update("Updating stack comments...")
	for _, item := range data.Stack {
		body := FormatStackComment(data, item.PrNumber)
		if err := UpsertStackComment(ctx, e.svc, item.PrNumber, body); err != nil {
			logs.Warn("stack comment on PR #%d failed: %v", item.PrNumber, err)
		}
	}
}

func (e *Executor) cachePut(bookmark string, pr model.PullRequest) {
	if e.cache != nil {
		e.cache.Put(bookmark, pr)
	}
}

func (e *Executor) cacheSave() {
	if e.cache == nil {
		return
	}
	if err := store.SavePrCache(e.ws.Root(), *e.cache); err != nil {
		logs.Warn("failed to save PR cache: %v", err)
	}
}
