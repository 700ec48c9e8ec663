package submit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
)

// gatherConcurrency bounds parallel PR lookups during the gather phase.
const gatherConcurrency = 4

// StepKind identifies a submission step.
type StepKind string

const (
	// StepPush pushes the bookmark to the remote.
	StepPush StepKind = "push"
	// StepCreate opens a new PR for the bookmark.
	StepCreate StepKind = "create-pr"
	// StepUpdateBase retargets an existing PR whose base drifted from the
	// stack's shape.
	StepUpdateBase StepKind = "update-base"
)

// Step is one planned submission action.
type Step struct {
	Kind     StepKind
	Bookmark model.Bookmark

	// Create fields.
	BaseBranch string
	Title      string
	Body       string

	// Update fields.
	Pr           model.PullRequest
	CurrentBase  string
	ExpectedBase string
}

func (s Step) String() string {
	switch s.Kind {
	case StepPush:
		return fmt.Sprintf("push %s", s.Bookmark.Name)
	case StepCreate:
		return fmt.Sprintf("create PR for %s (base: %s)", s.Bookmark.Name, s.BaseBranch)
	case StepUpdateBase:
		return fmt.Sprintf("update PR #%d base: %s → %s", s.Pr.Number, s.CurrentBase, s.ExpectedBase)
	default:
		return string(s.Kind)
	}
}

// Plan is the ordered list of submission steps plus the remote-state snapshot
// it was computed from.
type Plan struct {
	Segments      []model.Segment
	Steps         []Step
	ExistingPRs   map[string]model.PullRequest
	Remote        string
	DefaultBranch string
}

// CountPushes returns the number of push steps.
func (p *Plan) CountPushes() int { return p.countKind(StepPush) }

// CountCreates returns the number of create-PR steps.
func (p *Plan) CountCreates() int { return p.countKind(StepCreate) }

// CountUpdates returns the number of base-update steps.
func (p *Plan) CountUpdates() int { return p.countKind(StepUpdateBase) }

func (p *Plan) countKind(kind StepKind) int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// GatherExistingPRs looks up the open PR for every analyzed bookmark. The
// lookups run in parallel with bounded concurrency; the first failure wins.
func GatherExistingPRs(ctx context.Context, analysis *Analysis, svc platform.Service) (map[string]model.PullRequest, error) {
	var mu sync.Mutex
	existing := make(map[string]model.PullRequest)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherConcurrency)
	for _, seg := range analysis.Segments {
		name := seg.Bookmark.Name
		g.Go(func() error {
			pr, err := svc.FindExistingPR(ctx, name)
			if err != nil {
				return err
			}
			if pr != nil {
				mu.Lock()
				existing[name] = *pr
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return existing, nil
}

// BuildPlan computes the submission steps from the analysis and a snapshot of
// existing PRs. It performs no I/O.
//
// Per segment, trunk to leaf: a push step when the bookmark is missing from
// the remote or out of sync with it, then either a create step (no PR yet,
// title and body derived from the segment's changes) or a base update when
// the existing PR's base no longer matches the stack.
func BuildPlan(analysis *Analysis, existing map[string]model.PullRequest, remote, defaultBranch string) *Plan {
	plan := &Plan{
		Segments:      analysis.Segments,
		ExistingPRs:   existing,
		Remote:        remote,
		DefaultBranch: defaultBranch,
	}

	for i, seg := range analysis.Segments {
		base := analysis.BaseBranch(i, defaultBranch)
		b := seg.Bookmark

		if !b.HasRemote || !b.IsSynced {
			plan.Steps = append(plan.Steps, Step{Kind: StepPush, Bookmark: b})
		}

		if pr, ok := existing[b.Name]; ok {
			if pr.BaseRef != base {
				plan.Steps = append(plan.Steps, Step{
					Kind:         StepUpdateBase,
					Bookmark:     b,
					Pr:           pr,
					CurrentBase:  pr.BaseRef,
					ExpectedBase: base,
				})
			}
			continue
		}

		plan.Steps = append(plan.Steps, Step{
			Kind:       StepCreate,
			Bookmark:   b,
			BaseBranch: base,
			Title:      Title(seg),
			Body:       Body(seg),
		})
	}
	return plan
}

// CreatePlan gathers existing PRs and builds the plan in one call.
func CreatePlan(ctx context.Context, analysis *Analysis, svc platform.Service, remote, defaultBranch string) (*Plan, error) {
	existing, err := GatherExistingPRs(ctx, analysis, svc)
	if err != nil {
		return nil, err
	}
	return BuildPlan(analysis, existing, remote, defaultBranch), nil
}
