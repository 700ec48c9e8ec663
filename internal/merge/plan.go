// Package merge plans and executes landing a stack of PRs on trunk. It
// mirrors the submission pipeline's shape: gather remote state, build a pure
// plan from the snapshot, then execute it step by step.
package merge

import (
	"fmt"
	"strings"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/submit"
)

// PrInfo is the gathered state for one bookmark's PR.
type PrInfo struct {
	Bookmark  string
	Details   model.PullRequestDetails
	Readiness model.MergeReadiness
}

// Confidence qualifies a merge step. The zero value means the merge is
// expected to succeed; Uncertain carries the reason it might not.
type Confidence struct {
	Uncertain bool
	Reason    string
}

// StepKind identifies a merge step.
type StepKind string

const (
	// StepMerge merges the PR into its current base.
	StepMerge StepKind = "merge"
	// StepRetargetBase points a PR at trunk before its own merge runs.
	StepRetargetBase StepKind = "retarget-base"
	// StepSkip records a PR that cannot be merged, ending the run.
	StepSkip StepKind = "skip"
)

// Step is one planned merge action.
type Step struct {
	Kind     StepKind
	Bookmark string
	PrNumber int

	// Merge fields.
	PrTitle    string
	Method     model.MergeMethod
	Confidence Confidence

	// Retarget fields.
	OldBase string
	NewBase string

	// Skip fields.
	Reasons []string
}

func (s Step) String() string {
	switch s.Kind {
	case StepMerge:
		prefix := "merge"
		if s.Confidence.Uncertain {
			prefix = "merge (uncertain)"
		}
		return fmt.Sprintf("%s PR #%d: %s", prefix, s.PrNumber, s.PrTitle)
	case StepRetargetBase:
		return fmt.Sprintf("retarget PR #%d: %s → %s", s.PrNumber, s.OldBase, s.NewBase)
	case StepSkip:
		out := fmt.Sprintf("skip PR #%d (%s)", s.PrNumber, s.Bookmark)
		if len(s.Reasons) > 0 {
			out += ": " + strings.Join(s.Reasons, ", ")
		}
		return out
	default:
		return string(s.Kind)
	}
}

// PlanOptions tunes merge planning.
type PlanOptions struct {
	// TargetBookmark limits the merge to PRs up to and including this
	// bookmark. Empty means every consecutive mergeable PR.
	TargetBookmark string

	// Method is the merge strategy for every Merge step. Empty means squash.
	Method model.MergeMethod
}

// Plan is the ordered list of merge steps plus what local cleanup needs
// afterwards.
type Plan struct {
	Steps []Step
	// BookmarksToClear are dropped from the PR cache once their merges land.
	BookmarksToClear []string
	// RebaseTarget is the first bookmark left unmerged, "" when the whole
	// stack goes in. The remaining stack is rebased onto trunk from here.
	RebaseTarget  string
	HasActionable bool
	TrunkBranch   string
}

// IsEmpty reports whether the plan merges nothing. A plan holding only Skip
// steps is empty even though it has steps to show.
func (p *Plan) IsEmpty() bool {
	return p.MergeCount() == 0
}

// MergeCount returns the number of merge steps.
func (p *Plan) MergeCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.Kind == StepMerge {
			n++
		}
	}
	return n
}

// BuildPlan computes the merge steps from the analyzed stack and gathered PR
// state. It performs no I/O.
//
// The walk runs trunk to leaf. A blocked PR becomes a Skip step and ends
// processing; merging past it would land upper changes on a base that never
// reaches trunk. Bookmarks without a PR are passed over. Bookmarks past the
// target or past a blocker are left alone, with the first of them remembered
// as the rebase target.
//
// Between consecutive merges a RetargetBase step repoints the next PR at
// trunk. The platform merges a PR into its currently configured base, and
// after the lower merge that base branch is dead; without the retarget the
// next merge would land nowhere visible from trunk. PRs already based on
// trunk need no retarget.
func BuildPlan(analysis *submit.Analysis, prInfo map[string]PrInfo, opts PlanOptions, trunkBranch string) *Plan {
	method := opts.Method
	if method == "" {
		method = model.MergeMethodSquash
	}

	var steps []Step
	var bookmarksToClear []string
	var mergeableIndices []int
	rebaseTarget := ""
	hitBlocker := false
	hitTarget := false

	for idx, seg := range analysis.Segments {
		name := seg.Bookmark.Name

		if opts.TargetBookmark != "" {
			if hitTarget {
				if rebaseTarget == "" {
					rebaseTarget = name
				}
				continue
			}
			if name == opts.TargetBookmark {
				hitTarget = true
			}
		}

		info, ok := prInfo[name]
		if !ok {
			continue
		}

		if hitBlocker {
			if rebaseTarget == "" {
				rebaseTarget = name
			}
			continue
		}

		if info.Readiness.IsBlocked() {
			steps = append(steps, Step{
				Kind:     StepSkip,
				Bookmark: name,
				PrNumber: info.Details.Number,
				Reasons:  info.Readiness.BlockingReasons,
			})
			hitBlocker = true
			if rebaseTarget == "" {
				rebaseTarget = name
			}
			continue
		}

		mergeableIndices = append(mergeableIndices, idx)
		var confidence Confidence
		if reason := info.Readiness.Uncertainty(); reason != "" {
			confidence = Confidence{Uncertain: true, Reason: reason}
		}
		steps = append(steps, Step{
			Kind:       StepMerge,
			Bookmark:   name,
			PrNumber:   info.Details.Number,
			PrTitle:    info.Details.Title,
			Method:     method,
			Confidence: confidence,
		})
		bookmarksToClear = append(bookmarksToClear, name)
	}

	// Interleave the retarget steps now that the mergeable set is known.
	var finalSteps []Step
	mergeCount := 0
	for _, step := range steps {
		finalSteps = append(finalSteps, step)
		if step.Kind != StepMerge {
			continue
		}
		mergeCount++
		if mergeCount >= len(mergeableIndices) {
			continue
		}

		nextSeg := analysis.Segments[mergeableIndices[mergeCount]]
		nextInfo, ok := prInfo[nextSeg.Bookmark.Name]
		if !ok {
			continue
		}
		if nextInfo.Details.BaseRef == trunkBranch {
			continue
		}
		finalSteps = append(finalSteps, Step{
			Kind:     StepRetargetBase,
			Bookmark: nextSeg.Bookmark.Name,
			PrNumber: nextInfo.Details.Number,
			OldBase:  nextInfo.Details.BaseRef,
			NewBase:  trunkBranch,
		})
	}

	hasActionable := false
	for _, s := range finalSteps {
		if s.Kind == StepMerge {
			hasActionable = true
			break
		}
	}

	return &Plan{
		Steps:            finalSteps,
		BookmarksToClear: bookmarksToClear,
		RebaseTarget:     rebaseTarget,
		HasActionable:    hasActionable,
		TrunkBranch:      trunkBranch,
	}
}
