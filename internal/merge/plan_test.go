package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/submit"
)

// stackAnalysis builds an analyzed stack of single-commit segments,
// trunk-first.
func stackAnalysis(t *testing.T, names ...string) *submit.Analysis {
	t.Helper()
	g := &model.ChangeGraph{Bookmarks: map[string]model.Bookmark{}}
	var segments []model.BookmarkSegment
	for _, name := range names {
		b := model.Bookmark{Name: name, CommitID: "commit-" + name, ChangeID: "change-" + name}
		g.Bookmarks[name] = b
		segments = append(segments, model.BookmarkSegment{
			Bookmarks: []model.Bookmark{b},
			Changes: []model.LogEntry{{
				CommitID:             b.CommitID,
				ChangeID:             b.ChangeID,
				DescriptionFirstLine: "Commit for " + name,
				Description:          "Commit for " + name,
			}},
		})
	}
	g.Stack = &model.Stack{Segments: segments}

	a, err := submit.Analyze(g, "")
	require.NoError(t, err)
	return a
}

func boolPtr(b bool) *bool { return &b }

func prDetails(number int, bookmark, title, baseRef string, mergeable *bool) model.PullRequestDetails {
	return model.PullRequestDetails{
		Number:    number,
		Title:     title,
		State:     model.PrStateOpen,
		Mergeable: mergeable,
		HeadRef:   bookmark,
		BaseRef:   baseRef,
	}
}

// readyInfo is an approved, green, conflict-free PR.
func readyInfo(number int, bookmark, title, baseRef string) PrInfo {
	return PrInfo{
		Bookmark: bookmark,
		Details:  prDetails(number, bookmark, title, baseRef, boolPtr(true)),
		Readiness: model.MergeReadiness{
			IsApproved:  true,
			CIPassed:    true,
			IsMergeable: boolPtr(true),
		},
	}
}

// blockedInfo is a PR blocked on approval.
func blockedInfo(number int, bookmark, baseRef string, reasons ...string) PrInfo {
	return PrInfo{
		Bookmark: bookmark,
		Details:  prDetails(number, bookmark, "Blocked PR", baseRef, boolPtr(true)),
		Readiness: model.MergeReadiness{
			CIPassed:        true,
			IsMergeable:     boolPtr(true),
			BlockingReasons: reasons,
		},
	}
}

// uncertainInfo is a PR whose mergeable status is still being computed.
func uncertainInfo(number int, bookmark, title, baseRef string) PrInfo {
	return PrInfo{
		Bookmark: bookmark,
		Details:  prDetails(number, bookmark, title, baseRef, nil),
		Readiness: model.MergeReadiness{
			IsApproved:    true,
			CIPassed:      true,
			Uncertainties: []string{"Merge status unknown (still computing)"},
		},
	}
}

func stepKinds(plan *Plan) []StepKind {
	kinds := make([]StepKind, len(plan.Steps))
	for i, s := range plan.Steps {
		kinds[i] = s.Kind
	}
	return kinds
}

func TestBuildPlan_SingleMergeablePR(t *testing.T) {
	a := stackAnalysis(t, "feat-a")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "Add feature A", "main"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, StepMerge, step.Kind)
	assert.Equal(t, "feat-a", step.Bookmark)
	assert.Equal(t, 1, step.PrNumber)
	assert.Equal(t, "Add feature A", step.PrTitle)
	assert.Equal(t, model.MergeMethodSquash, step.Method)
	assert.False(t, step.Confidence.Uncertain)

	assert.Equal(t, []string{"feat-a"}, plan.BookmarksToClear)
	assert.Empty(t, plan.RebaseTarget)
	assert.True(t, plan.HasActionable)
	assert.False(t, plan.IsEmpty())
	assert.Equal(t, 1, plan.MergeCount())
}

func TestBuildPlan_ConfiguredMethodAppliesToEveryMerge(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
	}

	plan := BuildPlan(a, info, PlanOptions{Method: model.MergeMethodRebase}, "main")

	for _, s := range plan.Steps {
		if s.Kind == StepMerge {
			assert.Equal(t, model.MergeMethodRebase, s.Method)
		}
	}
}

func TestBuildPlan_ConsecutiveMergesInterleaveRetargets(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b", "feat-c")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
		"feat-c": readyInfo(3, "feat-c", "Third", "feat-b"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	assert.Equal(t, []StepKind{
		StepMerge, StepRetargetBase, StepMerge, StepRetargetBase, StepMerge,
	}, stepKinds(plan))

	retargetB := plan.Steps[1]
	assert.Equal(t, 2, retargetB.PrNumber)
	assert.Equal(t, "feat-a", retargetB.OldBase)
	assert.Equal(t, "main", retargetB.NewBase)

	retargetC := plan.Steps[3]
	assert.Equal(t, 3, retargetC.PrNumber)
	assert.Equal(t, "feat-b", retargetC.OldBase)
	assert.Equal(t, "main", retargetC.NewBase)

	assert.Equal(t, 3, plan.MergeCount())
	assert.Equal(t, "main", plan.TrunkBranch)
	assert.Equal(t, []string{"feat-a", "feat-b", "feat-c"}, plan.BookmarksToClear)
}

func TestBuildPlan_BlockedMiddleStopsProcessing(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b", "feat-c")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": blockedInfo(2, "feat-b", "feat-a", "Not approved"),
		"feat-c": readyInfo(3, "feat-c", "Third", "feat-b"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	assert.Equal(t, []StepKind{StepMerge, StepSkip}, stepKinds(plan))
	assert.Equal(t, 1, plan.MergeCount())
	assert.Equal(t, "feat-b", plan.RebaseTarget)
	assert.Equal(t, []string{"feat-a"}, plan.BookmarksToClear)
}

func TestBuildPlan_FirstBlockedMeansEmptyPlan(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b")
	info := map[string]PrInfo{
		"feat-a": blockedInfo(1, "feat-a", "main", "CI not passing"),
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.True(t, plan.IsEmpty())
	assert.False(t, plan.HasActionable)
	assert.Equal(t, "feat-a", plan.RebaseTarget)
}

func TestBuildPlan_TargetBookmarkLimitsMerges(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b", "feat-c")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
		"feat-c": readyInfo(3, "feat-c", "Third", "feat-b"),
	}

	plan := BuildPlan(a, info, PlanOptions{TargetBookmark: "feat-b"}, "main")

	assert.Equal(t, 2, plan.MergeCount())
	assert.Equal(t, "feat-c", plan.RebaseTarget)
	assert.Equal(t, []string{"feat-a", "feat-b"}, plan.BookmarksToClear)
}

func TestBuildPlan_NoPRsMeansEmptyPlan(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b")

	plan := BuildPlan(a, map[string]PrInfo{}, PlanOptions{}, "main")

	assert.Empty(t, plan.Steps)
	assert.True(t, plan.IsEmpty())
	assert.False(t, plan.HasActionable)
	assert.Empty(t, plan.RebaseTarget)
}

func TestBuildPlan_MissingLowerPRStillMergesUpper(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b")
	info := map[string]PrInfo{
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepMerge, plan.Steps[0].Kind)
	assert.Equal(t, "feat-b", plan.Steps[0].Bookmark)
	assert.Equal(t, []string{"feat-b"}, plan.BookmarksToClear)
}

func TestBuildPlan_DraftBlocks(t *testing.T) {
	details := prDetails(1, "feat-a", "Draft PR", "main", boolPtr(true))
	details.IsDraft = true
	info := map[string]PrInfo{
		"feat-a": {
			Bookmark: "feat-a",
			Details:  details,
			Readiness: platform.EvaluateReadiness(platform.ReadinessInput{
				Details:     &details,
				Approved:    true,
				CIPassed:    true,
				DraftReason: "PR is a draft",
			}),
		},
	}

	plan := BuildPlan(stackAnalysis(t, "feat-a"), info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.Contains(t, plan.Steps[0].Reasons, "PR is a draft")
}

func TestBuildPlan_NotApprovedBlocks(t *testing.T) {
	details := prDetails(1, "feat-a", "Unreviewed", "main", boolPtr(true))
	info := map[string]PrInfo{
		"feat-a": {
			Bookmark: "feat-a",
			Details:  details,
			Readiness: platform.EvaluateReadiness(platform.ReadinessInput{
				Details:  &details,
				CIPassed: true,
			}),
		},
	}

	plan := BuildPlan(stackAnalysis(t, "feat-a"), info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.Contains(t, plan.Steps[0].Reasons, "Not approved")
}

func TestBuildPlan_FailingCIBlocks(t *testing.T) {
	details := prDetails(1, "feat-a", "Red CI", "main", boolPtr(true))
	info := map[string]PrInfo{
		"feat-a": {
			Bookmark: "feat-a",
			Details:  details,
			Readiness: platform.EvaluateReadiness(platform.ReadinessInput{
				Details:  &details,
				Approved: true,
			}),
		},
	}

	plan := BuildPlan(stackAnalysis(t, "feat-a"), info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.Contains(t, plan.Steps[0].Reasons, "CI not passing")
}

func TestBuildPlan_ConflictsBlock(t *testing.T) {
	details := prDetails(1, "feat-a", "Conflicted", "main", boolPtr(false))
	info := map[string]PrInfo{
		"feat-a": {
			Bookmark: "feat-a",
			Details:  details,
			Readiness: platform.EvaluateReadiness(platform.ReadinessInput{
				Details:  &details,
				Approved: true,
				CIPassed: true,
			}),
		},
	}

	plan := BuildPlan(stackAnalysis(t, "feat-a"), info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.Contains(t, plan.Steps[0].Reasons, "Has merge conflicts")
}

func TestBuildPlan_UncertainMergeableGetsUncertainConfidence(t *testing.T) {
	a := stackAnalysis(t, "feat-a")
	info := map[string]PrInfo{
		"feat-a": uncertainInfo(1, "feat-a", "Still computing", "main"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, StepMerge, step.Kind)
	assert.True(t, step.Confidence.Uncertain)
	assert.Contains(t, step.Confidence.Reason, "Merge status unknown")
	assert.True(t, plan.HasActionable)
}

func TestBuildPlan_BlockerBeatsUncertainty(t *testing.T) {
	a := stackAnalysis(t, "feat-a")
	info := map[string]PrInfo{
		"feat-a": {
			Bookmark: "feat-a",
			Details:  prDetails(1, "feat-a", "Both", "main", nil),
			Readiness: model.MergeReadiness{
				CIPassed:        true,
				BlockingReasons: []string{"Not approved"},
				Uncertainties:   []string{"Merge status unknown (still computing)"},
			},
		},
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, StepSkip, plan.Steps[0].Kind)
	assert.Contains(t, plan.Steps[0].Reasons, "Not approved")
}

func TestBuildPlan_RedundantRetargetOmitted(t *testing.T) {
	// feat-b already targets trunk; nothing to repoint.
	a := stackAnalysis(t, "feat-a", "feat-b")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": readyInfo(2, "feat-b", "Second", "main"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	assert.Equal(t, []StepKind{StepMerge, StepMerge}, stepKinds(plan))
}

func TestPlanIsEmpty_SkipOnlyPlanIsEmpty(t *testing.T) {
	a := stackAnalysis(t, "feat-a")
	info := map[string]PrInfo{
		"feat-a": blockedInfo(1, "feat-a", "main", "Not approved"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	assert.True(t, plan.IsEmpty())
	assert.NotEmpty(t, plan.Steps)
}

func TestPlanMergeCount_CountsOnlyMerges(t *testing.T) {
	a := stackAnalysis(t, "feat-a", "feat-b")
	info := map[string]PrInfo{
		"feat-a": readyInfo(1, "feat-a", "First", "main"),
		"feat-b": readyInfo(2, "feat-b", "Second", "feat-a"),
	}

	plan := BuildPlan(a, info, PlanOptions{}, "main")

	require.Len(t, plan.Steps, 3)
	assert.Equal(t, 2, plan.MergeCount())
}

func TestMergeStepString(t *testing.T) {
	merge := Step{Kind: StepMerge, PrNumber: 1, PrTitle: "Add feature"}
	assert.Equal(t, "merge PR #1: Add feature", merge.String())

	uncertain := Step{
		Kind: StepMerge, PrNumber: 2, PrTitle: "Maybe",
		Confidence: Confidence{Uncertain: true, Reason: "unknown"},
	}
	assert.Equal(t, "merge (uncertain) PR #2: Maybe", uncertain.String())

	retarget := Step{Kind: StepRetargetBase, PrNumber: 2, OldBase: "feat-a", NewBase: "main"}
	assert.Equal(t, "retarget PR #2: feat-a → main", retarget.String())

	skip := Step{Kind: StepSkip, PrNumber: 3, Bookmark: "feat-c", Reasons: []string{"Not approved", "CI not passing"}}
	assert.Equal(t, "skip PR #3 (feat-c): Not approved, CI not passing", skip.String())

	bareSkip := Step{Kind: StepSkip, PrNumber: 4, Bookmark: "feat-d"}
	assert.Equal(t, "skip PR #4 (feat-d)", bareSkip.String())
}
