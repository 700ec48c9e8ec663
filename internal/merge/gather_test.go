package merge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform/platformtest"
)

func TestGatherPrInfo_CollectsDetailsAndReadiness(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.SetupMergeablePR(1, "feat-a", "Add feature A")
	mock.SetupBlockedPR(2, "feat-b", "Add feature B", "Not approved")

	a := stackAnalysis(t, "feat-a", "feat-b")
	info, err := GatherPrInfo(context.Background(), a, mock)
	require.NoError(t, err)

	require.Len(t, info, 2)
	assert.Equal(t, 1, info["feat-a"].Details.Number)
	assert.Equal(t, "Add feature A", info["feat-a"].Details.Title)
	assert.False(t, info["feat-a"].Readiness.IsBlocked())
	assert.True(t, info["feat-b"].Readiness.IsBlocked())
}

func TestGatherPrInfo_SkipsBookmarksWithoutPRs(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.SetupMergeablePR(2, "feat-b", "Add feature B")

	a := stackAnalysis(t, "feat-a", "feat-b")
	info, err := GatherPrInfo(context.Background(), a, mock)
	require.NoError(t, err)

	require.Len(t, info, 1)
	_, found := info["feat-a"]
	assert.False(t, found)
	assert.Equal(t, []int{2}, mock.DetailsCalls())
}

func TestGatherPrInfo_FindErrorPropagates(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.FailFindPR("rate limited")

	a := stackAnalysis(t, "feat-a")
	_, err := GatherPrInfo(context.Background(), a, mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestGatherPrInfo_DetailsErrorPropagates(t *testing.T) {
	mock := platformtest.NewGitHub()
	// The PR exists but the mock has no details wired for it.
	mock.SetFindPRResponse("feat-a", &model.PullRequest{
		Number: 1, HeadRef: "feat-a", BaseRef: "main",
	})

	a := stackAnalysis(t, "feat-a")
	_, err := GatherPrInfo(context.Background(), a, mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no details configured")
}
