package submit

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform/platformtest"
	"github.com/canadaduane/jj-ryu/internal/store"
)

type fakeWorkspace struct {
	root    string
	pushes  [][]string
	remotes []string
	pushErr error
}

func (f *fakeWorkspace) Root() string { return f.root }

func (f *fakeWorkspace) GitPush(_ context.Context, remote string, bookmarks ...string) error {
	f.remotes = append(f.remotes, remote)
	f.pushes = append(f.pushes, bookmarks)
	return f.pushErr
}

func TestExecute_FreshStack(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a", "feat-b"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	exec := NewExecutor(ws, mock, nil, nil)
	result, err := exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, []string{"feat-a", "feat-b"}, result.PushedBookmarks)
	require.Len(t, result.CreatedPRs, 2)
	assert.Equal(t, 1, result.CreatedPRs[0].Number)
	assert.Equal(t, 2, result.CreatedPRs[1].Number)
	assert.Empty(t, result.UpdatedPRs)

	creates := mock.CreateCalls()
	require.Len(t, creates, 2)
	assert.Equal(t, "feat-a", creates[0].Head)
	assert.Equal(t, "main", creates[0].Base)
	assert.Equal(t, "feat-b", creates[1].Head)
	assert.Equal(t, "feat-a", creates[1].Base)
}

func TestExecute_SinglePushCoversAllBookmarks(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a", "feat-b", "feat-c"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	_, err = NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, ws.pushes, 1)
	assert.Equal(t, []string{"feat-a", "feat-b", "feat-c"}, ws.pushes[0])
	assert.Equal(t, []string{"origin"}, ws.remotes)
}

func TestExecute_UpdatesBase(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.SetFindPRResponse("feat-a", &model.PullRequest{
		Number: 1, BaseRef: "main", HeadRef: "feat-a",
	})
	mock.SetFindPRResponse("feat-b", &model.PullRequest{
		Number: 2, BaseRef: "main", HeadRef: "feat-b",
	})

	g := testStack("feat-a", "feat-b")
	for i := range g.Stack.Segments {
		g.Stack.Segments[i].Bookmarks[0].HasRemote = true
		g.Stack.Segments[i].Bookmarks[0].IsSynced = true
	}
	a := analyzeStack(t, g)

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	ws := &fakeWorkspace{root: t.TempDir()}
	result, err := NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Empty(t, ws.pushes)
	require.Len(t, result.UpdatedPRs, 1)
	updates := mock.UpdateBaseCalls()
	require.Len(t, updates, 1)
	assert.Equal(t, 2, updates[0].Number)
	assert.Equal(t, "feat-a", updates[0].NewBase)
}

func TestExecute_PushFailureStopsRun(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir(), pushErr: assert.AnError}
	a := analyzeStack(t, testStack("feat-a"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	result, err := NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.Error(t, err)
	assert.Empty(t, result.PushedBookmarks)
	assert.Empty(t, mock.CreateCalls())
}

func TestExecute_CreateFailureReturnsPartialResult(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.FailCreatePR("boom")
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a", "feat-b"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	result, err := NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.Error(t, err)

	// The push already happened; the result reports it even though PR
	// creation failed.
	assert.Equal(t, []string{"feat-a", "feat-b"}, result.PushedBookmarks)
	assert.Empty(t, result.CreatedPRs)
}

func TestExecute_SavesCacheAfterEachSuccess(t *testing.T) {
	mock := platformtest.NewGitHub()
	root := t.TempDir()
	ws := &fakeWorkspace{root: root}
	cache := store.NewPrCache()
	a := analyzeStack(t, testStack("feat-a", "feat-b"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	_, err = NewExecutor(ws, mock, &cache, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	reloaded, err := store.LoadPrCache(root)
	require.NoError(t, err)

	entryA, ok := reloaded.Get("feat-a")
	require.True(t, ok)
	assert.Equal(t, 1, entryA.Number)
	entryB, ok := reloaded.Get("feat-b")
	require.True(t, ok)
	assert.Equal(t, 2, entryB.Number)
}

func TestExecute_DraftFlagPassedThrough(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	exec := NewExecutor(ws, mock, nil, nil)
	exec.Draft = true
	_, err = exec.Execute(context.Background(), plan)
	require.NoError(t, err)

	creates := mock.CreateCalls()
	require.Len(t, creates, 1)
	assert.True(t, creates[0].Draft)
}

func TestExecute_BodyOnlySuppliedAtCreation(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}

	g := testStack("feat-a")
	g.Stack.Segments[0].Changes = []model.LogEntry{{
		CommitID:             "commit-feat-a",
		DescriptionFirstLine: "feat: thing",
		Description:          "feat: thing\n\nlonger explanation",
	}}
	a := analyzeStack(t, g)

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	_, err = NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	creates := mock.CreateCalls()
	require.Len(t, creates, 1)
	assert.Equal(t, "feat: thing", creates[0].Title)
	assert.Equal(t, "longer explanation", creates[0].Body)
}

func TestExecute_StackCommentsPostedLeafFirst(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a", "feat-b"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	_, err = NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	comments := mock.CommentCalls()
	require.Len(t, comments, 2)
	for _, c := range comments {
		assert.Contains(t, c.Body, CommentDataPrefix)
		assert.Contains(t, c.Body, "`main`")
		require.Contains(t, c.Body, "[#1]")
		require.Contains(t, c.Body, "[#2]")
		// Leaf PR listed before the trunk-adjacent one.
		assert.Less(t, strings.Index(c.Body, "[#2]"), strings.Index(c.Body, "[#1]"))
	}
	assert.Contains(t, comments[0].Body, CurrentMarker)
}

func TestExecute_SinglePRGetsNoStackComment(t *testing.T) {
	mock := platformtest.NewGitHub()
	ws := &fakeWorkspace{root: t.TempDir()}
	a := analyzeStack(t, testStack("feat-a"))

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	_, err = NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	assert.Empty(t, mock.CommentCalls())
}

func TestExecute_ExistingStackCommentUpdated(t *testing.T) {
	mock := platformtest.NewGitHub()
	mock.SetFindPRResponse("feat-a", &model.PullRequest{
		Number: 1, BaseRef: "main", HeadRef: "feat-a", Title: "Feat A",
	})
	mock.SetFindPRResponse("feat-b", &model.PullRequest{
		Number: 2, BaseRef: "feat-a", HeadRef: "feat-b", Title: "Feat B",
	})
	mock.SetListCommentsResponse(1, []model.PrComment{
		{ID: 7, Body: "unrelated comment"},
		{ID: 10, Body: CommentDataPrefix + " {} -->"},
	})

	g := testStack("feat-a", "feat-b")
	for i := range g.Stack.Segments {
		g.Stack.Segments[i].Bookmarks[0].HasRemote = true
		g.Stack.Segments[i].Bookmarks[0].IsSynced = true
	}
	a := analyzeStack(t, g)

	plan, err := CreatePlan(context.Background(), a, mock, "origin", "main")
	require.NoError(t, err)

	ws := &fakeWorkspace{root: t.TempDir()}
	_, err = NewExecutor(ws, mock, nil, nil).Execute(context.Background(), plan)
	require.NoError(t, err)

	updated := mock.UpdateCommentCalls()
	require.Len(t, updated, 1)
	assert.Equal(t, 1, updated[0].Number)
	assert.Equal(t, 10, updated[0].CommentID)

	// PR #2 had no previous stack comment, so it gets a new one.
	created := mock.CommentCalls()
	require.Len(t, created, 1)
	assert.Equal(t, 2, created[0].Number)
}
