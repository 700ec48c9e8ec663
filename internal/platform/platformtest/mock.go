// Package platformtest provides an in-memory platform.Service for tests:
// configurable responses per branch and PR number, call recording, and
// error injection for failure paths.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
)

// CreatePRCall records one CreatePR invocation.
type CreatePRCall struct {
	Head  string
	Base  string
	Title string
	Body  string
	Draft bool
}

// UpdateBaseCall records one UpdatePRBase invocation.
type UpdateBaseCall struct {
	Number  int
	NewBase string
}

// CommentCall records one CreatePRComment invocation.
type CommentCall struct {
	Number int
	Body   string
}

// UpdateCommentCall records one UpdatePRComment invocation.
type UpdateCommentCall struct {
	Number    int
	CommentID int
	Body      string
}

// MergeCall records one MergePR invocation.
type MergeCall struct {
	Number int
	Method model.MergeMethod
}

// Mock implements platform.Service against in-memory state. PR numbers
// auto-increment from 1 on creation.
type Mock struct {
	mu         sync.Mutex
	config     model.PlatformConfig
	nextNumber int

	findResponses      map[string]*model.PullRequest
	commentsResponses  map[int][]model.PrComment
	detailsResponses   map[int]*model.PullRequestDetails
	readinessResponses map[int]model.MergeReadiness
	mergeResponses     map[int]model.MergeResult

	findCalls          []string
	createCalls        []CreatePRCall
	updateBaseCalls    []UpdateBaseCall
	publishCalls       []int
	commentCalls       []CommentCall
	updateCommentCalls []UpdateCommentCall
	listCommentsCalls  []int
	detailsCalls       []int
	readinessCalls     []int
	mergeCalls         []MergeCall

	findErr       error
	createErr     error
	updateBaseErr error
	mergeErr      error
}

var _ platform.Service = (*Mock)(nil)

// New builds an empty mock for the given repository.
func New(cfg model.PlatformConfig) *Mock {
	return &Mock{
		config:             cfg,
		nextNumber:         1,
		findResponses:      make(map[string]*model.PullRequest),
		commentsResponses:  make(map[int][]model.PrComment),
		detailsResponses:   make(map[int]*model.PullRequestDetails),
		readinessResponses: make(map[int]model.MergeReadiness),
		mergeResponses:     make(map[int]model.MergeResult),
	}
}

// NewGitHub builds a mock standing in for a github.com test/repo service.
func NewGitHub() *Mock {
	return New(model.PlatformConfig{Kind: model.PlatformGitHub, Owner: "test", Repo: "repo"})
}

// --- response configuration ---

// SetFindPRResponse sets the FindExistingPR result for a branch.
func (m *Mock) SetFindPRResponse(branch string, pr *model.PullRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findResponses[branch] = pr
}

// SetListCommentsResponse sets the ListPRComments result for a PR.
func (m *Mock) SetListCommentsResponse(number int, comments []model.PrComment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentsResponses[number] = comments
}

// SetPRDetailsResponse sets the GetPRDetails result for a PR.
func (m *Mock) SetPRDetailsResponse(number int, details model.PullRequestDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailsResponses[number] = &details
}

// SetMergeReadinessResponse sets the CheckMergeReadiness result for a PR.
func (m *Mock) SetMergeReadinessResponse(number int, readiness model.MergeReadiness) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readinessResponses[number] = readiness
}

// SetMergeResponse sets the MergePR result for a PR.
func (m *Mock) SetMergeResponse(number int, result model.MergeResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeResponses[number] = result
}

// --- error injection ---

// FailFindPR makes FindExistingPR return a platform error.
func (m *Mock) FailFindPR(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findErr = &model.PlatformError{Message: msg}
}

// FailCreatePR makes CreatePR return a platform error.
func (m *Mock) FailCreatePR(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = &model.PlatformError{Message: msg}
}

// FailUpdateBase makes UpdatePRBase return a platform error.
func (m *Mock) FailUpdateBase(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateBaseErr = &model.PlatformError{Message: msg}
}

// FailMergePR makes MergePR return a platform error.
func (m *Mock) FailMergePR(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeErr = &model.PlatformError{Message: msg}
}

// --- scenario helpers ---

func testPR(number int, bookmark, title string) *model.PullRequest {
	return &model.PullRequest{
		Number:  number,
		HTMLURL: fmt.Sprintf("https://github.com/test/repo/pull/%d", number),
		BaseRef: "main",
		HeadRef: bookmark,
		Title:   title,
		NodeID:  fmt.Sprintf("PR_node_%d", number),
	}
}

func testDetails(number int, bookmark, title string, mergeable *bool) model.PullRequestDetails {
	return model.PullRequestDetails{
		Number:    number,
		Title:     title,
		Body:      "PR body",
		State:     model.PrStateOpen,
		Mergeable: mergeable,
		HeadRef:   bookmark,
		BaseRef:   "main",
		HTMLURL:   fmt.Sprintf("https://github.com/test/repo/pull/%d", number),
	}
}

func mergeableTrue() *bool {
	b := true
	return &b
}

// SetupMergeablePR wires every response an approved, green, conflict-free PR
// needs: find, details, readiness and a successful merge.
func (m *Mock) SetupMergeablePR(number int, bookmark, title string) {
	m.SetFindPRResponse(bookmark, testPR(number, bookmark, title))
	m.SetPRDetailsResponse(number, testDetails(number, bookmark, title, mergeableTrue()))
	m.SetMergeReadinessResponse(number, model.MergeReadiness{
		IsApproved:  true,
		CIPassed:    true,
		IsMergeable: mergeableTrue(),
	})
	m.SetMergeResponse(number, model.MergeResult{
		Merged: true,
		SHA:    fmt.Sprintf("merged_sha_%d", number),
	})
}

// SetupBlockedPR wires a PR whose readiness carries the given blocking
// reasons (not approved).
func (m *Mock) SetupBlockedPR(number int, bookmark, title string, reasons ...string) {
	m.SetFindPRResponse(bookmark, testPR(number, bookmark, title))
	m.SetPRDetailsResponse(number, testDetails(number, bookmark, title, mergeableTrue()))
	m.SetMergeReadinessResponse(number, model.MergeReadiness{
		IsApproved:      false,
		CIPassed:        true,
		IsMergeable:     mergeableTrue(),
		BlockingReasons: reasons,
	})
}

// SetupUncertainPR wires a PR whose mergeable status the platform has not
// computed yet. Merging it is configured to succeed.
func (m *Mock) SetupUncertainPR(number int, bookmark, title string) {
	m.SetFindPRResponse(bookmark, testPR(number, bookmark, title))
	m.SetPRDetailsResponse(number, testDetails(number, bookmark, title, nil))
	m.SetMergeReadinessResponse(number, model.MergeReadiness{
		IsApproved:    true,
		CIPassed:      true,
		Uncertainties: []string{"Merge status unknown (still computing)"},
	})
	m.SetMergeResponse(number, model.MergeResult{
		Merged: true,
		SHA:    fmt.Sprintf("merged_sha_%d", number),
	})
}

// --- call inspection ---

// FindCalls returns every branch FindExistingPR was asked about.
func (m *Mock) FindCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.findCalls...)
}

// CreateCalls returns every CreatePR invocation.
func (m *Mock) CreateCalls() []CreatePRCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreatePRCall(nil), m.createCalls...)
}

// UpdateBaseCalls returns every UpdatePRBase invocation.
func (m *Mock) UpdateBaseCalls() []UpdateBaseCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UpdateBaseCall(nil), m.updateBaseCalls...)
}

// PublishCalls returns every PublishPR invocation.
func (m *Mock) PublishCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.publishCalls...)
}

// CommentCalls returns every CreatePRComment invocation.
func (m *Mock) CommentCalls() []CommentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CommentCall(nil), m.commentCalls...)
}

// UpdateCommentCalls returns every UpdatePRComment invocation.
func (m *Mock) UpdateCommentCalls() []UpdateCommentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UpdateCommentCall(nil), m.updateCommentCalls...)
}

// ListCommentsCalls returns every ListPRComments invocation.
func (m *Mock) ListCommentsCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.listCommentsCalls...)
}

// DetailsCalls returns every GetPRDetails invocation.
func (m *Mock) DetailsCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.detailsCalls...)
}

// ReadinessCalls returns every CheckMergeReadiness invocation.
func (m *Mock) ReadinessCalls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.readinessCalls...)
}

// MergeCalls returns every MergePR invocation in order.
func (m *Mock) MergeCalls() []MergeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MergeCall(nil), m.mergeCalls...)
}

// MergedNumbers returns the PR numbers MergePR was called with, in order.
func (m *Mock) MergedNumbers() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	numbers := make([]int, len(m.mergeCalls))
	for i, c := range m.mergeCalls {
		numbers[i] = c.Number
	}
	return numbers
}

// --- platform.Service ---

func (m *Mock) FindExistingPR(_ context.Context, headBranch string) (*model.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls = append(m.findCalls, headBranch)
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.findResponses[headBranch], nil
}

func (m *Mock) CreatePR(_ context.Context, head, base, title, body string, draft bool) (*model.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls = append(m.createCalls, CreatePRCall{Head: head, Base: base, Title: title, Body: body, Draft: draft})
	if m.createErr != nil {
		return nil, m.createErr
	}
	number := m.nextNumber
	m.nextNumber++
	return &model.PullRequest{
		Number:  number,
		HTMLURL: fmt.Sprintf("https://github.com/test/repo/pull/%d", number),
		BaseRef: base,
		HeadRef: head,
		Title:   title,
		NodeID:  fmt.Sprintf("PR_node_%d", number),
		IsDraft: draft,
	}, nil
}

func (m *Mock) UpdatePRBase(_ context.Context, number int, newBase string) (*model.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateBaseCalls = append(m.updateBaseCalls, UpdateBaseCall{Number: number, NewBase: newBase})
	if m.updateBaseErr != nil {
		return nil, m.updateBaseErr
	}
	return &model.PullRequest{
		Number:  number,
		HTMLURL: fmt.Sprintf("https://github.com/test/repo/pull/%d", number),
		BaseRef: newBase,
		HeadRef: "updated",
		Title:   "Updated PR",
		NodeID:  fmt.Sprintf("PR_node_%d", number),
	}, nil
}

func (m *Mock) PublishPR(_ context.Context, number int) (*model.PullRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishCalls = append(m.publishCalls, number)
	return &model.PullRequest{
		Number:  number,
		HTMLURL: fmt.Sprintf("https://github.com/test/repo/pull/%d", number),
		BaseRef: "main",
		HeadRef: "published",
		Title:   "Published PR",
		NodeID:  fmt.Sprintf("PR_node_%d", number),
		IsDraft: false,
	}, nil
}

func (m *Mock) ListPRComments(_ context.Context, number int) ([]model.PrComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCommentsCalls = append(m.listCommentsCalls, number)
	return m.commentsResponses[number], nil
}

func (m *Mock) CreatePRComment(_ context.Context, number int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentCalls = append(m.commentCalls, CommentCall{Number: number, Body: body})
	return nil
}

func (m *Mock) UpdatePRComment(_ context.Context, number, commentID int, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCommentCalls = append(m.updateCommentCalls, UpdateCommentCall{Number: number, CommentID: commentID, Body: body})
	return nil
}

func (m *Mock) Config() model.PlatformConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

func (m *Mock) GetPRDetails(_ context.Context, number int) (*model.PullRequestDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailsCalls = append(m.detailsCalls, number)
	details, ok := m.detailsResponses[number]
	if !ok {
		return nil, &model.PlatformError{Message: fmt.Sprintf("no details configured for PR #%d", number)}
	}
	copied := *details
	return &copied, nil
}

func (m *Mock) CheckMergeReadiness(_ context.Context, number int) (model.MergeReadiness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readinessCalls = append(m.readinessCalls, number)
	readiness, ok := m.readinessResponses[number]
	if !ok {
		return model.MergeReadiness{}, &model.PlatformError{Message: fmt.Sprintf("no readiness configured for PR #%d", number)}
	}
	return readiness, nil
}

func (m *Mock) MergePR(_ context.Context, number int, method model.MergeMethod) (model.MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeCalls = append(m.mergeCalls, MergeCall{Number: number, Method: method})
	if m.mergeErr != nil {
		return model.MergeResult{}, m.mergeErr
	}
	result, ok := m.mergeResponses[number]
	if !ok {
		return model.MergeResult{}, &model.PlatformError{Message: fmt.Sprintf("no merge result configured for PR #%d", number)}
	}
	return result, nil
}
