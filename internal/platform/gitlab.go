package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// GitLabService drives the GitLab REST v4 API. Merge requests are surfaced
// through the same PullRequest types as GitHub, with the MR iid as the number.
type GitLabService struct {
	client      *http.Client
	config      model.PlatformConfig
	token       string
	host        string
	projectPath string
}

// NewGitLab builds a GitLab service. A non-empty cfg.Host selects a
// self-managed instance; otherwise gitlab.com is used.
func NewGitLab(cfg model.PlatformConfig, token string) *GitLabService {
	host := cfg.Host
	if host == "" {
		host = "gitlab.com"
	}
	return &GitLabService{
		client:      newHTTPClient(),
		config:      cfg,
		token:       token,
		host:        host,
		projectPath: cfg.Owner + "/" + cfg.Repo,
	}
}

type glMergeRequest struct {
	IID          int    `json:"iid"`
	WebURL       string `json:"web_url"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Title        string `json:"title"`
	Draft        bool   `json:"draft"`
}

func (mr glMergeRequest) toPullRequest() *model.PullRequest {
	return &model.PullRequest{
		Number:  mr.IID,
		HTMLURL: mr.WebURL,
		BaseRef: mr.TargetBranch,
		HeadRef: mr.SourceBranch,
		Title:   mr.Title,
		// GitLab has no GraphQL node ids in this flow.
		NodeID:  "",
		IsDraft: mr.Draft,
	}
}

func (s *GitLabService) FindExistingPR(ctx context.Context, headBranch string) (*model.PullRequest, error) {
	logs.Debug("gitlab: finding existing MR for %s", headBranch)
	query := url.Values{
		"source_branch": {headBranch},
		"state":         {"opened"},
	}
	var mrs []glMergeRequest
	if err := s.api(ctx, http.MethodGet, s.projectURL("/merge_requests")+"?"+query.Encode(), nil, &mrs); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}
	if len(mrs) == 0 {
		return nil, nil
	}
	return mrs[0].toPullRequest(), nil
}

func (s *GitLabService) CreatePR(ctx context.Context, head, base, title, body string, draft bool) (*model.PullRequest, error) {
	logs.Debug("gitlab: creating MR %s -> %s (draft=%v)", head, base, draft)
	payload := struct {
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
		Title        string `json:"title"`
		Description  string `json:"description,omitempty"`
		Draft        bool   `json:"draft,omitempty"`
	}{SourceBranch: head, TargetBranch: base, Title: title, Description: body, Draft: draft}

	var mr glMergeRequest
	if err := s.api(ctx, http.MethodPost, s.projectURL("/merge_requests"), payload, &mr); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}
	return mr.toPullRequest(), nil
}

func (s *GitLabService) UpdatePRBase(ctx context.Context, number int, newBase string) (*model.PullRequest, error) {
	logs.Debug("gitlab: updating MR !%d target to %s", number, newBase)
	payload := struct {
		TargetBranch string `json:"target_branch"`
	}{TargetBranch: newBase}

	var mr glMergeRequest
	if err := s.api(ctx, http.MethodPut, s.projectURL(fmt.Sprintf("/merge_requests/%d", number)), payload, &mr); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}
	return mr.toPullRequest(), nil
}

func (s *GitLabService) PublishPR(ctx context.Context, number int) (*model.PullRequest, error) {
	logs.Debug("gitlab: publishing MR !%d", number)
	payload := struct {
		StateEvent string `json:"state_event"`
	}{StateEvent: "ready"}

	var mr glMergeRequest
	if err := s.api(ctx, http.MethodPut, s.projectURL(fmt.Sprintf("/merge_requests/%d", number)), payload, &mr); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}
	return mr.toPullRequest(), nil
}

func (s *GitLabService) ListPRComments(ctx context.Context, number int) ([]model.PrComment, error) {
	logs.Debug("gitlab: listing notes on MR !%d", number)
	var notes []struct {
		ID     int    `json:"id"`
		Body   string `json:"body"`
		System bool   `json:"system"`
	}
	if err := s.api(ctx, http.MethodGet, s.projectURL(fmt.Sprintf("/merge_requests/%d/notes", number)), nil, &notes); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}
	comments := make([]model.PrComment, 0, len(notes))
	for _, n := range notes {
		// System notes are GitLab's own activity entries, not user comments.
		if n.System {
			continue
		}
		comments = append(comments, model.PrComment{ID: n.ID, Body: n.Body})
	}
	return comments, nil
}

func (s *GitLabService) CreatePRComment(ctx context.Context, number int, body string) error {
	logs.Debug("gitlab: creating note on MR !%d", number)
	payload := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := s.api(ctx, http.MethodPost, s.projectURL(fmt.Sprintf("/merge_requests/%d/notes", number)), payload, nil); err != nil {
		return &model.GitLabAPIError{Message: err.Error()}
	}
	return nil
}

func (s *GitLabService) UpdatePRComment(ctx context.Context, number, commentID int, body string) error {
	logs.Debug("gitlab: updating note %d on MR !%d", commentID, number)
	payload := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := s.api(ctx, http.MethodPut, s.projectURL(fmt.Sprintf("/merge_requests/%d/notes/%d", number, commentID)), payload, nil); err != nil {
		return &model.GitLabAPIError{Message: err.Error()}
	}
	return nil
}

func (s *GitLabService) Config() model.PlatformConfig {
	return s.config
}

func (s *GitLabService) GetPRDetails(ctx context.Context, number int) (*model.PullRequestDetails, error) {
	logs.Debug("gitlab: getting MR !%d details", number)
	var mr struct {
		IID          int    `json:"iid"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		State        string `json:"state"`
		Draft        bool   `json:"draft"`
		MergeStatus  string `json:"merge_status"`
		WebURL       string `json:"web_url"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
	}
	if err := s.api(ctx, http.MethodGet, s.projectURL(fmt.Sprintf("/merge_requests/%d", number)), nil, &mr); err != nil {
		return nil, &model.GitLabAPIError{Message: err.Error()}
	}

	state := model.PrStateClosed
	switch mr.State {
	case "opened":
		state = model.PrStateOpen
	case "merged":
		state = model.PrStateMerged
	}
	// GitLab computes merge_status synchronously, so mergeability is never
	// unknown.
	mergeable := mr.MergeStatus == "can_be_merged"

	return &model.PullRequestDetails{
		Number:    mr.IID,
		Title:     mr.Title,
		Body:      mr.Description,
		State:     state,
		IsDraft:   mr.Draft,
		Mergeable: &mergeable,
		HeadRef:   mr.SourceBranch,
		BaseRef:   mr.TargetBranch,
		HTMLURL:   mr.WebURL,
	}, nil
}

func (s *GitLabService) CheckMergeReadiness(ctx context.Context, number int) (model.MergeReadiness, error) {
	logs.Debug("gitlab: checking merge readiness of MR !%d", number)

	details, err := s.GetPRDetails(ctx, number)
	if err != nil {
		return model.MergeReadiness{}, err
	}

	// If the approvals endpoint fails, assume not approved.
	approved := false
	var approvals struct {
		Approved bool `json:"approved"`
	}
	if err := s.api(ctx, http.MethodGet, s.projectURL(fmt.Sprintf("/merge_requests/%d/approvals", number)), nil, &approvals); err == nil {
		approved = approvals.Approved
	} else {
		logs.Debug("gitlab: approvals check failed, assuming not approved: %v", err)
	}

	// If the pipelines endpoint fails, assume passing. No pipeline is not
	// blocking either, otherwise the most recent one decides.
	ciPassed := true
	var pipelines []struct {
		Status string `json:"status"`
	}
	if err := s.api(ctx, http.MethodGet, s.projectURL(fmt.Sprintf("/merge_requests/%d/pipelines", number)), nil, &pipelines); err == nil {
		if len(pipelines) > 0 {
			ciPassed = pipelines[0].Status == "success"
		}
	} else {
		logs.Debug("gitlab: pipelines check failed, assuming passing: %v", err)
	}

	return EvaluateReadiness(ReadinessInput{
		Details:     details,
		Approved:    approved,
		CIPassed:    ciPassed,
		DraftReason: "MR is a draft",
	}), nil
}

func (s *GitLabService) MergePR(ctx context.Context, number int, method model.MergeMethod) (model.MergeResult, error) {
	logs.Debug("gitlab: merging MR !%d via %s", number, method)

	// Squash merges reuse the MR title and description as the commit message.
	details, err := s.GetPRDetails(ctx, number)
	if err != nil {
		return model.MergeResult{}, err
	}

	var payload any
	switch method {
	case model.MergeMethodSquash:
		payload = map[string]any{
			"squash":                true,
			"squash_commit_message": fmt.Sprintf("%s (!%d)\n\n%s", details.Title, number, details.Body),
		}
	case model.MergeMethodRebase:
		payload = map[string]any{"merge_method": "rebase"}
	default:
		payload = map[string]any{}
	}

	var response struct {
		State          string `json:"state"`
		MergeCommitSHA string `json:"merge_commit_sha"`
	}
	if err := s.api(ctx, http.MethodPut, s.projectURL(fmt.Sprintf("/merge_requests/%d/merge", number)), payload, &response); err != nil {
		return model.MergeResult{}, &model.GitLabAPIError{Message: "Merge failed: " + err.Error()}
	}
	return model.MergeResult{Merged: response.State == "merged", SHA: response.MergeCommitSHA}, nil
}

func (s *GitLabService) projectURL(path string) string {
	return fmt.Sprintf("https://%s/api/v4/projects/%s%s", s.host, url.PathEscape(s.projectPath), path)
}

func (s *GitLabService) api(ctx context.Context, method, rawURL string, payload, out any) error {
	req, err := newJSONRequest(ctx, method, rawURL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("PRIVATE-TOKEN", s.token)
	return doJSON(req, s.client, out)
}
