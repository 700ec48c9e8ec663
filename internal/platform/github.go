package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// GitHubService drives the GitHub REST v3 API, plus one GraphQL mutation for
// publishing drafts (REST has no ready-for-review endpoint).
type GitHubService struct {
	client  *http.Client
	config  model.PlatformConfig
	token   string
	apiBase string
	gqlURL  string
}

// NewGitHub builds a GitHub service. A non-empty cfg.Host selects a GitHub
// Enterprise instance.
func NewGitHub(cfg model.PlatformConfig, token string) *GitHubService {
	apiBase := "https://api.github.com"
	gqlURL := "https://api.github.com/graphql"
	if cfg.Host != "" {
		apiBase = fmt.Sprintf("https://%s/api/v3", cfg.Host)
		gqlURL = fmt.Sprintf("https://%s/api/graphql", cfg.Host)
	}
	return &GitHubService{
		client:  newHTTPClient(),
		config:  cfg,
		token:   token,
		apiBase: apiBase,
		gqlURL:  gqlURL,
	}
}

type ghRef struct {
	Ref string `json:"ref"`
}

type ghPull struct {
	Number    int     `json:"number"`
	NodeID    string  `json:"node_id"`
	HTMLURL   string  `json:"html_url"`
	State     string  `json:"state"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Draft     bool    `json:"draft"`
	MergedAt  *string `json:"merged_at"`
	Mergeable *bool   `json:"mergeable"`
	Head      ghRef   `json:"head"`
	Base      ghRef   `json:"base"`
}

func (p ghPull) toPullRequest() *model.PullRequest {
	return &model.PullRequest{
		Number:  p.Number,
		HTMLURL: p.HTMLURL,
		BaseRef: p.Base.Ref,
		HeadRef: p.Head.Ref,
		Title:   p.Title,
		NodeID:  p.NodeID,
		IsDraft: p.Draft,
	}
}

func (p ghPull) toDetails() *model.PullRequestDetails {
	state := model.PrStateClosed
	switch {
	case p.State == "open":
		state = model.PrStateOpen
	case p.MergedAt != nil:
		state = model.PrStateMerged
	}
	return &model.PullRequestDetails{
		Number:    p.Number,
		Title:     p.Title,
		Body:      p.Body,
		State:     state,
		IsDraft:   p.Draft,
		Mergeable: p.Mergeable,
		HeadRef:   p.Head.Ref,
		BaseRef:   p.Base.Ref,
		HTMLURL:   p.HTMLURL,
	}
}

func (s *GitHubService) FindExistingPR(ctx context.Context, headBranch string) (*model.PullRequest, error) {
	logs.Debug("github: finding existing PR for %s", headBranch)
	query := url.Values{
		"head":  {s.config.Owner + ":" + headBranch},
		"state": {"open"},
	}
	var pulls []ghPull
	if err := s.api(ctx, http.MethodGet, s.repoURL("/pulls")+"?"+query.Encode(), nil, &pulls); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	if len(pulls) == 0 {
		return nil, nil
	}
	return pulls[0].toPullRequest(), nil
}

func (s *GitHubService) CreatePR(ctx context.Context, head, base, title, body string, draft bool) (*model.PullRequest, error) {
	logs.Debug("github: creating PR %s -> %s (draft=%v)", head, base, draft)
	payload := struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Base  string `json:"base"`
		Body  string `json:"body,omitempty"`
		Draft bool   `json:"draft"`
	}{Title: title, Head: head, Base: base, Body: body, Draft: draft}

	var pull ghPull
	if err := s.api(ctx, http.MethodPost, s.repoURL("/pulls"), payload, &pull); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	return pull.toPullRequest(), nil
}

func (s *GitHubService) UpdatePRBase(ctx context.Context, number int, newBase string) (*model.PullRequest, error) {
	logs.Debug("github: updating PR #%d base to %s", number, newBase)
	payload := struct {
		Base string `json:"base"`
	}{Base: newBase}

	var pull ghPull
	if err := s.api(ctx, http.MethodPatch, s.repoURL(fmt.Sprintf("/pulls/%d", number)), payload, &pull); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	return pull.toPullRequest(), nil
}

const markReadyQuery = `
mutation MarkPullRequestReadyForReview($pullRequestId: ID!) {
    markPullRequestReadyForReview(input: { pullRequestId: $pullRequestId }) {
        pullRequest {
            number
            url
            baseRefName
            headRefName
            title
            id
            isDraft
        }
    }
}`

func (s *GitHubService) PublishPR(ctx context.Context, number int) (*model.PullRequest, error) {
	logs.Debug("github: publishing PR #%d", number)

	// The mutation needs the PR's GraphQL node id.
	var pull ghPull
	if err := s.api(ctx, http.MethodGet, s.repoURL(fmt.Sprintf("/pulls/%d", number)), nil, &pull); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	if pull.NodeID == "" {
		return nil, &model.GitHubAPIError{Message: "PR missing node_id for GraphQL mutation"}
	}

	request := struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}{Query: markReadyQuery, Variables: map[string]any{"pullRequestId": pull.NodeID}}

	var response struct {
		Data *struct {
			MarkPullRequestReadyForReview struct {
				PullRequest struct {
					Number      int    `json:"number"`
					URL         string `json:"url"`
					BaseRefName string `json:"baseRefName"`
					HeadRefName string `json:"headRefName"`
					Title       string `json:"title"`
					ID          string `json:"id"`
					IsDraft     bool   `json:"isDraft"`
				} `json:"pullRequest"`
			} `json:"markPullRequestReadyForReview"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := s.api(ctx, http.MethodPost, s.gqlURL, request, &response); err != nil {
		return nil, &model.GitHubAPIError{Message: "GraphQL mutation failed: " + err.Error()}
	}
	if len(response.Errors) > 0 {
		messages := make([]string, len(response.Errors))
		for i, e := range response.Errors {
			messages[i] = e.Message
		}
		return nil, &model.GitHubAPIError{Message: "GraphQL error: " + strings.Join(messages, ", ")}
	}
	if response.Data == nil {
		return nil, &model.GitHubAPIError{Message: "No data in GraphQL response"}
	}

	pr := response.Data.MarkPullRequestReadyForReview.PullRequest
	return &model.PullRequest{
		Number:  pr.Number,
		HTMLURL: pr.URL,
		BaseRef: pr.BaseRefName,
		HeadRef: pr.HeadRefName,
		Title:   pr.Title,
		NodeID:  pr.ID,
		IsDraft: pr.IsDraft,
	}, nil
}

func (s *GitHubService) ListPRComments(ctx context.Context, number int) ([]model.PrComment, error) {
	logs.Debug("github: listing comments on PR #%d", number)
	var raw []struct {
		ID   int    `json:"id"`
		Body string `json:"body"`
	}
	if err := s.api(ctx, http.MethodGet, s.repoURL(fmt.Sprintf("/issues/%d/comments", number)), nil, &raw); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	comments := make([]model.PrComment, len(raw))
	for i, c := range raw {
		comments[i] = model.PrComment{ID: c.ID, Body: c.Body}
	}
	return comments, nil
}

func (s *GitHubService) CreatePRComment(ctx context.Context, number int, body string) error {
	logs.Debug("github: creating comment on PR #%d", number)
	payload := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := s.api(ctx, http.MethodPost, s.repoURL(fmt.Sprintf("/issues/%d/comments", number)), payload, nil); err != nil {
		return &model.GitHubAPIError{Message: err.Error()}
	}
	return nil
}

func (s *GitHubService) UpdatePRComment(ctx context.Context, number, commentID int, body string) error {
	logs.Debug("github: updating comment %d on PR #%d", commentID, number)
	payload := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := s.api(ctx, http.MethodPatch, s.repoURL(fmt.Sprintf("/issues/comments/%d", commentID)), payload, nil); err != nil {
		return &model.GitHubAPIError{Message: err.Error()}
	}
	return nil
}

func (s *GitHubService) Config() model.PlatformConfig {
	return s.config
}

func (s *GitHubService) GetPRDetails(ctx context.Context, number int) (*model.PullRequestDetails, error) {
	logs.Debug("github: getting PR #%d details", number)
	var pull ghPull
	if err := s.api(ctx, http.MethodGet, s.repoURL(fmt.Sprintf("/pulls/%d", number)), nil, &pull); err != nil {
		return nil, &model.GitHubAPIError{Message: err.Error()}
	}
	return pull.toDetails(), nil
}

func (s *GitHubService) CheckMergeReadiness(ctx context.Context, number int) (model.MergeReadiness, error) {
	logs.Debug("github: checking merge readiness of PR #%d", number)

	details, err := s.GetPRDetails(ctx, number)
	if err != nil {
		return model.MergeReadiness{}, err
	}

	var reviews []struct {
		State string `json:"state"`
	}
	if err := s.api(ctx, http.MethodGet, s.repoURL(fmt.Sprintf("/pulls/%d/reviews", number)), nil, &reviews); err != nil {
		return model.MergeReadiness{}, &model.GitHubAPIError{Message: err.Error()}
	}
	approved := false
	for _, r := range reviews {
		if r.State == "APPROVED" {
			approved = true
			break
		}
	}

	ciPassed, err := s.checkCIStatus(ctx, details.HeadRef)
	if err != nil {
		// If we can't check, assume passing.
		logs.Debug("github: CI status check failed, assuming passing: %v", err)
		ciPassed = true
	}

	return EvaluateReadiness(ReadinessInput{
		Details:       details,
		Approved:      approved,
		CIPassed:      ciPassed,
		DraftReason:   "PR is a draft",
		UnknownReason: "Merge status unknown (still computing)",
	}), nil
}

func (s *GitHubService) MergePR(ctx context.Context, number int, method model.MergeMethod) (model.MergeResult, error) {
	logs.Debug("github: merging PR #%d via %s", number, method)

	// Squash merges reuse the PR title and body as the commit message.
	details, err := s.GetPRDetails(ctx, number)
	if err != nil {
		return model.MergeResult{}, err
	}

	payload := struct {
		MergeMethod   string `json:"merge_method"`
		CommitTitle   string `json:"commit_title,omitempty"`
		CommitMessage string `json:"commit_message,omitempty"`
	}{MergeMethod: string(method)}
	if method == model.MergeMethodSquash {
		payload.CommitTitle = fmt.Sprintf("%s (#%d)", details.Title, number)
		payload.CommitMessage = details.Body
	}

	var response struct {
		Merged  bool   `json:"merged"`
		SHA     string `json:"sha"`
		Message string `json:"message"`
	}
	if err := s.api(ctx, http.MethodPut, s.repoURL(fmt.Sprintf("/pulls/%d/merge", number)), payload, &response); err != nil {
		return model.MergeResult{}, &model.GitHubAPIError{Message: "Merge failed: " + err.Error()}
	}
	return model.MergeResult{Merged: response.Merged, SHA: response.SHA, Message: response.Message}, nil
}

// checkCIStatus consults both of GitHub's CI systems: legacy commit statuses
// and check runs (GitHub Actions). CI passes only when both pass or are not
// configured.
func (s *GitHubService) checkCIStatus(ctx context.Context, refName string) (bool, error) {
	statusesPassed, err := s.checkCommitStatuses(ctx, refName)
	if err != nil {
		return false, err
	}
	checkRunsPassed, err := s.checkCheckRuns(ctx, refName)
	if err != nil {
		return false, err
	}
	return statusesPassed && checkRunsPassed, nil
}

func (s *GitHubService) checkCommitStatuses(ctx context.Context, refName string) (bool, error) {
	var status struct {
		State      string `json:"state"`
		TotalCount int    `json:"total_count"`
	}
	err := s.api(ctx, http.MethodGet, s.repoURL("/commits/"+url.PathEscape(refName)+"/status"), nil, &status)
	if err != nil {
		var httpErr *apiError
		if errors.As(err, &httpErr) {
			logs.Debug("github: commit status returned HTTP %d, assuming no statuses configured", httpErr.Status)
			return true, nil
		}
		return false, err
	}
	// No statuses configured counts as passing.
	if status.TotalCount == 0 {
		return true, nil
	}
	return status.State == "success", nil
}

func (s *GitHubService) checkCheckRuns(ctx context.Context, refName string) (bool, error) {
	var runs struct {
		TotalCount int `json:"total_count"`
		CheckRuns  []struct {
			Status     string  `json:"status"`
			Conclusion *string `json:"conclusion"`
		} `json:"check_runs"`
	}
	err := s.api(ctx, http.MethodGet, s.repoURL("/commits/"+url.PathEscape(refName)+"/check-runs"), nil, &runs)
	if err != nil {
		var httpErr *apiError
		if errors.As(err, &httpErr) {
			logs.Debug("github: check runs returned HTTP %d, assuming no checks configured", httpErr.Status)
			return true, nil
		}
		return false, err
	}
	if runs.TotalCount == 0 {
		return true, nil
	}
	for _, run := range runs.CheckRuns {
		if run.Status != "completed" {
			return false, nil
		}
		if run.Conclusion == nil {
			return false, nil
		}
		switch *run.Conclusion {
		case "success", "neutral", "skipped":
		default:
			return false, nil
		}
	}
	return true, nil
}

func (s *GitHubService) repoURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", s.apiBase, s.config.Owner, s.config.Repo, path)
}

func (s *GitHubService) api(ctx context.Context, method, rawURL string, payload, out any) error {
	req, err := newJSONRequest(ctx, method, rawURL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return doJSON(req, s.client, out)
}
