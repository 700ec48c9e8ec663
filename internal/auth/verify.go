package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/model"
)

const verifyTimeout = 10 * time.Second

// Verify checks the token against the platform's user endpoint and returns
// the authenticated login name.
func Verify(ctx context.Context, cfg model.PlatformConfig, token string) (string, error) {
	if cfg.Kind == model.PlatformGitLab {
		return verifyGitLab(ctx, cfg.Host, token)
	}
	return verifyGitHub(ctx, cfg.Host, token)
}

func verifyGitHub(ctx context.Context, host, token string) (string, error) {
	url := "https://api.github.com/user"
	if host != "" {
		url = fmt.Sprintf("https://%s/api/v3/user", host)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	var user struct {
		Login string `json:"login"`
	}
	if err := fetchUser(req, &user); err != nil {
		return "", &model.GitHubAPIError{Message: err.Error()}
	}
	return user.Login, nil
}

func verifyGitLab(ctx context.Context, host, token string) (string, error) {
	if host == "" {
		host = "gitlab.com"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("https://%s/api/v4/user", host), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("PRIVATE-TOKEN", token)

	var user struct {
		Username string `json:"username"`
	}
	if err := fetchUser(req, &user); err != nil {
		return "", &model.GitLabAPIError{Message: err.Error()}
	}
	return user.Username, nil
}

func fetchUser(req *http.Request, out any) error {
	req.Header.Set("User-Agent", "jj-ryu")
	client := &http.Client{Timeout: verifyTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, out)
}
