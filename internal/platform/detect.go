package platform

import (
	"os"
	"strings"

	"github.com/canadaduane/jj-ryu/internal/model"
)

// Environment variables naming self-hosted instances.
const (
	envGitHubHost = "RYU_GITHUB_HOST"
	envGitLabHost = "RYU_GITLAB_HOST"
)

// DetectPlatform reports which platform a remote URL belongs to.
func DetectPlatform(remoteURL string) (model.PlatformKind, bool) {
	host, _, ok := splitRemoteURL(remoteURL)
	if !ok {
		return "", false
	}
	kind, _, ok := platformForHost(host)
	return kind, ok
}

// ParseRepoInfo extracts the platform, owner and repo from a remote URL.
// Handles https and scp-style ssh URLs, trailing slashes, a ".git" suffix,
// and GitLab's nested groups (the owner may contain slashes).
func ParseRepoInfo(remoteURL string) (model.PlatformConfig, error) {
	host, path, ok := splitRemoteURL(remoteURL)
	if !ok {
		return model.PlatformConfig{}, model.ErrNoSupportedRemotes
	}
	kind, customHost, ok := platformForHost(host)
	if !ok {
		return model.PlatformConfig{}, model.ErrNoSupportedRemotes
	}

	path = strings.TrimSuffix(path, ".git")
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return model.PlatformConfig{}, model.ErrNoSupportedRemotes
	}

	return model.PlatformConfig{
		Kind:  kind,
		Owner: strings.Join(parts[:len(parts)-1], "/"),
		Repo:  parts[len(parts)-1],
		Host:  customHost,
	}, nil
}

// splitRemoteURL splits a remote URL into host and repo path.
func splitRemoteURL(raw string) (host, path string, ok bool) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")

	for _, scheme := range []string{"https://", "http://"} {
		if rest, found := strings.CutPrefix(raw, scheme); found {
			host, path, ok = strings.Cut(rest, "/")
			return host, path, ok && host != ""
		}
	}

	// scp-style ssh: git@host:owner/repo
	if !strings.Contains(raw, "://") {
		if _, rest, found := strings.Cut(raw, "@"); found {
			host, path, ok = strings.Cut(rest, ":")
			return host, path, ok && host != ""
		}
	}
	return "", "", false
}

func platformForHost(host string) (kind model.PlatformKind, customHost string, ok bool) {
	switch host {
	case "github.com":
		return model.PlatformGitHub, "", true
	case "gitlab.com":
		return model.PlatformGitLab, "", true
	}
	if custom := os.Getenv(envGitHubHost); custom != "" && host == custom {
		return model.PlatformGitHub, host, true
	}
	if custom := os.Getenv(envGitLabHost); custom != "" && host == custom {
		return model.PlatformGitLab, host, true
	}
	return "", "", false
}
