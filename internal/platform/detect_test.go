package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canadaduane/jj-ryu/internal/model"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		name string
		url  string
		kind model.PlatformKind
		ok   bool
	}{
		{"github ssh", "git@github.com:owner/repo", model.PlatformGitHub, true},
		{"github https", "https://github.com/owner/repo", model.PlatformGitHub, true},
		{"gitlab https", "https://gitlab.com/owner/repo.git", model.PlatformGitLab, true},
		{"gitlab ssh nested", "git@gitlab.com:group/subgroup/repo.git", model.PlatformGitLab, true},
		{"bitbucket", "https://bitbucket.org/owner/repo", "", false},
		{"garbage", "not-a-valid-url", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := DetectPlatform(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestParseRepoInfo(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		kind  model.PlatformKind
		owner string
		repo  string
	}{
		{"github ssh without suffix", "git@github.com:owner/repo", model.PlatformGitHub, "owner", "repo"},
		{"github https", "https://github.com/owner/repo", model.PlatformGitHub, "owner", "repo"},
		{"github https with suffix", "https://github.com/owner/repo.git", model.PlatformGitHub, "owner", "repo"},
		{"github trailing slash", "https://github.com/owner/repo/", model.PlatformGitHub, "owner", "repo"},
		{"gitlab single level", "https://gitlab.com/owner/repo.git", model.PlatformGitLab, "owner", "repo"},
		{"gitlab nested groups", "https://gitlab.com/a/b/c/d/repo.git", model.PlatformGitLab, "a/b/c/d", "repo"},
		{"gitlab ssh subgroup", "git@gitlab.com:group/subgroup/repo.git", model.PlatformGitLab, "group/subgroup", "repo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseRepoInfo(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cfg.Kind)
			assert.Equal(t, tt.owner, cfg.Owner)
			assert.Equal(t, tt.repo, cfg.Repo)
			assert.Empty(t, cfg.Host)
		})
	}
}

func TestParseRepoInfo_UnsupportedRemotes(t *testing.T) {
	for _, url := range []string{
		"https://bitbucket.org/owner/repo",
		"not-a-valid-url",
		"https://github.com/owner",
		"https://github.com/",
	} {
		_, err := ParseRepoInfo(url)
		require.ErrorIs(t, err, model.ErrNoSupportedRemotes, "url %q", url)
	}
}

func TestParseRepoInfo_CustomHosts(t *testing.T) {
	t.Setenv(envGitHubHost, "github.example.com")
	t.Setenv(envGitLabHost, "gitlab.internal")

	cfg, err := ParseRepoInfo("git@github.example.com:owner/repo.git")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformGitHub, cfg.Kind)
	assert.Equal(t, "github.example.com", cfg.Host)

	cfg, err = ParseRepoInfo("https://gitlab.internal/group/repo")
	require.NoError(t, err)
	assert.Equal(t, model.PlatformGitLab, cfg.Kind)
	assert.Equal(t, "gitlab.internal", cfg.Host)

	// Unrelated custom hosts stay unsupported.
	_, err = ParseRepoInfo("https://git.elsewhere.dev/owner/repo")
	require.ErrorIs(t, err, model.ErrNoSupportedRemotes)
}
