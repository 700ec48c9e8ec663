package model

import (
	"errors"
	"fmt"
)

// ErrNoSupportedRemotes means no remote URL could be matched to a supported platform.
var ErrNoSupportedRemotes = errors.New("no supported remotes found (GitHub or GitLab required)")

// BookmarkNotFoundError reports a bookmark absent from the current stack.
type BookmarkNotFoundError struct {
	Name string
}

func (e *BookmarkNotFoundError) Error() string {
	return fmt.Sprintf("bookmark %q not found in stack", e.Name)
}

// RemoteNotFoundError reports a requested remote that is not configured.
type RemoteNotFoundError struct {
	Name string
}

func (e *RemoteNotFoundError) Error() string {
	return fmt.Sprintf("remote %q not found", e.Name)
}

// PlatformError is a failure reported by the PR platform API.
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}

// GitHubAPIError is a failure from the GitHub API.
type GitHubAPIError struct {
	Message string
}

func (e *GitHubAPIError) Error() string {
	return "GitHub API error: " + e.Message
}

// GitLabAPIError is a failure from the GitLab API.
type GitLabAPIError struct {
	Message string
}

func (e *GitLabAPIError) Error() string {
	return "GitLab API error: " + e.Message
}

// TrackingError reports a problem with ryu's tracking state.
type TrackingError struct {
	Message string
}

func (e *TrackingError) Error() string {
	return e.Message
}
