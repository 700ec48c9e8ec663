// Package store persists ryu metadata under the repo's .jj/repo/ryu/ directory.
package store

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	ryuDirName       = "ryu"
	trackingFileName = "tracked.yaml"
	prCacheFileName  = "pr-cache.yaml"
)

// ResolveRepoPath returns the .jj/repo path for a workspace, following jj's
// workspace indirection. In workspaces created via `jj workspace add`,
// .jj/repo is a plain text file containing the absolute path to the parent
// workspace's repo directory; we read it and use its contents instead.
// An unreadable or dangling pointer file is returned as-is so the caller
// surfaces the underlying error.
func ResolveRepoPath(workspaceRoot string) string {
	repoPath := filepath.Join(workspaceRoot, ".jj", "repo")

	info, err := os.Stat(repoPath)
	if err != nil || info.IsDir() {
		return repoPath
	}

	contents, err := os.ReadFile(repoPath)
	if err != nil {
		return repoPath
	}
	target := strings.TrimSpace(string(contents))
	if target == "" {
		return repoPath
	}
	if info, err := os.Stat(target); err != nil || !info.IsDir() {
		return repoPath
	}
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		return resolved
	}
	return target
}

// RyuDir returns the ryu metadata directory for a workspace.
func RyuDir(workspaceRoot string) string {
	return filepath.Join(ResolveRepoPath(workspaceRoot), ryuDirName)
}

// TrackingPath returns the path of the tracking state file.
func TrackingPath(workspaceRoot string) string {
	return filepath.Join(RyuDir(workspaceRoot), trackingFileName)
}

// PrCachePath returns the path of the PR cache file.
func PrCachePath(workspaceRoot string) string {
	return filepath.Join(RyuDir(workspaceRoot), prCacheFileName)
}
