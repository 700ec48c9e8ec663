// Package jj wraps the jj command line tool for the handful of operations ryu
// needs: reading the change graph and moving bookmarks around.
package jj

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// Workspace is an open jj workspace. All commands run from its root.
type Workspace struct {
	root string
}

// Open locates the jj workspace containing path.
func Open(ctx context.Context, path string) (*Workspace, error) {
	out, err := runIn(ctx, path, "workspace", "root")
	if err != nil {
		return nil, errors.Wrapf(err, "not inside a jj workspace: %s", path)
	}
	return &Workspace{root: strings.TrimSpace(out)}, nil
}

// Root returns the workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// GitFetch fetches from the named remote.
func (w *Workspace) GitFetch(ctx context.Context, remote string) error {
	_, err := w.run(ctx, "git", "fetch", "--remote", remote)
	return err
}

// GitPush pushes the given bookmarks to the remote, allowing new bookmarks.
func (w *Workspace) GitPush(ctx context.Context, remote string, bookmarks ...string) error {
	if len(bookmarks) == 0 {
		return nil
	}
	args := []string{"git", "push", "--remote", remote, "--allow-new"}
	for _, b := range bookmarks {
		args = append(args, "--bookmark", b)
	}
	_, err := w.run(ctx, args...)
	return err
}

// RebaseOntoTrunk rebases a bookmark (and its descendants) onto trunk().
func (w *Workspace) RebaseOntoTrunk(ctx context.Context, bookmark string) error {
	_, err := w.run(ctx, "rebase", "-b", bookmark, "-d", "trunk()")
	return err
}

// DeleteBookmark deletes a local bookmark.
func (w *Workspace) DeleteBookmark(ctx context.Context, name string) error {
	_, err := w.run(ctx, "bookmark", "delete", name)
	return err
}

// CreateBookmark creates a bookmark at the given revision.
func (w *Workspace) CreateBookmark(ctx context.Context, name, rev string) error {
	_, err := w.run(ctx, "bookmark", "create", name, "-r", rev)
	return err
}

// Remotes lists the configured git remotes.
func (w *Workspace) Remotes(ctx context.Context) ([]model.GitRemote, error) {
	out, err := w.run(ctx, "git", "remote", "list")
	if err != nil {
		return nil, err
	}
	return parseRemoteList(out), nil
}

// DefaultBranch resolves the trunk branch name. It asks jj for the remote
// bookmarks on trunk() first, then falls back to probing for main/master.
func (w *Workspace) DefaultBranch(ctx context.Context, remote string) (string, error) {
	out, err := w.run(ctx, "log", "-r", "trunk()", "--no-graph", "--limit", "1",
		"-T", `remote_bookmarks.join(" ")`)
	if err == nil {
		for _, ref := range strings.Fields(out) {
			name, refRemote, ok := strings.Cut(ref, "@")
			if ok && refRemote == remote {
				return stripConflictMarker(name), nil
			}
		}
	}
	for _, candidate := range []string{"main", "master"} {
		if _, err := w.run(ctx, "log", "-r", candidate, "--no-graph", "--limit", "1", "-T", "commit_id"); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New("could not determine default branch (no main or master bookmark)")
}

func (w *Workspace) run(ctx context.Context, args ...string) (string, error) {
	return runIn(ctx, w.root, args...)
}

func runIn(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "jj", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logs.Debug("running: jj %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return "", errors.Errorf("jj %s failed: %v\n%s",
			strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

func parseRemoteList(out string) []model.GitRemote {
	var remotes []model.GitRemote
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, url, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		remotes = append(remotes, model.GitRemote{Name: name, URL: strings.TrimSpace(url)})
	}
	return remotes
}
