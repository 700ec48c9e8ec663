package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/graph"
	"github.com/canadaduane/jj-ryu/internal/jj"
	"github.com/canadaduane/jj-ryu/internal/locks"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/store"
	"github.com/canadaduane/jj-ryu/internal/submit"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newTrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track [BOOKMARK...]",
		Short: "Start managing bookmarks with ryu.",
		Long: `Track marks bookmarks as managed: sync and merge only operate on tracked
bookmarks. Without arguments every bookmark in the current stack is
tracked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ws, err := jj.Open(ctx, repoPath)
			if err != nil {
				return err
			}
			lock, err := locks.LockRepo(store.RyuDir(ws.Root()))
			if err != nil {
				return err
			}
			defer lock.Unlock()

			tracking, err := store.LoadTracking(ws.Root())
			if err != nil {
				return err
			}

			g, err := buildWorkspaceGraph(ctx, ws)
			if err != nil {
				return err
			}

			var targets []model.Bookmark
			if len(args) == 0 {
				targets, err = stackBookmarks(g)
				if err != nil {
					return err
				}
				if len(targets) == 0 {
					fmt.Println(ui.Muted("No bookmarks to track"))
					fmt.Println(ui.Muted("Create bookmarks between trunk and working copy first."))
					return nil
				}
			} else {
				for _, name := range args {
					b, ok := g.Bookmarks[name]
					if !ok {
						return &model.BookmarkNotFoundError{Name: name}
					}
					targets = append(targets, b)
				}
			}

			added := 0
			for _, b := range targets {
				if tracking.IsTracked(b.Name) {
					fmt.Printf("  %s\n", ui.Muted("Already tracking "+b.Name))
					continue
				}
				tracking.Track(store.NewTrackedBookmark(b.Name, b.ChangeID))
				fmt.Printf("  %s Tracking %s\n", ui.Success("✓"), ui.Accent(b.Name))
				added++
			}
			if added > 0 {
				if err := store.SaveTracking(ws.Root(), tracking); err != nil {
					return err
				}
			}

			fmt.Println()
			fmt.Printf("%d bookmark(s) tracked\n", len(tracking.Bookmarks))
			return nil
		},
	}
}

func newUntrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack [BOOKMARK...]",
		Short: "Stop managing bookmarks with ryu.",
		Long: `Untrack removes bookmarks from ryu's management. Without arguments every
bookmark in the current stack is untracked. Bookmarks and PRs
themselves are left alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ws, err := jj.Open(ctx, repoPath)
			if err != nil {
				return err
			}
			lock, err := locks.LockRepo(store.RyuDir(ws.Root()))
			if err != nil {
				return err
			}
			defer lock.Unlock()

			tracking, err := store.LoadTracking(ws.Root())
			if err != nil {
				return err
			}

			// Explicit names are taken as-is so stale entries whose bookmarks
			// are already gone from the repo can still be untracked.
			names := args
			if len(names) == 0 {
				g, err := buildWorkspaceGraph(ctx, ws)
				if err != nil {
					return err
				}
				bookmarks, err := stackBookmarks(g)
				if err != nil {
					return err
				}
				for _, b := range bookmarks {
					names = append(names, b.Name)
				}
			}

			removed := 0
			for _, name := range names {
				if tracking.Untrack(name) {
					fmt.Printf("  %s Untracked %s\n", ui.Success("✓"), ui.Accent(name))
					removed++
				} else {
					fmt.Printf("  %s\n", ui.Muted(name+" was not tracked"))
				}
			}
			if removed > 0 {
				if err := store.SaveTracking(ws.Root(), tracking); err != nil {
					return err
				}
			}

			fmt.Println()
			fmt.Printf("%d bookmark(s) tracked\n", len(tracking.Bookmarks))
			return nil
		},
	}
}

func buildWorkspaceGraph(ctx context.Context, ws *jj.Workspace) (*model.ChangeGraph, error) {
	entries, err := ws.Log(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Build(entries), nil
}

// stackBookmarks returns the current stack's bookmarks trunk-first, one per
// segment, or nothing when there is no stack.
func stackBookmarks(g *model.ChangeGraph) ([]model.Bookmark, error) {
	if g.Stack == nil {
		return nil, nil
	}
	analysis, err := submit.Analyze(g, "")
	if err != nil {
		return nil, err
	}
	bookmarks := make([]model.Bookmark, 0, len(analysis.Segments))
	for _, seg := range analysis.Segments {
		bookmarks = append(bookmarks, seg.Bookmark)
	}
	return bookmarks, nil
}
