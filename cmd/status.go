package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/merge"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/submit"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stack, tracked bookmarks and their PRs.",
		Long: `Status lists the stack from trunk to leaf with each bookmark's tracking
state and PR. Tracked bookmarks are checked live for merge readiness;
untracked ones fall back to the cached PR state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cctx, err := newCommandContext(ctx, remote)
			if err != nil {
				return err
			}

			g, err := cctx.buildGraph(ctx)
			if err != nil {
				return err
			}
			if g.Stack == nil {
				fmt.Println(ui.Muted("No stack found between trunk and working copy."))
				return nil
			}

			analysis, err := submit.Analyze(g, "")
			if err != nil {
				return err
			}

			filtered := &submit.Analysis{
				TargetBookmark: analysis.TargetBookmark,
				Segments:       append([]model.Segment(nil), analysis.Segments...),
			}
			filtered.FilterTracked(cctx.trackedNames())

			info := map[string]merge.PrInfo{}
			if len(filtered.Segments) > 0 {
				info, err = merge.GatherPrInfo(ctx, filtered, cctx.svc)
				if err != nil {
					return err
				}
			}

			fmt.Printf("%s %s\n", ui.Emphasis("Stack on"), ui.Accent(cctx.defaultBranch))
			fmt.Println()

			withPR := 0
			for _, seg := range analysis.Segments {
				name := seg.Bookmark.Name

				line := fmt.Sprintf("  %s %s", ui.Accent("●"), ui.Emphasis(name))
				if pr, ok := info[name]; ok {
					withPR++
					line += fmt.Sprintf("  PR #%d: %s", pr.Details.Number, pr.Details.Title)
				} else if entry, ok := cctx.prCache.Get(name); ok {
					withPR++
					line += fmt.Sprintf("  PR #%d: %s", entry.Number, entry.Title)
				} else {
					line += "  " + ui.Muted("(no PR)")
				}
				if cctx.tracking.IsTracked(name) {
					line += "  " + ui.Success("[tracked]")
				} else {
					line += "  " + ui.Muted("[untracked]")
				}
				fmt.Println(line)

				if pr, ok := info[name]; ok {
					printReadiness(pr.Readiness)
				}
			}

			fmt.Println()
			fmt.Printf("%d bookmark(s) in stack, %d tracked, %d with PRs\n",
				len(analysis.Segments), len(filtered.Segments), withPR)
			if g.ExcludedBookmarkCount > 0 {
				fmt.Println(ui.Muted(fmt.Sprintf("%d bookmark(s) on merge commits excluded", g.ExcludedBookmarkCount)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Remote to check against (default: configured or sole remote)")
	return cmd
}

func printReadiness(r model.MergeReadiness) {
	if r.IsBlocked() {
		fmt.Printf("      %s %s\n", ui.Warn("✗"), ui.Muted("blocked: "+strings.Join(r.BlockingReasons, ", ")))
		return
	}
	if reason := r.Uncertainty(); reason != "" {
		fmt.Printf("      %s %s\n", ui.Warn("?"), ui.Muted(reason))
		return
	}
	fmt.Printf("      %s %s\n", ui.Success("✓"), ui.Muted("ready to merge"))
}
