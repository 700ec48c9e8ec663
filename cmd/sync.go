package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/locks"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/store"
	"github.com/canadaduane/jj-ryu/internal/submit"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newSyncCmd() *cobra.Command {
	var (
		dryRun   bool
		confirm  bool
		all      bool
		draft    bool
		remote   string
		bookmark string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push the stack and create or update its PRs.",
		Long: `Sync fetches from the remote, pushes out-of-date bookmarks, creates PRs
for bookmarks that have none, retargets PRs whose base drifted, and
refreshes the stack navigation comments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cctx, err := newCommandContext(ctx, remote)
			if err != nil {
				return err
			}

			tracked := cctx.trackedNames()
			if len(tracked) == 0 && !all {
				return &model.TrackingError{
					Message: "No bookmarks tracked. Run 'ryu track' first, or use 'ryu sync --all' to sync all bookmarks.",
				}
			}

			if !dryRun {
				lock, err := locks.LockRepo(store.RyuDir(cctx.root))
				if err != nil {
					return err
				}
				defer lock.Unlock()

				stop := ui.StartSpinner(os.Stdout, fmt.Sprintf("Fetching from %s...", ui.Emphasis(cctx.remoteName)))
				err = cctx.ws.GitFetch(ctx, cctx.remoteName)
				stop(err == nil)
				if err != nil {
					return err
				}
			}

			g, err := cctx.buildGraph(ctx)
			if err != nil {
				return err
			}
			if g.Stack == nil {
				fmt.Println(ui.Muted("No stack to sync"))
				fmt.Println(ui.Muted("Create bookmarks between trunk and working copy first."))
				return nil
			}

			analysis, err := submit.Analyze(g, bookmark)
			if err != nil {
				return err
			}
			if !all && len(tracked) > 0 {
				analysis.FilterTracked(tracked)
				if len(analysis.Segments) == 0 {
					return &model.TrackingError{
						Message: "No tracked bookmarks in stack. Use 'ryu track' to track bookmarks, or 'ryu sync --all'.",
					}
				}
			}

			plan, err := submit.CreatePlan(ctx, analysis, cctx.svc, cctx.remoteName, cctx.defaultBranch)
			if err != nil {
				return err
			}

			if dryRun {
				printSyncPlan(plan)
				fmt.Println(ui.Muted("Dry run complete"))
				return nil
			}

			if confirm {
				printSyncPlan(plan)
				ok, err := ui.Confirm(os.Stdin, os.Stdout, "Proceed with sync?", true)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(ui.Muted("Aborted"))
					return nil
				}
				fmt.Println()
			}

			fmt.Printf("%s %s\n", ui.Emphasis("Syncing stack:"), ui.Accent(analysis.TargetBookmark))

			exec := submit.NewExecutor(cctx.ws, cctx.svc, &cctx.prCache, cliProgress{})
			exec.Draft = draft || cctx.cfg.DraftByDefault()
			result, err := exec.Execute(ctx, plan)
			if err != nil {
				return err
			}

			fmt.Println()
			fmt.Printf("%s %d pushed, %d created, %d updated\n",
				ui.Success("✓ Sync complete:"),
				len(result.PushedBookmarks), len(result.CreatedPRs), len(result.UpdatedPRs))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without touching the remote")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Preview the plan and ask before executing")
	cmd.Flags().BoolVar(&all, "all", false, "Sync every bookmark in the stack, tracked or not")
	cmd.Flags().BoolVar(&draft, "draft", false, "Create new PRs as drafts")
	cmd.Flags().StringVar(&remote, "remote", "", "Remote to sync with (default: configured or sole remote)")
	cmd.Flags().StringVar(&bookmark, "bookmark", "", "Sync only up to this bookmark")

	return cmd
}

func printSyncPlan(plan *submit.Plan) {
	fmt.Printf("%s:\n", ui.Emphasis("Sync plan"))
	fmt.Println()

	if len(plan.Steps) == 0 {
		fmt.Printf("  %s\n", ui.Muted("Already in sync"))
		fmt.Println()
		return
	}

	fmt.Printf("  %s:\n", ui.Emphasis("Steps"))
	for _, step := range plan.Steps {
		fmt.Printf("    %s %s\n", ui.Accent("→"), step)
	}
	fmt.Println()
}
