package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/locks"
	"github.com/canadaduane/jj-ryu/internal/merge"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/store"
	"github.com/canadaduane/jj-ryu/internal/submit"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newMergeCmd() *cobra.Command {
	var (
		dryRun   bool
		confirm  bool
		remote   string
		bookmark string
	)

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge ready PRs bottom-up and land the stack on trunk.",
		Long: `Merge walks the stack from trunk upward: each approved, green PR is
merged, the next one is retargeted onto trunk first, and the first
blocked PR stops the run. Afterwards the remaining stack is rebased
onto the new trunk and its PRs are updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cctx, err := newCommandContext(ctx, remote)
			if err != nil {
				return err
			}

			if !cctx.hasTrackedBookmarks() {
				return &model.TrackingError{Message: "No bookmarks tracked. Run 'ryu track' first."}
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

			// PR info is only fetched for tracked bookmarks, but the plan is
			// built over the full analysis: untracked segments simply have no
			// PR info and are passed over.
			tracked := cctx.trackedNames()
			filtered := &submit.Analysis{
				TargetBookmark: analysis.TargetBookmark,
				Segments:       append([]model.Segment(nil), analysis.Segments...),
			}
			filtered.FilterTracked(tracked)
			if len(filtered.Segments) == 0 {
				fmt.Println(ui.Muted("No tracked bookmarks in stack."))
				return nil
			}

			fmt.Println(ui.Muted(fmt.Sprintf("Checking %d tracked bookmark(s)...", len(filtered.Segments))))
			info, err := merge.GatherPrInfo(ctx, filtered, cctx.svc)
			if err != nil {
				return err
			}
			if len(info) == 0 {
				fmt.Println(ui.Muted("No PRs found for tracked bookmarks."))
				return nil
			}

			opts := merge.PlanOptions{
				TargetBookmark: bookmark,
				Method:         model.MergeMethod(cctx.cfg.MergeMethod()),
			}
			plan := merge.BuildPlan(analysis, info, opts, cctx.defaultBranch)

			if dryRun {
				printMergeDryRun(plan)
				return nil
			}

			if plan.IsEmpty() {
				fmt.Println(ui.Muted("No PRs are ready to merge."))
				printBlockingSummary(plan)
				return nil
			}

			if confirm {
				printMergeDryRun(plan)
				ok, err := ui.Confirm(os.Stdin, os.Stdout, "Proceed with merge?", true)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(ui.Muted("Aborted"))
					return nil
				}
				fmt.Println()
			}

			lock, err := locks.LockRepo(store.RyuDir(cctx.root))
			if err != nil {
				return err
			}
			defer lock.Unlock()

			fmt.Printf("%s %s\n", ui.Emphasis("Merging"), ui.Accent(fmt.Sprintf("%d PR(s)...", plan.MergeCount())))
			result := merge.Execute(ctx, plan, cctx.svc, cliProgress{})

			if !result.BottomMerged() {
				printMergeSummary(result)
				return nil
			}

			// Trunk moved. Clean up landed bookmarks, then bring the rest of
			// the stack up to date.
			for _, name := range result.MergedBookmarks {
				cctx.prCache.Remove(name)
				cctx.tracking.Untrack(name)
				// The bookmark may already be gone after the remote delete.
				_ = cctx.ws.DeleteBookmark(ctx, name)
			}
			if err := store.SavePrCache(cctx.root, cctx.prCache); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Failed to save PR cache: %v", err)))
				fmt.Println(ui.Muted("   Run 'ryu sync' to rebuild."))
			}
			if err := store.SaveTracking(cctx.root, cctx.tracking); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Failed to save tracking state: %v", err)))
			}

			return postMergeSync(ctx, cctx, plan, result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be merged without touching the remote")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Preview the plan and ask before executing")
	cmd.Flags().StringVar(&remote, "remote", "", "Remote to merge against (default: configured or sole remote)")
	cmd.Flags().StringVar(&bookmark, "bookmark", "", "Merge only up to this bookmark")

	return cmd
}

// postMergeSync runs after the bottom of the stack landed: fetch the new
// trunk and rebase what is left onto it, then update the surviving PRs.
// Rebase and re-submission failures are reported but do not fail the merge.
func postMergeSync(ctx context.Context, cctx *commandContext, plan *merge.Plan, result *merge.ExecutionResult) error {
	stop := ui.StartSpinner(os.Stdout, fmt.Sprintf("Fetching from %s...", ui.Emphasis(cctx.remoteName)))
	err := cctx.ws.GitFetch(ctx, cctx.remoteName)
	stop(err == nil)
	if err != nil {
		return err
	}

	if plan.RebaseTarget != "" {
		fmt.Printf("Rebasing %s onto trunk...\n", ui.Accent(plan.RebaseTarget))
		if err := cctx.ws.RebaseOntoTrunk(ctx, plan.RebaseTarget); err != nil {
			fmt.Println(ui.Warn(fmt.Sprintf("Rebase failed: %v", err)))
			fmt.Println(ui.Muted("   Run 'jj rebase' manually to fix."))
		} else if err := updateRemainingPRs(ctx, cctx); err != nil {
			return err
		}
	}

	printMergeSummary(result)
	return nil
}

// updateRemainingPRs re-analyzes the rebased stack and re-runs submission so
// the surviving PRs point at the new trunk.
func updateRemainingPRs(ctx context.Context, cctx *commandContext) error {
	fmt.Println("Updating remaining PRs...")

	g, err := cctx.buildGraph(ctx)
	if err != nil {
		return err
	}
	analysis, err := submit.Analyze(g, "")
	if err != nil {
		return err
	}
	analysis.FilterTracked(cctx.trackedNames())
	if len(analysis.Segments) == 0 {
		return nil
	}

	plan, err := submit.CreatePlan(ctx, analysis, cctx.svc, cctx.remoteName, cctx.defaultBranch)
	if err != nil {
		return err
	}
	exec := submit.NewExecutor(cctx.ws, cctx.svc, &cctx.prCache, cliProgress{})
	if _, err := exec.Execute(ctx, plan); err != nil {
		fmt.Println(ui.Warn(fmt.Sprintf("Failed to update remaining PRs: %v", err)))
		fmt.Println(ui.Muted("   Run 'ryu sync' to complete the update."))
	}
	return nil
}

func printMergeSummary(result *merge.ExecutionResult) {
	fmt.Println()
	if result.IsSuccess() {
		fmt.Printf("%s Merge complete!\n", ui.Success("✓"))
	} else {
		fmt.Printf("%s Merge partially complete\n", ui.Warn("⚠"))
	}

	if len(result.MergedBookmarks) > 0 {
		fmt.Printf("   Merged: %s\n", ui.Accent(strings.Join(result.MergedBookmarks, ", ")))
	}

	if result.FailedBookmark != "" {
		if result.WasUncertain {
			fmt.Printf("   %s %s (merge status was uncertain)\n", ui.Warn("Failed:"), ui.Warn(result.FailedBookmark))
		} else {
			fmt.Printf("   %s %s\n", ui.Warn("Failed:"), ui.Warn(result.FailedBookmark))
		}
		if result.ErrorMessage != "" {
			fmt.Printf("          %s\n", ui.Muted(result.ErrorMessage))
		}
	}
}

func printMergeDryRun(plan *merge.Plan) {
	fmt.Printf("%s:\n", ui.Emphasis("Merge plan"))
	fmt.Println()

	if len(plan.Steps) == 0 {
		fmt.Printf("  %s\n", ui.Muted("No PRs to process"))
		fmt.Println()
		return
	}

	for _, step := range plan.Steps {
		switch step.Kind {
		case merge.StepMerge:
			if step.Confidence.Uncertain {
				fmt.Printf("  %s PR #%d: %s\n", ui.Warn("? Would attempt"), step.PrNumber, step.PrTitle)
				fmt.Printf("    ⚠ %s\n", ui.Muted(step.Confidence.Reason))
			} else {
				fmt.Printf("  %s PR #%d: %s\n", ui.Success("✓ Would merge"), step.PrNumber, step.PrTitle)
			}
			fmt.Printf("    Bookmark: %s\n", ui.Accent(step.Bookmark))
		case merge.StepRetargetBase:
			fmt.Printf("  %s PR #%d (%s): %s → %s\n", ui.Accent("↪ Would retarget"),
				step.PrNumber, step.Bookmark, ui.Muted(step.OldBase), ui.Accent(step.NewBase))
		case merge.StepSkip:
			fmt.Printf("  %s PR #%d (%s)\n", ui.Warn("✗ Would skip"), step.PrNumber, step.Bookmark)
			for _, reason := range step.Reasons {
				fmt.Printf("    - %s\n", ui.Muted(reason))
			}
		}
	}

	fmt.Println()
	if plan.HasActionable {
		fmt.Println(ui.Muted("Run without --dry-run to execute."))
	} else {
		fmt.Println(ui.Muted("No PRs are ready to merge."))
	}
}

func printBlockingSummary(plan *merge.Plan) {
	for _, step := range plan.Steps {
		if step.Kind != merge.StepSkip {
			continue
		}
		fmt.Printf("  PR #%d (%s):\n", step.PrNumber, ui.Accent(step.Bookmark))
		for _, reason := range step.Reasons {
			fmt.Printf("    - %s\n", ui.Muted(reason))
		}
	}
}
