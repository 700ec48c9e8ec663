package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/locks"
	"github.com/canadaduane/jj-ryu/internal/store"
	"github.com/canadaduane/jj-ryu/internal/submit"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newPublishCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "publish [BOOKMARK]",
		Short: "Mark a draft PR as ready for review.",
		Long: `Publish converts the bookmark's draft PR to ready for review. Without an
argument the top of the current stack is published.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cctx, err := newCommandContext(ctx, remote)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
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
				name = analysis.TargetBookmark
			}

			pr, err := cctx.svc.FindExistingPR(ctx, name)
			if err != nil {
				return err
			}
			if pr == nil {
				return errors.Errorf("no open PR for bookmark %q; run 'ryu sync' to create one", name)
			}
			if !pr.IsDraft {
				fmt.Printf("PR #%d is already ready for review.\n", pr.Number)
				return nil
			}

			lock, err := locks.LockRepo(store.RyuDir(cctx.root))
			if err != nil {
				return err
			}
			defer lock.Unlock()

			published, err := cctx.svc.PublishPR(ctx, pr.Number)
			if err != nil {
				return err
			}
			cctx.prCache.Put(name, *published)
			if err := store.SavePrCache(cctx.root, cctx.prCache); err != nil {
				fmt.Println(ui.Warn(fmt.Sprintf("Failed to save PR cache: %v", err)))
			}

			fmt.Printf("%s PR #%d is ready for review: %s\n", ui.Success("✓"), published.Number, ui.Muted(published.HTMLURL))
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Remote to use (default: configured or sole remote)")
	return cmd
}
