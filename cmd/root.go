// Package cmd wires the ryu command-line interface.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

var (
	verbose  bool
	repoPath string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "ryu",
	Short: "Stacked PRs for Jujutsu.",
	Long: `Ryu keeps a stack of dependent jj changes in sync with GitHub or GitLab:
it pushes bookmarks, creates and retargets pull requests, posts stack
navigation comments, and merges the stack back to trunk in order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logs.SetVerbose(verbose)
		return logs.InitLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logs.Close()
	},
}

// Execute is called by main.go to run the root command. The context is
// canceled on SIGINT or SIGTERM so in-flight API calls stop cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repository", "R", ".", "Path to the jj workspace")

	rootCmd.AddCommand(
		newSyncCmd(),
		newMergeCmd(),
		newStatusCmd(),
		newTrackCmd(),
		newUntrackCmd(),
		newPublishCmd(),
		newAuthCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	rootCmd.SetUsageTemplate(ui.ColorHeadings(rootCmd.UsageTemplate()))
}
