package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/config"
	"github.com/canadaduane/jj-ryu/internal/jj"
	"github.com/canadaduane/jj-ryu/internal/locks"
	"github.com/canadaduane/jj-ryu/internal/store"
)

func newConfigCmd() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write ryu configuration.",
		Long: `Config manages ryu settings. Repo-local values override global ones.

Keys:
  default_remote    remote ryu prefers when several are configured
  merge_method      squash (default), merge, or rebase
  draft_by_default  "true" to create new PRs as drafts`,
	}

	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Print a config value (repo-local overrides global).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", args[0], cfg.Get(args[0]))
			return nil
		},
	}

	var global bool
	setCmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a config value, repo-local unless --global.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			cfg, root, err := loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if !global {
				if root == "" {
					return errors.New("not in a jj workspace; use --global or run inside a repository")
				}
				lock, err := locks.LockRepo(store.RyuDir(root))
				if err != nil {
					return err
				}
				defer lock.Unlock()
			}
			if err := cfg.Set(key, value, global); err != nil {
				return err
			}

			scope := "local"
			if global {
				scope = "global"
			}
			fmt.Printf("Set %s config: %s = %s\n", scope, key, value)
			return nil
		},
	}
	setCmd.Flags().BoolVar(&global, "global", false, "Write to the global config file")

	cfgCmd.AddCommand(getCmd, setCmd)
	return cfgCmd
}

// loadConfig reads config for the workspace named by -R. Outside a workspace
// it falls back to global-only and reports root as "".
func loadConfig(ctx context.Context) (*config.Config, string, error) {
	ws, err := jj.Open(ctx, repoPath)
	if err != nil {
		cfg, loadErr := config.Load("")
		return cfg, "", loadErr
	}
	cfg, err := config.Load(ws.Root())
	return cfg, ws.Root(), err
}
