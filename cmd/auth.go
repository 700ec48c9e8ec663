package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canadaduane/jj-ryu/internal/auth"
	"github.com/canadaduane/jj-ryu/internal/config"
	"github.com/canadaduane/jj-ryu/internal/jj"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/ui"
)

func newAuthCmd() *cobra.Command {
	var remote string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Show which token ryu uses and verify it.",
		Long: `Auth detects the platform from the remote URL, reports where ryu finds
its token (environment variable or the gh/glab CLI), and checks the
token against the platform's user endpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ws, err := jj.Open(ctx, repoPath)
			if err != nil {
				return err
			}
			cfg, err := config.Load(ws.Root())
			if err != nil {
				return err
			}
			remotes, err := ws.Remotes(ctx)
			if err != nil {
				return err
			}
			preferred := remote
			if preferred == "" {
				preferred = cfg.DefaultRemote()
			}
			remoteName, err := jj.SelectRemote(remotes, preferred)
			if err != nil {
				return err
			}
			remoteURL := ""
			for _, r := range remotes {
				if r.Name == remoteName {
					remoteURL = r.URL
					break
				}
			}
			if remoteURL == "" {
				return &model.RemoteNotFoundError{Name: remoteName}
			}
			platformCfg, err := platform.ParseRepoInfo(remoteURL)
			if err != nil {
				return err
			}

			fmt.Printf("Platform: %s (%s/%s)\n", platformCfg.Kind, platformCfg.Owner, platformCfg.Repo)
			if platformCfg.Host != "" {
				fmt.Printf("Host: %s\n", platformCfg.Host)
			}

			token, err := auth.ResolveToken(ctx, platformCfg.Kind)
			if err != nil {
				return err
			}
			fmt.Printf("Token: %s\n", token.Describe())

			stop := ui.StartSpinner(os.Stdout, "Verifying token...")
			login, err := auth.Verify(ctx, platformCfg, token.Value)
			stop(err == nil)
			if err != nil {
				return err
			}
			fmt.Printf("%s Authenticated as %s\n", ui.Success("✓"), ui.Accent(login))
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Remote to authenticate against (default: configured or sole remote)")
	return cmd
}
