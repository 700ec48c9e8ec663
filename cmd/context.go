package cmd

import (
	"context"

	"github.com/canadaduane/jj-ryu/internal/auth"
	"github.com/canadaduane/jj-ryu/internal/config"
	"github.com/canadaduane/jj-ryu/internal/graph"
	"github.com/canadaduane/jj-ryu/internal/jj"
	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/store"
)

// commandContext is the setup shared by the commands that talk to the
// platform: sync, merge, status and publish. It deliberately carries no
// change graph; the graph goes stale after fetch and rebase operations, so
// commands rebuild it through buildGraph when they need it.
type commandContext struct {
	ws            *jj.Workspace
	root          string
	cfg           *config.Config
	tracking      store.TrackingState
	prCache       store.PrCache
	svc           platform.Service
	remoteName    string
	defaultBranch string
}

// newCommandContext opens the workspace, loads tracking state and the PR
// cache, selects the remote, detects the platform and resolves its token.
func newCommandContext(ctx context.Context, remoteFlag string) (*commandContext, error) {
	ws, err := jj.Open(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	root := ws.Root()

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	tracking, err := store.LoadTracking(root)
	if err != nil {
		return nil, err
	}
	prCache, err := store.LoadPrCache(root)
	if err != nil {
		return nil, err
	}

	remotes, err := ws.Remotes(ctx)
	if err != nil {
		return nil, err
	}
	preferred := remoteFlag
	if preferred == "" {
		preferred = cfg.DefaultRemote()
	}
	remoteName, err := jj.SelectRemote(remotes, preferred)
	if err != nil {
		return nil, err
	}

	remoteURL := ""
	for _, r := range remotes {
		if r.Name == remoteName {
			remoteURL = r.URL
			break
		}
	}
	if remoteURL == "" {
		return nil, &model.RemoteNotFoundError{Name: remoteName}
	}

	platformCfg, err := platform.ParseRepoInfo(remoteURL)
	if err != nil {
		return nil, err
	}
	token, err := auth.ResolveToken(ctx, platformCfg.Kind)
	if err != nil {
		return nil, err
	}
	svc, err := platform.New(platformCfg, token.Value)
	if err != nil {
		return nil, err
	}

	defaultBranch, err := ws.DefaultBranch(ctx, remoteName)
	if err != nil {
		return nil, err
	}

	return &commandContext{
		ws:            ws,
		root:          root,
		cfg:           cfg,
		tracking:      tracking,
		prCache:       prCache,
		svc:           svc,
		remoteName:    remoteName,
		defaultBranch: defaultBranch,
	}, nil
}

// buildGraph reads jj log and assembles the change graph.
func (c *commandContext) buildGraph(ctx context.Context) (*model.ChangeGraph, error) {
	entries, err := c.ws.Log(ctx)
	if err != nil {
		return nil, err
	}
	return graph.Build(entries), nil
}

func (c *commandContext) trackedNames() []string {
	return c.tracking.Names()
}

func (c *commandContext) hasTrackedBookmarks() bool {
	return len(c.tracking.Names()) > 0
}
