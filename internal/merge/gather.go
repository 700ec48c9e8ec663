package merge

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/canadaduane/jj-ryu/internal/platform"
	"github.com/canadaduane/jj-ryu/internal/submit"
)

// gatherConcurrency bounds parallel PR lookups during the gather phase.
const gatherConcurrency = 4

// GatherPrInfo fetches details and readiness for every analyzed bookmark's
// PR. Bookmarks with no open PR are silently left out; the planner treats
// them as unmergeable. Lookups run in parallel with bounded concurrency and
// the first failure wins.
func GatherPrInfo(ctx context.Context, analysis *submit.Analysis, svc platform.Service) (map[string]PrInfo, error) {
	var mu sync.Mutex
	info := make(map[string]PrInfo)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(gatherConcurrency)
	for _, seg := range analysis.Segments {
		name := seg.Bookmark.Name
		g.Go(func() error {
			pr, err := svc.FindExistingPR(ctx, name)
			if err != nil {
				return err
			}
			if pr == nil {
				return nil
			}
			details, err := svc.GetPRDetails(ctx, pr.Number)
			if err != nil {
				return err
			}
			readiness, err := svc.CheckMergeReadiness(ctx, pr.Number)
			if err != nil {
				return err
			}
			mu.Lock()
			info[name] = PrInfo{Bookmark: name, Details: *details, Readiness: readiness}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return info, nil
}
