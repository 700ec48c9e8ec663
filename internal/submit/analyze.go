// Package submit turns the local stack into pushes and PR operations on the
// remote. It follows a gather/plan/execute split: remote state is fetched up
// front and the plan is computed purely from that snapshot, then execution
// walks the plan in order.
package submit

import (
	"strings"

	"github.com/canadaduane/jj-ryu/internal/model"
)

// Analysis is the portion of the stack a submission covers, trunk-adjacent
// segment first, each narrowed to a single selected bookmark.
type Analysis struct {
	TargetBookmark string
	Segments       []model.Segment
}

// Analyze narrows the change graph to the segments at or below the target
// bookmark. An empty target means the whole stack, with the leaf segment's
// bookmark as the target. A named target that is not in the stack is an
// error.
func Analyze(g *model.ChangeGraph, target string) (*Analysis, error) {
	if g == nil || g.Stack == nil || len(g.Stack.Segments) == 0 {
		if target != "" {
			return nil, &model.BookmarkNotFoundError{Name: target}
		}
		return &Analysis{}, nil
	}

	segments := g.Stack.Segments
	end := len(segments)
	if target != "" {
		end = 0
		for i, seg := range segments {
			if segmentHasBookmark(seg, target) {
				end = i + 1
				break
			}
		}
		if end == 0 {
			return nil, &model.BookmarkNotFoundError{Name: target}
		}
	}

	analysis := &Analysis{Segments: make([]model.Segment, 0, end)}
	for _, seg := range segments[:end] {
		analysis.Segments = append(analysis.Segments, model.Segment{
			Bookmark: SelectBookmark(seg, target),
			Changes:  seg.Changes,
		})
	}
	analysis.TargetBookmark = analysis.Segments[len(analysis.Segments)-1].Bookmark.Name
	return analysis, nil
}

// BaseBranch returns the branch a segment's PR targets: the selected bookmark
// of the segment below it, or the trunk branch for the bottom segment.
func (a *Analysis) BaseBranch(i int, defaultBranch string) string {
	if i == 0 {
		return defaultBranch
	}
	return a.Segments[i-1].Bookmark.Name
}

// FilterTracked drops segments whose bookmark is not in the tracked set.
// Base branches re-chain across the remaining segments.
func (a *Analysis) FilterTracked(tracked []string) {
	kept := a.Segments[:0]
	for _, seg := range a.Segments {
		for _, name := range tracked {
			if seg.Bookmark.Name == name {
				kept = append(kept, seg)
				break
			}
		}
	}
	a.Segments = kept
}

// SelectBookmark picks the canonical bookmark for a segment. A requested
// target always wins when the segment carries it. Otherwise temporary-looking
// names are filtered out and the shortest remaining name wins, ties broken
// alphabetically.
func SelectBookmark(seg model.BookmarkSegment, target string) model.Bookmark {
	if len(seg.Bookmarks) == 0 {
		return model.Bookmark{}
	}
	if target != "" {
		for _, b := range seg.Bookmarks {
			if b.Name == target {
				return b
			}
		}
	}

	candidates := seg.Bookmarks
	if kept := permanentBookmarks(candidates); len(kept) > 0 {
		candidates = kept
	}

	best := candidates[0]
	for _, b := range candidates[1:] {
		if len(b.Name) < len(best.Name) ||
			(len(b.Name) == len(best.Name) && b.Name < best.Name) {
			best = b
		}
	}
	return best
}

var (
	tempPrefixes = []string{"wip-", "tmp-", "temp-"}
	tempSuffixes = []string{"-old", "-tmp", "-bak", "-backup"}
)

func permanentBookmarks(bookmarks []model.Bookmark) []model.Bookmark {
	var kept []model.Bookmark
	for _, b := range bookmarks {
		if !isTemporaryName(b.Name) {
			kept = append(kept, b)
		}
	}
	return kept
}

func isTemporaryName(name string) bool {
	for _, p := range tempPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, s := range tempSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func segmentHasBookmark(seg model.BookmarkSegment, name string) bool {
	for _, b := range seg.Bookmarks {
		if b.Name == name {
			return true
		}
	}
	return false
}
