// Package graph builds the change graph ryu plans against: the linear stack
// of bookmark segments between trunk and the working copy.
package graph

import (
	"strings"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// Build constructs a ChangeGraph from jj log entries over trunk()..@,
// given newest-first as jj produces them.
//
// Walking oldest to newest, a segment is cut at every commit carrying local
// bookmarks; the segment owns the commits since the previous bookmark.
// Commits above the last bookmark (the unbookmarked working-copy tip) belong
// to no segment. Bookmarks sitting on merge commits cannot be stacked and are
// excluded, with a count kept for reporting.
func Build(entries []model.LogEntry) *model.ChangeGraph {
	graph := &model.ChangeGraph{Bookmarks: map[string]model.Bookmark{}}
	if len(entries) == 0 {
		return graph
	}

	remoteNames := remoteBookmarkNames(entries)

	var segments []model.BookmarkSegment
	var pending []model.LogEntry

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		pending = append(pending, entry)

		if len(entry.LocalBookmarks) == 0 {
			continue
		}
		if len(entry.Parents) > 1 {
			graph.ExcludedBookmarkCount += len(entry.LocalBookmarks)
			logs.Debug("excluding %d bookmark(s) on merge commit %s", len(entry.LocalBookmarks), entry.CommitID)
			continue
		}

		bookmarks := make([]model.Bookmark, 0, len(entry.LocalBookmarks))
		for _, name := range entry.LocalBookmarks {
			b := model.Bookmark{
				Name:      name,
				CommitID:  entry.CommitID,
				ChangeID:  entry.ChangeID,
				HasRemote: remoteNames[name],
				IsSynced:  entryHasRemoteFor(entry, name),
			}
			bookmarks = append(bookmarks, b)
			graph.Bookmarks[name] = b
		}

		segments = append(segments, model.BookmarkSegment{
			Bookmarks: bookmarks,
			Changes:   reversed(pending),
		})
		pending = nil
	}

	if len(segments) > 0 {
		graph.Stack = &model.Stack{Segments: segments}
	}
	return graph
}

// remoteBookmarkNames collects every bookmark name that exists on any remote
// within the log window.
func remoteBookmarkNames(entries []model.LogEntry) map[string]bool {
	names := map[string]bool{}
	for _, entry := range entries {
		for _, ref := range entry.RemoteBookmarks {
			if name, _, ok := strings.Cut(ref, "@"); ok {
				names[name] = true
			}
		}
	}
	return names
}

// entryHasRemoteFor reports whether the commit itself carries a remote ref
// for the bookmark, meaning local and remote agree.
func entryHasRemoteFor(entry model.LogEntry, name string) bool {
	for _, ref := range entry.RemoteBookmarks {
		if refName, _, ok := strings.Cut(ref, "@"); ok && refName == name {
			return true
		}
	}
	return false
}

func reversed(entries []model.LogEntry) []model.LogEntry {
	out := make([]model.LogEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
