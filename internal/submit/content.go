package submit

import (
	"strings"

	"github.com/canadaduane/jj-ryu/internal/model"
)

// Title derives a PR title from the segment's root (oldest) change: the
// first line of its description, or the bookmark name when the change has no
// description.
func Title(seg model.Segment) string {
	if len(seg.Changes) == 0 {
		return seg.Bookmark.Name
	}
	root := seg.Changes[len(seg.Changes)-1]
	if title := strings.TrimSpace(root.DescriptionFirstLine); title != "" {
		return title
	}
	return seg.Bookmark.Name
}

// Body assembles a PR body from the segment's changes in root-to-tip order.
// Each change contributes the part of its description past the summary line;
// changes without one contribute nothing. The result is "" when no change has
// a body, which callers must treat as "no body" rather than an empty body.
func Body(seg model.Segment) string {
	var parts []string
	for i := len(seg.Changes) - 1; i >= 0; i-- {
		if b := descriptionBody(seg.Changes[i].Description); b != "" {
			parts = append(parts, b)
		}
	}
	return strings.Join(parts, "\n\n")
}

// descriptionBody returns everything past the first blank line of a commit
// description, trimmed.
func descriptionBody(description string) string {
	_, rest, ok := strings.Cut(description, "\n\n")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}
