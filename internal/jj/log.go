package jj

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/canadaduane/jj-ryu/internal/logs"
	"github.com/canadaduane/jj-ryu/internal/model"
)

// Machine-readable log output uses ASCII unit/record separators so that
// descriptions containing newlines survive parsing.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// logFields are jj template expressions, one per LogEntry field, in order.
var logFields = []string{
	"commit_id",
	"change_id",
	"author.name()",
	"author.email()",
	"description.first_line()",
	"description",
	`parents.map(|c| c.commit_id()).join(" ")`,
	`local_bookmarks.join(" ")`,
	`remote_bookmarks.join(" ")`,
	`if(current_working_copy, "true", "false")`,
	`author.timestamp().format("%Y-%m-%dT%H:%M:%S%:z")`,
	`committer.timestamp().format("%Y-%m-%dT%H:%M:%S%:z")`,
}

var logTemplate = strings.Join(logFields, ` ++ "`+fieldSep+`" ++ `) + ` ++ "`+recordSep+`"`

// Log returns the commits between trunk and the working copy, newest first.
func (w *Workspace) Log(ctx context.Context) ([]model.LogEntry, error) {
	out, err := w.run(ctx, "log", "-r", "trunk()..@", "--no-graph", "-T", logTemplate)
	if err != nil {
		return nil, err
	}
	return ParseLogOutput(out)
}

// ParseLogOutput parses separator-delimited jj log output into entries.
func ParseLogOutput(out string) ([]model.LogEntry, error) {
	var entries []model.LogEntry
	for _, record := range strings.Split(out, recordSep) {
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.Split(record, fieldSep)
		if len(fields) != len(logFields) {
			return nil, errors.Errorf("malformed jj log record: %d fields, want %d", len(fields), len(logFields))
		}
		entries = append(entries, model.LogEntry{
			CommitID:             strings.TrimSpace(fields[0]),
			ChangeID:             strings.TrimSpace(fields[1]),
			AuthorName:           fields[2],
			AuthorEmail:          fields[3],
			DescriptionFirstLine: fields[4],
			Description:          fields[5],
			Parents:              splitRefList(fields[6]),
			LocalBookmarks:       splitBookmarkList(fields[7]),
			RemoteBookmarks:      splitBookmarkList(fields[8]),
			IsWorkingCopy:        fields[9] == "true",
			AuthoredAt:           parseTimestamp(fields[10]),
			CommittedAt:          parseTimestamp(fields[11]),
		})
	}
	return entries, nil
}

func splitRefList(s string) []string {
	return strings.Fields(s)
}

func splitBookmarkList(s string) []string {
	var names []string
	for _, name := range strings.Fields(s) {
		names = append(names, stripConflictMarker(name))
	}
	return names
}

// stripConflictMarker removes the suffix jj appends to conflicted bookmarks.
func stripConflictMarker(name string) string {
	name = strings.TrimSuffix(name, "??")
	return strings.TrimSuffix(name, "*")
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		logs.Debug("unparseable jj timestamp %q: %v", s, err)
		return time.Time{}
	}
	return t
}
