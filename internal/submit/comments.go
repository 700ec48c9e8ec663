package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/canadaduane/jj-ryu/internal/model"
	"github.com/canadaduane/jj-ryu/internal/platform"
)

// CommentDataPrefix marks the machine-readable trailer of a stack comment.
// Upserts find the previous comment by this prefix, so changing it orphans
// comments written by older versions.
const CommentDataPrefix = "<!-- ryu-stack-data:"

// CurrentMarker flags the PR a stack comment is posted on.
const CurrentMarker = "◀ this PR"

// StackCommentVersion is embedded in the comment trailer.
const StackCommentVersion = 1

// StackItem is one PR's entry in the stack comment trailer.
type StackItem struct {
	BookmarkName string `json:"bookmark_name"`
	PrURL        string `json:"pr_url"`
	PrNumber     int    `json:"pr_number"`
	PrTitle      string `json:"pr_title"`
}

// StackCommentData is the machine-readable form of a stack comment, listing
// the stack trunk-first.
type StackCommentData struct {
	Version    int         `json:"version"`
	Stack      []StackItem `json:"stack"`
	BaseBranch string      `json:"base_branch"`
}

// BuildStackCommentData assembles comment data from the plan's segments and
// the PRs known for them, in trunk-to-leaf order. Bookmarks without a PR are
// left out.
func BuildStackCommentData(plan *Plan, prs map[string]model.PullRequest) StackCommentData {
	data := StackCommentData{Version: StackCommentVersion, BaseBranch: plan.DefaultBranch}
	for _, seg := range plan.Segments {
		pr, ok := prs[seg.Bookmark.Name]
		if !ok {
			continue
		}
		data.Stack = append(data.Stack, StackItem{
			BookmarkName: seg.Bookmark.Name,
			PrURL:        pr.HTMLURL,
			PrNumber:     pr.Number,
			PrTitle:      pr.Title,
		})
	}
	return data
}

// FormatStackComment renders the comment body for one PR in the stack,
// leaf-first so the list reads top-down like the stack itself. currentNumber
// selects which entry gets the marker. The JSON trailer carries the same data
// for the next run to parse.
func FormatStackComment(data StackCommentData, currentNumber int) string {
	var b strings.Builder
	b.WriteString("**This PR is part of a stack:**\n\n")
	for i := len(data.Stack) - 1; i >= 0; i-- {
		item := data.Stack[i]
		fmt.Fprintf(&b, "- [#%d](%s) %s", item.PrNumber, item.PrURL, item.PrTitle)
		if item.PrNumber == currentNumber {
			b.WriteString(" " + CurrentMarker)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nBase: `%s`\n\n", data.BaseBranch)

	payload, _ := json.Marshal(data)
	b.WriteString(CommentDataPrefix + " " + string(payload) + " -->")
	return b.String()
}

// UpsertStackComment writes the stack comment on one PR, replacing the
// previous one when found.
func UpsertStackComment(ctx context.Context, svc platform.Service, number int, body string) error {
	comments, err := svc.ListPRComments(ctx, number)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if strings.Contains(c.Body, CommentDataPrefix) {
			return svc.UpdatePRComment(ctx, number, c.ID, body)
		}
	}
	return svc.CreatePRComment(ctx, number, body)
}
