package platform

import (
	"github.com/canadaduane/jj-ryu/internal/model"
)

// ReadinessInput is the raw per-PR data the readiness judgment derives from.
type ReadinessInput struct {
	Details  *model.PullRequestDetails
	Approved bool
	CIPassed bool
	// DraftReason is the platform's wording for the draft blocker
	// ("PR is a draft" / "MR is a draft").
	DraftReason string
	// UnknownReason, when non-empty, is recorded as an uncertainty while the
	// platform has not computed mergeability yet. GitLab computes merge
	// status synchronously and passes "".
	UnknownReason string
}

// EvaluateReadiness turns raw platform signals into a readiness judgment.
// Blocking reasons hold only definitive negatives; an unknown mergeable
// status is an uncertainty, never a blocker.
func EvaluateReadiness(in ReadinessInput) model.MergeReadiness {
	var blocking []string
	if in.Details.IsDraft {
		blocking = append(blocking, in.DraftReason)
	}
	if !in.Approved {
		blocking = append(blocking, "Not approved")
	}
	if !in.CIPassed {
		blocking = append(blocking, "CI not passing")
	}
	if in.Details.Mergeable != nil && !*in.Details.Mergeable {
		blocking = append(blocking, "Has merge conflicts")
	}

	var uncertainties []string
	if in.Details.Mergeable == nil && in.UnknownReason != "" {
		uncertainties = append(uncertainties, in.UnknownReason)
	}

	return model.MergeReadiness{
		IsApproved:      in.Approved,
		CIPassed:        in.CIPassed,
		IsMergeable:     in.Details.Mergeable,
		IsDraft:         in.Details.IsDraft,
		BlockingReasons: blocking,
		Uncertainties:   uncertainties,
	}
}
