package workflow

import (
	"slices"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// Op names a segment operation guarded by the transition table.
type Op string

const (
	OpTranslate      Op = "translate"
	OpStartReview    Op = "start_review"
	OpCompleteReview Op = "complete_review"
	OpFinalize       Op = "finalize"
	OpResolveIssue   Op = "resolve_issue"
	OpReopenIssue    Op = "reopen_issue"
	OpAddIssue       Op = "add_issue"
)

type transition struct {
	from []domain.SegmentStatus
	// claim is the in-flight status held while an external call runs; empty
	// for operations that commit immediately.
	claim domain.SegmentStatus
}

var transitions = map[Op]transition{
	OpTranslate: {
		from:  []domain.SegmentStatus{domain.StatusPending, domain.StatusTranslationFailed},
		claim: domain.StatusTranslating,
	},
	OpStartReview: {
		from: []domain.SegmentStatus{
			domain.StatusTranslated, domain.StatusTranslatedTM,
			domain.StatusTranslationFailed, domain.StatusReviewFailed,
		},
		claim: domain.StatusReviewing,
	},
	OpCompleteReview: {
		from: []domain.SegmentStatus{
			domain.StatusReviewPending, domain.StatusNeedsManualReview,
			domain.StatusTranslationFailed, domain.StatusReviewing,
		},
	},
	OpFinalize: {
		from: []domain.SegmentStatus{domain.StatusReviewCompleted},
	},
	OpResolveIssue: {
		from: []domain.SegmentStatus{
			domain.StatusReviewPending, domain.StatusNeedsManualReview,
			domain.StatusReviewFailed, domain.StatusReviewCompleted,
		},
	},
	OpReopenIssue: {
		from: []domain.SegmentStatus{
			domain.StatusReviewPending, domain.StatusNeedsManualReview,
			domain.StatusReviewCompleted, domain.StatusConfirmed,
		},
	},
	OpAddIssue: {
		from: []domain.SegmentStatus{
			domain.StatusTranslated, domain.StatusTranslatedTM,
			domain.StatusReviewPending, domain.StatusNeedsManualReview,
			domain.StatusReviewFailed, domain.StatusReviewCompleted,
		},
	},
}

// Allowed reports whether op may start from status.
func Allowed(op Op, status domain.SegmentStatus) bool {
	t, ok := transitions[op]
	return ok && slices.Contains(t.from, status)
}

// Sources returns the statuses op may start from.
func Sources(op Op) []domain.SegmentStatus {
	return slices.Clone(transitions[op].from)
}

func guard(op Op, status domain.SegmentStatus) error {
	if Allowed(op, status) {
		return nil
	}
	return &domain.PreconditionError{Op: string(op), Current: status}
}
