package workflow

import (
	"errors"
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		op     Op
		status domain.SegmentStatus
		want   bool
	}{
		{OpTranslate, domain.StatusPending, true},
		{OpTranslate, domain.StatusTranslationFailed, true},
		{OpTranslate, domain.StatusTranslated, false},
		{OpTranslate, domain.StatusTranslating, false},
		{OpStartReview, domain.StatusTranslatedTM, true},
		{OpStartReview, domain.StatusReviewFailed, true},
		{OpStartReview, domain.StatusReviewPending, false},
		{OpCompleteReview, domain.StatusReviewing, true},
		{OpCompleteReview, domain.StatusNeedsManualReview, true},
		{OpCompleteReview, domain.StatusReviewCompleted, false},
		{OpFinalize, domain.StatusReviewCompleted, true},
		{OpFinalize, domain.StatusConfirmed, false},
		{OpReopenIssue, domain.StatusConfirmed, true},
		{OpReopenIssue, domain.StatusTranslated, false},
		{"unknown", domain.StatusPending, false},
	}
	for _, tt := range tests {
		if got := Allowed(tt.op, tt.status); got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.op, tt.status, got, tt.want)
		}
	}
}

func TestTransitions_ClaimsAreNotSources(t *testing.T) {
	for op, tr := range transitions {
		if tr.claim != "" && Allowed(op, tr.claim) {
			t.Errorf("%s may start from its own in-flight status %s", op, tr.claim)
		}
		for _, s := range tr.from {
			if !s.Valid() {
				t.Errorf("%s lists unknown status %s", op, s)
			}
		}
	}
}

func TestGuard(t *testing.T) {
	err := guard(OpFinalize, domain.StatusReviewPending)
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if cur, _ := domain.CurrentStatus(err); cur != domain.StatusReviewPending {
		t.Errorf("expected current status in error, got %s", cur)
	}
	if err := guard(OpFinalize, domain.StatusReviewCompleted); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestSources_IsCopy(t *testing.T) {
	s := Sources(OpTranslate)
	s[0] = domain.StatusConfirmed
	if Allowed(OpTranslate, domain.StatusConfirmed) {
		t.Error("Sources must not expose the table")
	}
}

func TestSeverityPolicy(t *testing.T) {
	policy := SeverityPolicy(domain.SeverityHigh)
	if policy(nil) {
		t.Error("no findings must not need manual review")
	}
	if policy([]domain.Issue{{Severity: domain.SeverityLow}, {Severity: domain.SeverityMedium}}) {
		t.Error("medium findings are below the threshold")
	}
	if !policy([]domain.Issue{{Severity: domain.SeverityLow}, {Severity: domain.SeverityCritical}}) {
		t.Error("a critical finding must need manual review")
	}
}
