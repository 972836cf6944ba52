package quality

import (
	"testing"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

func issue(sev domain.Severity, st domain.IssueStatus) domain.Issue {
	return domain.Issue{Type: domain.IssueAccuracy, Severity: sev, Status: st, Description: "x"}
}

func TestScore_NoIssues(t *testing.T) {
	if got := Score(nil); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
}

func TestScore_OpenCriticalAndResolvedLow(t *testing.T) {
	issues := []domain.Issue{
		issue(domain.SeverityCritical, domain.IssueOpen),
		issue(domain.SeverityLow, domain.IssueResolved),
	}
	if got := Score(issues); got != 79 {
		t.Errorf("expected 79, got %d", got)
	}
}

func TestScore_PenaltyTable(t *testing.T) {
	tests := []struct {
		sev                  domain.Severity
		resolved, unresolved int
	}{
		{domain.SeverityLow, 1, 2},
		{domain.SeverityMedium, 3, 5},
		{domain.SeverityHigh, 5, 10},
		{domain.SeverityCritical, 10, 20},
	}
	for _, tt := range tests {
		if got := Score([]domain.Issue{issue(tt.sev, domain.IssueResolved)}); got != 100-tt.resolved {
			t.Errorf("%s resolved: expected %d, got %d", tt.sev, 100-tt.resolved, got)
		}
		for _, st := range []domain.IssueStatus{domain.IssueRejected, domain.IssueOpen, domain.IssueInProgress, domain.IssueDeferred} {
			if got := Score([]domain.Issue{issue(tt.sev, st)}); got != 100-tt.unresolved {
				t.Errorf("%s %s: expected %d, got %d", tt.sev, st, 100-tt.unresolved, got)
			}
		}
	}
}

func TestScore_ClampedAtZero(t *testing.T) {
	var issues []domain.Issue
	for i := 0; i < 10; i++ {
		issues = append(issues, issue(domain.SeverityCritical, domain.IssueRejected))
	}
	if got := Score(issues); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestScore_MonotonicAsUnresolvedIssuesAreAdded(t *testing.T) {
	base := []domain.Issue{
		issue(domain.SeverityHigh, domain.IssueResolved),
		issue(domain.SeverityLow, domain.IssueResolved),
	}
	sevs := []domain.Severity{domain.SeverityLow, domain.SeverityCritical, domain.SeverityMedium, domain.SeverityHigh}
	sts := []domain.IssueStatus{domain.IssueOpen, domain.IssueRejected}

	issues := append([]domain.Issue(nil), base...)
	prev := Score(issues)
	for i := 0; i < 24; i++ {
		issues = append(issues, issue(sevs[i%len(sevs)], sts[i%len(sts)]))
		got := Score(issues)
		if got > prev {
			t.Fatalf("score increased from %d to %d after adding issue %d", prev, got, i)
		}
		prev = got
	}
}

func TestPenalty_UnknownSeverityChargedAsMedium(t *testing.T) {
	if p := Penalty(issue("bogus", domain.IssueOpen)); p != 5 {
		t.Errorf("expected 5, got %v", p)
	}
}
