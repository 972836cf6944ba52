package workflow

import (
	"strings"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/reviewer"
)

// mapFindings turns raw review findings into issues. Unknown types become
// other, missing or unknown severities become medium, and every finding
// starts open: the capability cannot resolve its own findings. Findings
// without a description are dropped and counted.
func mapFindings(fs []reviewer.Finding, at time.Time) ([]domain.Issue, int) {
	out := make([]domain.Issue, 0, len(fs))
	dropped := 0
	for _, f := range fs {
		is, ok := mapFinding(f, at)
		if !ok {
			dropped++
			continue
		}
		out = append(out, is)
	}
	return out, dropped
}

func mapFinding(f reviewer.Finding, at time.Time) (domain.Issue, bool) {
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		return domain.Issue{}, false
	}

	typ := domain.IssueType(strings.ToLower(strings.TrimSpace(f.Type)))
	if !typ.Valid() {
		typ = domain.IssueOther
	}
	sev := domain.Severity(strings.ToLower(strings.TrimSpace(f.Severity)))
	if !sev.Valid() {
		sev = domain.SeverityMedium
	}
	status := domain.IssueStatus(strings.ToLower(strings.TrimSpace(f.Status)))
	if !status.Resolvable() {
		status = domain.IssueOpen
	}

	is := domain.Issue{
		Type:        typ,
		Severity:    sev,
		Description: desc,
		SourceSpan:  span(f.SourceSpan),
		TargetSpan:  span(f.TargetSpan),
		Status:      status,
		CreatedAt:   at,
	}
	if s := strings.TrimSpace(f.Suggestion); s != "" {
		is.Suggestion = &s
	}
	return is, true
}

func span(s *domain.Span) *domain.Span {
	if s == nil || s.Start < 0 || s.End < s.Start {
		return nil
	}
	return &domain.Span{Start: s.Start, End: s.End}
}
