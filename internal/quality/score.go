package quality

import (
	"math"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// Perfect is the score of a segment without findings.
const Perfect = 100

type penalty struct {
	resolved   float64
	unresolved float64
}

// penalties maps severity to the cost of a resolved finding and of a finding
// that was rejected or is still unresolved when the score is computed.
var penalties = map[domain.Severity]penalty{
	domain.SeverityLow:      {resolved: 1, unresolved: 2},
	domain.SeverityMedium:   {resolved: 3, unresolved: 5},
	domain.SeverityHigh:     {resolved: 5, unresolved: 10},
	domain.SeverityCritical: {resolved: 10, unresolved: 20},
}

// Penalty returns the points one issue subtracts from the score.
// Unknown severities are charged at the medium rate.
func Penalty(is domain.Issue) float64 {
	p, ok := penalties[is.Severity]
	if !ok {
		p = penalties[domain.SeverityMedium]
	}
	if is.Status == domain.IssueResolved {
		return p.resolved
	}
	return p.unresolved
}

// Score computes the 0..100 quality score of a segment from its issues.
func Score(issues []domain.Issue) int {
	s := float64(Perfect)
	for _, is := range issues {
		s -= Penalty(is)
	}
	s = math.Max(0, math.Min(Perfect, s))
	return int(math.Round(s))
}
