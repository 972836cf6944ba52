// Package reviewer asks an external capability to judge a translation and
// returns its raw findings. Findings are not trusted: the workflow maps them
// onto issues with defaults for anything missing or unknown.
package reviewer

import (
	"context"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

type Request struct {
	Source       string
	Translation  string
	SourceLang   string
	TargetLang   string
	Context      []string
	Terms        []domain.Term
	Domain       string
	Instructions string
	// Template names the review prompt; empty selects "default".
	Template string
}

// Finding is one problem as reported by the capability, before validation.
type Finding struct {
	Type        string       `json:"type"`
	Severity    string       `json:"severity"`
	Description string       `json:"description"`
	SourceSpan  *domain.Span `json:"source_span,omitempty"`
	TargetSpan  *domain.Span `json:"target_span,omitempty"`
	Suggestion  string       `json:"suggestion,omitempty"`
	Status      string       `json:"status,omitempty"`
}

type Result struct {
	Findings             []Finding
	SuggestedTranslation string
	Scores               []domain.Score
	Model                string
	Template             string
	TokenCount           int
	Latency              time.Duration
}

// Reviewer is an external review capability. Implementations must be safe for
// concurrent use.
type Reviewer interface {
	Name() string
	Review(ctx context.Context, req Request) (*Result, error)
}
