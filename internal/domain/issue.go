package domain

import (
	"fmt"
	"strings"
	"time"
)

// IssueType classifies a finding.
type IssueType string

const (
	IssueTerminology IssueType = "terminology"
	IssueGrammar     IssueType = "grammar"
	IssueStyle       IssueType = "style"
	IssueAccuracy    IssueType = "accuracy"
	IssueFormatting  IssueType = "formatting"
	IssueConsistency IssueType = "consistency"
	IssueOmission    IssueType = "omission"
	IssueAddition    IssueType = "addition"
	IssueOther       IssueType = "other"
)

var issueTypes = map[IssueType]bool{
	IssueTerminology: true, IssueGrammar: true, IssueStyle: true,
	IssueAccuracy: true, IssueFormatting: true, IssueConsistency: true,
	IssueOmission: true, IssueAddition: true, IssueOther: true,
}

// Valid reports whether t is a known issue type.
func (t IssueType) Valid() bool { return issueTypes[t] }

// Severity ranks how serious a finding is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities from 1 (low) to 4 (critical); unknown is 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// IssueStatus is the lifecycle state of a finding.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueRejected   IssueStatus = "rejected"
	IssueDeferred   IssueStatus = "deferred"
)

// Valid reports whether s is a known issue status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved, IssueRejected, IssueDeferred:
		return true
	}
	return false
}

// Settled reports whether the issue carries a resolution record.
func (s IssueStatus) Settled() bool { return s == IssueResolved || s == IssueRejected }

// Resolvable reports whether the issue may still be resolved.
func (s IssueStatus) Resolvable() bool { return s.Valid() && !s.Settled() }

// Action is what a resolver did about a finding.
type Action string

const (
	ActionAccept Action = "accept"
	ActionModify Action = "modify"
	ActionReject Action = "reject"
)

// Valid reports whether a is a known resolution action.
func (a Action) Valid() bool {
	return a == ActionAccept || a == ActionModify || a == ActionReject
}

// Outcome maps the action onto the issue status it produces.
func (a Action) Outcome() IssueStatus {
	if a == ActionReject {
		return IssueRejected
	}
	return IssueResolved
}

// Span is a half-open rune range into source or translated text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Resolution records how a finding was settled.
type Resolution struct {
	Action     Action    `json:"action"`
	EditedText *string   `json:"edited_text,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	ResolvedBy int64     `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// Issue is a finding attached to one segment.
type Issue struct {
	Type        IssueType   `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	SourceSpan  *Span       `json:"source_span,omitempty"`
	TargetSpan  *Span       `json:"target_span,omitempty"`
	Suggestion  *string     `json:"suggestion,omitempty"`
	Status      IssueStatus `json:"status"`
	Resolution  *Resolution `json:"resolution,omitempty"`
	CreatedBy   *int64      `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Check verifies the shape of an issue, including the rule that a resolution
// is present exactly when the issue is resolved or rejected.
func (is Issue) Check() error {
	if !is.Type.Valid() {
		return Validationf("unknown issue type %q", is.Type)
	}
	if !is.Severity.Valid() {
		return Validationf("unknown issue severity %q", is.Severity)
	}
	if !is.Status.Valid() {
		return Validationf("unknown issue status %q", is.Status)
	}
	if strings.TrimSpace(is.Description) == "" {
		return Validationf("issue description is required")
	}
	if is.Status.Settled() != (is.Resolution != nil) {
		return fmt.Errorf("%w: issue status %s with resolution=%t", ErrInvariant, is.Status, is.Resolution != nil)
	}
	return nil
}

// IssueFilter selects issues by type and severity; empty slices match all.
type IssueFilter struct {
	Types      []IssueType `json:"types,omitempty"`
	Severities []Severity  `json:"severities,omitempty"`
}

// Match reports whether is passes the filter.
func (f IssueFilter) Match(is Issue) bool {
	if len(f.Types) > 0 && !contains(f.Types, is.Type) {
		return false
	}
	if len(f.Severities) > 0 && !contains(f.Severities, is.Severity) {
		return false
	}
	return true
}

// Check validates every filter value.
func (f IssueFilter) Check() error {
	for _, t := range f.Types {
		if !t.Valid() {
			return Validationf("unknown issue type %q in filter", t)
		}
	}
	for _, s := range f.Severities {
		if !s.Valid() {
			return Validationf("unknown severity %q in filter", s)
		}
	}
	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
