package domain

import (
	"strings"
	"time"
)

// SegmentStatus is the workflow state of a single segment.
type SegmentStatus string

const (
	StatusPending           SegmentStatus = "pending"
	StatusTranslating       SegmentStatus = "translating"
	StatusTranslated        SegmentStatus = "translated"
	StatusTranslatedTM      SegmentStatus = "translated_tm"
	StatusTranslationFailed SegmentStatus = "translation_failed"
	StatusReviewing         SegmentStatus = "reviewing"
	StatusReviewPending     SegmentStatus = "review_pending"
	StatusReviewFailed      SegmentStatus = "review_failed"
	StatusNeedsManualReview SegmentStatus = "needs_manual_review"
	StatusReviewCompleted   SegmentStatus = "review_completed"
	StatusConfirmed         SegmentStatus = "confirmed"
)

var segmentStatuses = map[SegmentStatus]bool{
	StatusPending:           true,
	StatusTranslating:       true,
	StatusTranslated:        true,
	StatusTranslatedTM:      true,
	StatusTranslationFailed: true,
	StatusReviewing:         true,
	StatusReviewPending:     true,
	StatusReviewFailed:      true,
	StatusNeedsManualReview: true,
	StatusReviewCompleted:   true,
	StatusConfirmed:         true,
}

// Valid reports whether s is a known status.
func (s SegmentStatus) Valid() bool { return segmentStatuses[s] }

// HasTranslation reports whether a segment in this status carries translated text.
func (s SegmentStatus) HasTranslation() bool {
	switch s {
	case StatusTranslated, StatusTranslatedTM, StatusReviewing, StatusReviewPending,
		StatusReviewFailed, StatusNeedsManualReview, StatusReviewCompleted, StatusConfirmed:
		return true
	}
	return false
}

// InReview reports whether the status belongs to the review stage.
func (s SegmentStatus) InReview() bool {
	switch s {
	case StatusReviewing, StatusReviewPending, StatusReviewFailed,
		StatusNeedsManualReview, StatusReviewCompleted, StatusConfirmed:
		return true
	}
	return false
}

// TranslationMeta records how the current translation was produced.
type TranslationMeta struct {
	Origin     string `json:"origin"` // ai | tm
	Model      string `json:"model,omitempty"`
	TokenCount int    `json:"token_count,omitempty"`
	LatencyMS  int64  `json:"latency_ms,omitempty"`
	Length     int    `json:"length"`
	MatchScore int    `json:"match_score,omitempty"`
}

// Score is one dimension score reported by the review capability.
type Score struct {
	Dimension string  `json:"dimension"`
	Value     float64 `json:"value"`
}

// ReviewMeta records the AI review and the human edit that followed it.
type ReviewMeta struct {
	Model                string    `json:"model,omitempty"`
	Template             string    `json:"template,omitempty"`
	TokenCount           int       `json:"token_count,omitempty"`
	LatencyMS            int64     `json:"latency_ms,omitempty"`
	SuggestedTranslation string    `json:"suggested_translation,omitempty"`
	Scores               []Score   `json:"scores,omitempty"`
	ModificationDegree   *float64  `json:"modification_degree,omitempty"`
	ReviewedAt           time.Time `json:"reviewed_at,omitempty"`
}

// Segment is the unit of translatable text.
type Segment struct {
	ID              int64           `json:"id"`
	FileID          int64           `json:"file_id"`
	ProjectID       int64           `json:"project_id"`
	Index           int             `json:"index"`
	SourceText      string          `json:"source_text"`
	TranslatedText  *string         `json:"translated_text"`
	FinalText       *string         `json:"final_text"`
	Status          SegmentStatus   `json:"status"`
	Issues          []Issue         `json:"issues"`
	TranslationMeta TranslationMeta `json:"translation_meta"`
	ReviewMeta      ReviewMeta      `json:"review_meta"`
	QualityScore    *int            `json:"quality_score"`
	ReviewerID      *int64          `json:"reviewer_id"`
	ErrorMessage    *string         `json:"error_message"`
	WordCount       int             `json:"word_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Translation returns the translated text or "" when the segment has none.
func (s *Segment) Translation() string {
	if s.TranslatedText == nil {
		return ""
	}
	return *s.TranslatedText
}

// Final returns the confirmed text or "" when the segment has none.
func (s *Segment) Final() string {
	if s.FinalText == nil {
		return ""
	}
	return *s.FinalText
}

// SetError stores msg as the segment error; an empty msg clears it.
func (s *Segment) SetError(msg string) {
	if msg == "" {
		s.ErrorMessage = nil
		return
	}
	s.ErrorMessage = &msg
}

// OpenIssues returns the number of issues that are still open or in progress.
func (s *Segment) OpenIssues() int {
	n := 0
	for _, is := range s.Issues {
		if !is.Status.Settled() {
			n++
		}
	}
	return n
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return &s }
