package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/issues"
	"github.com/Jjjmaes/AIT-sub001/internal/quality"
	"github.com/Jjjmaes/AIT-sub001/internal/reviewer"
)

type ReviewOptions struct {
	// ReviewerID assigns the review; nil assigns the caller.
	ReviewerID *int64
	Template   string
}

// IssueResolution resolves the issue at Index of a segment.
type IssueResolution struct {
	Index      int           `json:"index"`
	Action     domain.Action `json:"action"`
	EditedText *string       `json:"edited_text,omitempty"`
	Comment    string        `json:"comment,omitempty"`
}

func (r IssueResolution) resolution(by int64, at time.Time) domain.Resolution {
	return domain.Resolution{
		Action:     r.Action,
		EditedText: r.EditedText,
		Comment:    r.Comment,
		ResolvedBy: by,
		ResolvedAt: at,
	}
}

type CompleteReviewRequest struct {
	FinalText   string            `json:"final_text"`
	Resolutions []IssueResolution `json:"resolutions,omitempty"`
	// AcceptAll resolves every issue left unsettled after Resolutions.
	AcceptAll bool `json:"accept_all,omitempty"`
}

var errNoReviewer = errors.New("no review capability configured")

func hasTranslation(op Op) func(*domain.Segment) error {
	return func(seg *domain.Segment) error {
		if strings.TrimSpace(seg.Translation()) == "" {
			return &domain.PreconditionError{Op: string(op), Current: seg.Status, Reason: "segment has no translated text"}
		}
		return nil
	}
}

// StartReview runs the AI review of a translated segment. On success the
// findings replace the issue list and the segment waits for a human in
// review_pending, or needs_manual_review when the review policy says so. On
// failure the segment moves to review_failed and keeps its previous issues.
func (e *Engine) StartReview(ctx context.Context, segmentID, actorID int64, opts ReviewOptions) (*domain.Segment, error) {
	seg, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return nil, err
	}
	assignee := actorID
	if opts.ReviewerID != nil && *opts.ReviewerID != actorID {
		if err := e.access.Require(ctx, p, *opts.ReviewerID, domain.RoleReviewer); err != nil {
			return nil, err
		}
		assignee = *opts.ReviewerID
	}
	if err := guard(OpStartReview, seg.Status); err != nil {
		return nil, err
	}
	if e.reviewer == nil {
		return nil, &domain.ProviderError{Provider: "none", Err: errNoReviewer}
	}

	seg, err = e.claim(ctx, OpStartReview, segmentID, map[string]any{"reviewer_id": assignee}, hasTranslation(OpStartReview))
	if err != nil {
		return nil, err
	}
	seg.Status = domain.StatusReviewing
	seg.ReviewerID = &assignee
	log := e.log.With("segment_id", seg.ID, "file_id", seg.FileID)

	template := opts.Template
	if template == "" {
		template = e.cfg.ReviewTemplate
	}
	neighbours, terms := e.contextFor(ctx, seg)
	res, err := e.reviewer.Review(ctx, reviewer.Request{
		Source:       seg.SourceText,
		Translation:  seg.Translation(),
		SourceLang:   p.SourceLang,
		TargetLang:   p.TargetLang,
		Context:      neighbours,
		Terms:        terms,
		Domain:       p.Domain,
		Instructions: p.Instructions,
		Template:     template,
	})
	if err != nil {
		perr := providerError(e.reviewer.Name(), err)
		log.Warn("review failed", diag.Err(perr))
		seg.Status = domain.StatusReviewFailed
		seg.SetError(perr.Error())
		if cerr := e.commit(ctx, seg, domain.StatusReviewing); cerr != nil {
			return nil, errors.Join(perr, cerr)
		}
		e.refresh(ctx, seg.FileID)
		return nil, perr
	}

	now := time.Now().UTC()
	found, dropped := mapFindings(res.Findings, now)
	if dropped > 0 {
		log.Warn("review findings without description dropped", "count", dropped)
	}
	seg.Issues = found
	seg.ReviewMeta = domain.ReviewMeta{
		Model:                res.Model,
		Template:             res.Template,
		TokenCount:           res.TokenCount,
		LatencyMS:            res.Latency.Milliseconds(),
		SuggestedTranslation: res.SuggestedTranslation,
		Scores:               res.Scores,
		ReviewedAt:           now,
	}
	seg.FinalText = nil
	seg.QualityScore = nil
	seg.SetError("")
	seg.Status = domain.StatusReviewPending
	if e.cfg.ReviewPolicy != nil && e.cfg.ReviewPolicy(found) {
		seg.Status = domain.StatusNeedsManualReview
	}

	if err := e.commit(ctx, seg, domain.StatusReviewing); err != nil {
		return nil, err
	}
	log.Info("review finished", "status", seg.Status, "issues", len(found), "model", res.Model)
	e.refresh(ctx, seg.FileID)
	return seg, nil
}

// CompleteReview applies the reviewer's issue resolutions, stores the final
// text with its modification degree and moves the segment to
// review_completed. Only the assigned reviewer or a project manager may
// complete a review.
func (e *Engine) CompleteReview(ctx context.Context, segmentID, actorID int64, req CompleteReviewRequest) (*domain.Segment, error) {
	if strings.TrimSpace(req.FinalText) == "" {
		return nil, domain.Validationf("final text is required")
	}
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	isManager, err := e.access.IsManager(ctx, p, actorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	seg, err := e.mutate(ctx, segmentID, func(seg *domain.Segment) error {
		if !isManager && (seg.ReviewerID == nil || *seg.ReviewerID != actorID) {
			return domain.Forbiddenf("user %d is not the assigned reviewer of segment %d", actorID, seg.ID)
		}
		if err := guard(OpCompleteReview, seg.Status); err != nil {
			return err
		}
		for _, r := range req.Resolutions {
			if err := issues.Resolve(seg.Issues, r.Index, r.resolution(actorID, now)); err != nil {
				return err
			}
		}
		if req.AcceptAll {
			issues.AcceptAll(seg.Issues, actorID, now)
		}

		final := req.FinalText
		seg.FinalText = &final
		if seg.TranslatedText != nil {
			degree := quality.EditDistance(*seg.TranslatedText, final)
			seg.ReviewMeta.ModificationDegree = &degree
		}
		if seg.ReviewerID == nil {
			seg.ReviewerID = &actorID
		}
		seg.SetError("")
		seg.Status = domain.StatusReviewCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.refresh(ctx, seg.FileID)
	return seg, nil
}

// FinalizeSegment scores a completed review, confirms the segment and writes
// the final text to translation memory. The file completion check runs in
// the background.
func (e *Engine) FinalizeSegment(ctx context.Context, segmentID, actorID int64) (*domain.Segment, error) {
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return nil, err
	}

	seg, err := e.mutate(ctx, segmentID, func(seg *domain.Segment) error {
		if err := guard(OpFinalize, seg.Status); err != nil {
			return err
		}
		score := quality.Score(seg.Issues)
		seg.QualityScore = &score
		seg.Status = domain.StatusConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.store.SaveToMemory(ctx, p.ID, seg.SourceText, p.SourceLang, p.TargetLang, seg.Final(), "human"); err != nil {
		e.log.Warn("translation memory write-back failed", "segment_id", seg.ID, diag.Err(err))
	}
	if e.progress != nil {
		e.progress.Schedule(ctx, seg.FileID)
	}
	return seg, nil
}
