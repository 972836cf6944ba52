package workflow

import (
	"context"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/issues"
)

// ResolveIssue resolves one issue of a segment outside review completion.
func (e *Engine) ResolveIssue(ctx context.Context, segmentID int64, index int, actorID int64, r IssueResolution) (*domain.Segment, error) {
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return e.mutate(ctx, segmentID, func(seg *domain.Segment) error {
		if err := guard(OpResolveIssue, seg.Status); err != nil {
			return err
		}
		return issues.Resolve(seg.Issues, index, r.resolution(actorID, now))
	})
}

// ReopenIssue sets a resolved or rejected issue back to open. A segment whose
// review was already completed or confirmed returns to review_pending and
// loses its quality score, and the file progress is recomputed so a
// completed file is demoted.
func (e *Engine) ReopenIssue(ctx context.Context, segmentID int64, index int, actorID int64) (*domain.Segment, error) {
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return nil, err
	}
	var demoted bool
	seg, err := e.mutate(ctx, segmentID, func(seg *domain.Segment) error {
		if err := guard(OpReopenIssue, seg.Status); err != nil {
			return err
		}
		if err := issues.Reopen(seg.Issues, index); err != nil {
			return err
		}
		if seg.Status == domain.StatusReviewCompleted || seg.Status == domain.StatusConfirmed {
			seg.Status = domain.StatusReviewPending
			seg.QualityScore = nil
			demoted = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if demoted {
		e.log.Info("segment returned to review", "segment_id", seg.ID, "issue", index)
		e.refresh(ctx, seg.FileID)
	}
	return seg, nil
}

// AddIssue attaches a human finding to a segment. Type, severity and
// description are required; the issue starts open.
func (e *Engine) AddIssue(ctx context.Context, segmentID, actorID int64, is domain.Issue) (*domain.Segment, error) {
	is.Status = domain.IssueOpen
	is.Resolution = nil
	is.CreatedBy = &actorID
	is.CreatedAt = time.Now().UTC()
	if err := is.Check(); err != nil {
		return nil, err
	}
	_, p, err := e.load(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return nil, err
	}
	return e.mutate(ctx, segmentID, func(seg *domain.Segment) error {
		if err := guard(OpAddIssue, seg.Status); err != nil {
			return err
		}
		seg.Issues = append(seg.Issues, is)
		return nil
	})
}

// BatchResolveIssues applies one resolution to every open issue in the file
// matching filter, on segments from which resolve_issue is allowed. See
// issues.Tracker.BatchResolve for the failure contract.
func (e *Engine) BatchResolveIssues(ctx context.Context, fileID, actorID int64, filter domain.IssueFilter, r IssueResolution) (issues.BatchResult, error) {
	f, err := e.store.GetFile(ctx, fileID)
	if err != nil {
		return issues.BatchResult{}, err
	}
	p, err := e.store.GetProject(ctx, f.ProjectID)
	if err != nil {
		return issues.BatchResult{}, err
	}
	if err := e.access.Require(ctx, p, actorID, domain.RoleReviewer); err != nil {
		return issues.BatchResult{}, err
	}
	return e.tracker.BatchResolve(ctx, fileID, Sources(OpResolveIssue), filter, r.resolution(actorID, time.Now().UTC()))
}
