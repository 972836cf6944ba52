package issues

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/diag"
	"github.com/Jjjmaes/AIT-sub001/internal/domain"
	"github.com/Jjjmaes/AIT-sub001/internal/keylock"
)

type Store interface {
	SegmentsWithOpenIssues(ctx context.Context, fileID int64, in []domain.SegmentStatus, f domain.IssueFilter) ([]int64, error)
	ResolveOpenIssues(ctx context.Context, segmentID int64, in []domain.SegmentStatus, f domain.IssueFilter, r domain.Resolution) (int64, error)
}

// BatchResult counts what a batch resolution changed. ResolvedIssues counts
// issues, not segments.
type BatchResult struct {
	ModifiedSegments int   `json:"modified_segments"`
	ResolvedIssues   int64 `json:"resolved_issues"`
}

// Tracker applies resolutions across the segments of a file. Segment locks
// are shared with the workflow engine so a batch never interleaves with a
// review commit on the same segment.
type Tracker struct {
	store Store
	locks *keylock.Map[int64]
	log   *slog.Logger
}

func NewTracker(s Store, locks *keylock.Map[int64], log *slog.Logger) *Tracker {
	return &Tracker{store: s, locks: locks, log: log}
}

// BatchResolve applies r to every open issue in the file that matches f, on
// segments whose status is one of in. Segments in other statuses keep their
// issues untouched. Each issue is updated atomically; the batch as a whole is
// not. Failures are joined into the returned error and the counts still
// report what was changed before and after them.
func (t *Tracker) BatchResolve(ctx context.Context, fileID int64, in []domain.SegmentStatus, f domain.IssueFilter, r domain.Resolution) (BatchResult, error) {
	var res BatchResult
	if err := f.Check(); err != nil {
		return res, err
	}
	if err := Check(r); err != nil {
		return res, err
	}
	if r.ResolvedAt.IsZero() {
		r.ResolvedAt = time.Now().UTC()
	}

	if len(in) == 0 {
		return res, domain.Validationf("batch resolve needs at least one segment status")
	}

	ids, err := t.store.SegmentsWithOpenIssues(ctx, fileID, in, f)
	if err != nil {
		return res, fmt.Errorf("find segments with open issues: %w", err)
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := t.resolveSegment(ctx, id, in, f, r)
		if err != nil {
			t.log.Warn("batch resolve failed for segment", "segment_id", id, diag.Err(err))
			errs = append(errs, fmt.Errorf("segment %d: %w", id, err))
			continue
		}
		if n > 0 {
			res.ModifiedSegments++
			res.ResolvedIssues += n
		}
	}

	t.log.Info("batch resolve finished",
		"file_id", fileID,
		"action", r.Action,
		"segments", res.ModifiedSegments,
		"issues", res.ResolvedIssues,
		"failures", len(errs))
	return res, errors.Join(errs...)
}

// resolveSegment re-checks the status under the segment lock: the segment may
// have moved since it was selected.
func (t *Tracker) resolveSegment(ctx context.Context, id int64, in []domain.SegmentStatus, f domain.IssueFilter, r domain.Resolution) (int64, error) {
	unlock := t.locks.Lock(id)
	defer unlock()
	return t.store.ResolveOpenIssues(ctx, id, in, f, r)
}
