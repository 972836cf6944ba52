package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// ErrConflict is returned by SaveSegment when the stored status no longer
// matches the one the caller claimed.
var ErrConflict = fmt.Errorf("%w: segment changed concurrently", domain.ErrPrecondition)

var segmentColumns = []string{
	"id", "file_id", "project_id", "idx", "source_text", "translated_text", "final_text", "status",
	"translation_meta", "review_meta", "quality_score", "reviewer_id", "error_message", "word_count",
	"created_at", "updated_at",
}

var issueColumns = []string{
	"segment_id", "position", "type", "severity", "description",
	"source_start", "source_end", "target_start", "target_end", "suggestion", "status",
	"res_action", "res_edited_text", "res_comment", "res_by", "res_at", "created_by", "created_at",
}

func scanSegment(sc interface{ Scan(...any) error }) (*domain.Segment, error) {
	var seg domain.Segment
	var translated, final, errMsg sql.NullString
	var score, reviewer sql.NullInt64
	var tmeta, rmeta, created, updated string
	if err := sc.Scan(&seg.ID, &seg.FileID, &seg.ProjectID, &seg.Index, &seg.SourceText, &translated, &final,
		&seg.Status, &tmeta, &rmeta, &score, &reviewer, &errMsg, &seg.WordCount, &created, &updated); err != nil {
		return nil, err
	}
	seg.TranslatedText = stringPtr(translated)
	seg.FinalText = stringPtr(final)
	seg.ErrorMessage = stringPtr(errMsg)
	seg.ReviewerID = int64Ptr(reviewer)
	if score.Valid {
		v := int(score.Int64)
		seg.QualityScore = &v
	}
	if err := json.Unmarshal([]byte(tmeta), &seg.TranslationMeta); err != nil {
		return nil, fmt.Errorf("segment %d translation meta: %w", seg.ID, err)
	}
	if err := json.Unmarshal([]byte(rmeta), &seg.ReviewMeta); err != nil {
		return nil, fmt.Errorf("segment %d review meta: %w", seg.ID, err)
	}
	seg.CreatedAt = parseTime(created)
	seg.UpdatedAt = parseTime(updated)
	return &seg, nil
}

func scanIssue(sc interface{ Scan(...any) error }) (int64, domain.Issue, error) {
	var (
		segID, pos                         int64
		is                                 domain.Issue
		srcStart, srcEnd, tgtStart, tgtEnd sql.NullInt64
		suggestion, action, edited, note   sql.NullString
		resAt                              sql.NullString
		resBy, createdBy                   sql.NullInt64
		created                            string
	)
	if err := sc.Scan(&segID, &pos, &is.Type, &is.Severity, &is.Description,
		&srcStart, &srcEnd, &tgtStart, &tgtEnd, &suggestion, &is.Status,
		&action, &edited, &note, &resBy, &resAt, &createdBy, &created); err != nil {
		return 0, is, err
	}
	if srcStart.Valid && srcEnd.Valid {
		is.SourceSpan = &domain.Span{Start: int(srcStart.Int64), End: int(srcEnd.Int64)}
	}
	if tgtStart.Valid && tgtEnd.Valid {
		is.TargetSpan = &domain.Span{Start: int(tgtStart.Int64), End: int(tgtEnd.Int64)}
	}
	is.Suggestion = stringPtr(suggestion)
	is.CreatedBy = int64Ptr(createdBy)
	is.CreatedAt = parseTime(created)
	if action.Valid {
		is.Resolution = &domain.Resolution{
			Action:     domain.Action(action.String),
			EditedText: stringPtr(edited),
			Comment:    note.String,
			ResolvedBy: resBy.Int64,
			ResolvedAt: parseTime(resAt.String),
		}
	}
	return segID, is, nil
}

// GetSegment returns the segment with its issues, or a not-found error.
func (s *Store) GetSegment(ctx context.Context, id int64) (*domain.Segment, error) {
	seg, err := scanSegment(s.queryRow(ctx, s.db,
		s.sq.Select(segmentColumns...).From("segments").Where(sq.Eq{"id": id})))
	if isNoRows(err) {
		return nil, domain.NotFound("segment", id)
	}
	if err != nil {
		return nil, err
	}
	issues, err := s.loadIssues(ctx, sq.Eq{"segment_id": id})
	if err != nil {
		return nil, err
	}
	seg.Issues = issues[id]
	return seg, nil
}

// ListSegments returns the segments of a file in index order, with issues.
func (s *Store) ListSegments(ctx context.Context, fileID int64) ([]*domain.Segment, error) {
	segs, err := s.listSegments(ctx, sq.Eq{"file_id": fileID})
	if err != nil {
		return nil, err
	}
	issues, err := s.loadIssues(ctx, sq.Expr("segment_id IN (SELECT id FROM segments WHERE file_id = ?)", fileID))
	if err != nil {
		return nil, err
	}
	for _, seg := range segs {
		seg.Issues = issues[seg.ID]
	}
	return segs, nil
}

// Neighbours returns the segments within n positions of index in the same
// file, excluding the segment at index, in index order. Issues are not loaded.
func (s *Store) Neighbours(ctx context.Context, fileID int64, index, n int) ([]*domain.Segment, error) {
	if n <= 0 {
		return nil, nil
	}
	return s.listSegments(ctx, sq.And{
		sq.Eq{"file_id": fileID},
		sq.GtOrEq{"idx": index - n},
		sq.LtOrEq{"idx": index + n},
		sq.NotEq{"idx": index},
	})
}

func (s *Store) listSegments(ctx context.Context, where sq.Sqlizer) ([]*domain.Segment, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select(segmentColumns...).From("segments").Where(where).OrderBy("idx"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

func (s *Store) loadIssues(ctx context.Context, where sq.Sqlizer) (map[int64][]domain.Issue, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select(issueColumns...).From("segment_issues").
		Where(where).OrderBy("segment_id", "position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64][]domain.Issue)
	for rows.Next() {
		segID, is, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out[segID] = append(out[segID], is)
	}
	return out, rows.Err()
}

// ClaimSegment atomically moves the segment from one of the statuses in from
// to status to, applying any extra column assignments. It reports false when
// the stored status was not in from.
func (s *Store) ClaimSegment(ctx context.Context, id int64, from []domain.SegmentStatus, to domain.SegmentStatus, extra map[string]any) (bool, error) {
	q := s.sq.Update("segments").
		Set("status", to).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id, "status": from})
	for col, v := range extra {
		q = q.Set(col, v)
	}
	res, err := s.exec(ctx, s.db, q)
	if err != nil {
		return false, fmt.Errorf("claim segment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// abandonedClaims maps each in-flight claim status to the failure status a
// segment falls back to when its claimant is gone.
var abandonedClaims = map[domain.SegmentStatus]domain.SegmentStatus{
	domain.StatusTranslating: domain.StatusTranslationFailed,
	domain.StatusReviewing:   domain.StatusReviewFailed,
}

// AbandonClaims releases segments left translating or reviewing by a previous
// process: they move to the matching failure status with reason as their
// error message, from where an explicit retry is allowed. It returns the
// number of segments released and the files they belong to.
func (s *Store) AbandonClaims(ctx context.Context, reason string) (int64, []int64, error) {
	var total int64
	var files []int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := s.query(ctx, tx, s.sq.Select("file_id").Distinct().From("segments").
			Where(sq.Eq{"status": []domain.SegmentStatus{domain.StatusTranslating, domain.StatusReviewing}}).
			OrderBy("file_id"))
		if err != nil {
			return err
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			files = append(files, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		ts := now()
		for from, to := range abandonedClaims {
			res, err := s.exec(ctx, tx, s.sq.Update("segments").
				Set("status", to).
				Set("error_message", reason).
				Set("updated_at", ts).
				Where(sq.Eq{"status": from}))
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("abandon segment claims: %w", err)
	}
	return total, files, nil
}

// SaveSegment writes every mutable field of seg and replaces its issue list,
// provided the stored status is still expect. Otherwise it returns ErrConflict
// and writes nothing.
func (s *Store) SaveSegment(ctx context.Context, seg *domain.Segment, expect domain.SegmentStatus) error {
	tmeta, err := json.Marshal(seg.TranslationMeta)
	if err != nil {
		return err
	}
	rmeta, err := json.Marshal(seg.ReviewMeta)
	if err != nil {
		return err
	}
	var score sql.NullInt64
	if seg.QualityScore != nil {
		score = sql.NullInt64{Int64: int64(*seg.QualityScore), Valid: true}
	}
	ts := now()

	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.sq.Update("segments").
			Set("translated_text", nullString(seg.TranslatedText)).
			Set("final_text", nullString(seg.FinalText)).
			Set("status", seg.Status).
			Set("translation_meta", string(tmeta)).
			Set("review_meta", string(rmeta)).
			Set("quality_score", score).
			Set("reviewer_id", nullInt64(seg.ReviewerID)).
			Set("error_message", nullString(seg.ErrorMessage)).
			Set("updated_at", ts).
			Where(sq.Eq{"id": seg.ID, "status": expect}))
		if err != nil {
			return fmt.Errorf("update segment %d: %w", seg.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrConflict
		}
		return s.replaceIssues(ctx, tx, seg.ID, seg.Issues)
	})
	if err != nil {
		return err
	}
	seg.UpdatedAt = parseTime(ts)
	return nil
}

func (s *Store) replaceIssues(ctx context.Context, tx *sql.Tx, segID int64, issues []domain.Issue) error {
	if _, err := s.exec(ctx, tx, s.sq.Delete("segment_issues").Where(sq.Eq{"segment_id": segID})); err != nil {
		return fmt.Errorf("clear issues of segment %d: %w", segID, err)
	}
	for i, is := range issues {
		var srcStart, srcEnd, tgtStart, tgtEnd sql.NullInt64
		if is.SourceSpan != nil {
			srcStart = sql.NullInt64{Int64: int64(is.SourceSpan.Start), Valid: true}
			srcEnd = sql.NullInt64{Int64: int64(is.SourceSpan.End), Valid: true}
		}
		if is.TargetSpan != nil {
			tgtStart = sql.NullInt64{Int64: int64(is.TargetSpan.Start), Valid: true}
			tgtEnd = sql.NullInt64{Int64: int64(is.TargetSpan.End), Valid: true}
		}
		var action, edited, note, resAt sql.NullString
		var resBy sql.NullInt64
		if r := is.Resolution; r != nil {
			action = sql.NullString{String: string(r.Action), Valid: true}
			edited = nullString(r.EditedText)
			note = sql.NullString{String: r.Comment, Valid: true}
			resBy = sql.NullInt64{Int64: r.ResolvedBy, Valid: true}
			resAt = sql.NullString{String: formatTime(r.ResolvedAt), Valid: true}
		}
		created := is.CreatedAt
		if created.IsZero() {
			created = parseTime(now())
		}
		if _, err := s.exec(ctx, tx, s.sq.Insert("segment_issues").Columns(issueColumns...).Values(
			segID, i, is.Type, is.Severity, is.Description,
			srcStart, srcEnd, tgtStart, tgtEnd, nullString(is.Suggestion), is.Status,
			action, edited, note, resBy, resAt, nullInt64(is.CreatedBy), formatTime(created),
		)); err != nil {
			return fmt.Errorf("insert issue %d of segment %d: %w", i, segID, err)
		}
	}
	return nil
}

func issueFilterWhere(f domain.IssueFilter) sq.And {
	where := sq.And{sq.Eq{"segment_issues.status": domain.IssueOpen}}
	if len(f.Types) > 0 {
		where = append(where, sq.Eq{"segment_issues.type": f.Types})
	}
	if len(f.Severities) > 0 {
		where = append(where, sq.Eq{"segment_issues.severity": f.Severities})
	}
	return where
}

// SegmentsWithOpenIssues returns the ids, in index order, of the segments of a
// file holding at least one open issue that matches f. A non-empty in limits
// the result to segments in one of those statuses.
func (s *Store) SegmentsWithOpenIssues(ctx context.Context, fileID int64, in []domain.SegmentStatus, f domain.IssueFilter) ([]int64, error) {
	where := append(issueFilterWhere(f), sq.Eq{"segments.file_id": fileID})
	if len(in) > 0 {
		where = append(where, sq.Eq{"segments.status": in})
	}
	rows, err := s.query(ctx, s.db, s.sq.Select("segments.id").Distinct().
		From("segment_issues").
		Join("segments ON segments.id = segment_issues.segment_id").
		Where(where).
		OrderBy("segments.idx"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResolveOpenIssues applies r to every open issue of the segment that matches
// f, one conditional update evaluated per issue row, and returns the number
// of issues changed. A segment whose status is not in a non-empty in is left
// alone and reports zero.
func (s *Store) ResolveOpenIssues(ctx context.Context, segmentID int64, in []domain.SegmentStatus, f domain.IssueFilter, r domain.Resolution) (int64, error) {
	where := append(issueFilterWhere(f), sq.Eq{"segment_issues.segment_id": segmentID})
	var changed int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if len(in) > 0 {
			var status domain.SegmentStatus
			err := s.queryRow(ctx, tx, s.sq.Select("status").From("segments").Where(sq.Eq{"id": segmentID})).Scan(&status)
			if isNoRows(err) {
				return domain.NotFound("segment", segmentID)
			}
			if err != nil {
				return err
			}
			if !slices.Contains(in, status) {
				return nil
			}
		}
		res, err := s.exec(ctx, tx, s.sq.Update("segment_issues").
			Set("status", r.Action.Outcome()).
			Set("res_action", r.Action).
			Set("res_edited_text", nullString(r.EditedText)).
			Set("res_comment", r.Comment).
			Set("res_by", r.ResolvedBy).
			Set("res_at", formatTime(r.ResolvedAt)).
			Where(where))
		if err != nil {
			return err
		}
		if changed, err = res.RowsAffected(); err != nil {
			return err
		}
		if changed == 0 {
			return nil
		}
		_, err = s.exec(ctx, tx, s.sq.Update("segments").Set("updated_at", now()).Where(sq.Eq{"id": segmentID}))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("resolve issues of segment %d: %w", segmentID, err)
	}
	return changed, nil
}
