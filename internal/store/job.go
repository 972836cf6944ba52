package store

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

var jobColumns = []string{
	"id", "type", "status", "project_id", "file_id", "actor_id",
	"total", "done", "failed", "skipped", "error", "created_at", "updated_at",
}

func (s *Store) CreateJob(ctx context.Context, j *domain.Job) error {
	ts := now()
	_, err := s.exec(ctx, s.db, s.sq.Insert("jobs").Columns(jobColumns...).Values(
		j.ID, j.Type, j.Status, j.ProjectID, nullInt64(j.FileID), j.ActorID,
		j.Progress.Total, j.Progress.Done, j.Progress.Failed, j.Progress.Skipped, j.Error, ts, ts))
	if err != nil {
		return err
	}
	j.CreatedAt = parseTime(ts)
	j.UpdatedAt = j.CreatedAt
	return nil
}

// UpdateJob writes the status, counters and error of j.
func (s *Store) UpdateJob(ctx context.Context, j *domain.Job) error {
	ts := now()
	_, err := s.exec(ctx, s.db, s.sq.Update("jobs").
		Set("status", j.Status).
		Set("total", j.Progress.Total).
		Set("done", j.Progress.Done).
		Set("failed", j.Progress.Failed).
		Set("skipped", j.Progress.Skipped).
		Set("error", j.Error).
		Set("updated_at", ts).
		Where(sq.Eq{"id": j.ID}))
	if err == nil {
		j.UpdatedAt = parseTime(ts)
	}
	return err
}

func scanJob(sc interface{ Scan(...any) error }) (*domain.Job, error) {
	var j domain.Job
	var file sql.NullInt64
	var created, updated string
	if err := sc.Scan(&j.ID, &j.Type, &j.Status, &j.ProjectID, &file, &j.ActorID,
		&j.Progress.Total, &j.Progress.Done, &j.Progress.Failed, &j.Progress.Skipped, &j.Error,
		&created, &updated); err != nil {
		return nil, err
	}
	j.FileID = int64Ptr(file)
	j.CreatedAt = parseTime(created)
	j.UpdatedAt = parseTime(updated)
	return &j, nil
}

// GetJob returns the job or a not-found error.
func (s *Store) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	j, err := scanJob(s.queryRow(ctx, s.db, s.sq.Select(jobColumns...).From("jobs").Where(sq.Eq{"id": id})))
	if isNoRows(err) {
		return nil, domain.NotFound("job", id)
	}
	return j, err
}

// ListJobs returns the most recent jobs first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.query(ctx, s.db, s.sq.Select(jobColumns...).From("jobs").
		OrderBy("created_at DESC").Limit(uint64(limit)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Store) AddJobItem(ctx context.Context, it *domain.JobItem) error {
	ts := now()
	res, err := s.exec(ctx, s.db, s.sq.Insert("job_items").
		Columns("job_id", "segment_id", "status", "error", "created_at").
		Values(it.JobID, it.SegmentID, it.Status, it.Error, ts))
	if err != nil {
		return err
	}
	it.ID, _ = res.LastInsertId()
	it.CreatedAt = parseTime(ts)
	return nil
}

func (s *Store) ListJobItems(ctx context.Context, jobID string) ([]domain.JobItem, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select("id", "job_id", "segment_id", "status", "error", "created_at").
		From("job_items").Where(sq.Eq{"job_id": jobID}).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobItem
	for rows.Next() {
		var it domain.JobItem
		var created string
		if err := rows.Scan(&it.ID, &it.JobID, &it.SegmentID, &it.Status, &it.Error, &created); err != nil {
			return nil, err
		}
		it.CreatedAt = parseTime(created)
		out = append(out, it)
	}
	return out, rows.Err()
}

// AbandonJobs marks jobs left queued or running by a previous process as
// canceled and returns how many were changed.
func (s *Store) AbandonJobs(ctx context.Context, reason string) (int64, error) {
	res, err := s.exec(ctx, s.db, s.sq.Update("jobs").
		Set("status", domain.JobCanceled).
		Set("error", reason).
		Set("updated_at", now()).
		Where(sq.Eq{"status": []domain.JobStatus{domain.JobQueued, domain.JobRunning}}))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
