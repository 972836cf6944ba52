package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

var fileColumns = []string{
	"id", "project_id", "name", "status", "total", "completed", "translated", "percentage",
	"error_message", "created_at", "updated_at",
}

// CreateFile inserts f together with its raw segment texts, in index order,
// and sets f.ID.
func (s *Store) CreateFile(ctx context.Context, f *domain.File, sources []string) error {
	ts := now()
	if f.Status == "" {
		f.Status = domain.FilePending
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.sq.Insert("files").
			Columns("project_id", "name", "status", "total", "created_at", "updated_at").
			Values(f.ProjectID, f.Name, f.Status, len(sources), ts, ts))
		if err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for i, src := range sources {
			if _, err := s.exec(ctx, tx, s.sq.Insert("segments").
				Columns("file_id", "project_id", "idx", "source_text", "status", "word_count", "created_at", "updated_at").
				Values(id, f.ProjectID, i, src, domain.StatusPending, domain.CountWords(src), ts, ts)); err != nil {
				return fmt.Errorf("insert segment %d: %w", i, err)
			}
		}
		f.ID = id
		f.Progress.Total = len(sources)
		f.CreatedAt = parseTime(ts)
		f.UpdatedAt = f.CreatedAt
		return nil
	})
}

func scanFile(sc interface{ Scan(...any) error }) (*domain.File, error) {
	var f domain.File
	var created, updated string
	if err := sc.Scan(&f.ID, &f.ProjectID, &f.Name, &f.Status, &f.Progress.Total, &f.Progress.Completed,
		&f.Progress.Translated, &f.Progress.Percentage, &f.ErrorMessage, &created, &updated); err != nil {
		return nil, err
	}
	f.CreatedAt = parseTime(created)
	f.UpdatedAt = parseTime(updated)
	return &f, nil
}

// GetFile returns the file or a not-found error.
func (s *Store) GetFile(ctx context.Context, id int64) (*domain.File, error) {
	f, err := scanFile(s.queryRow(ctx, s.db,
		s.sq.Select(fileColumns...).From("files").Where(sq.Eq{"id": id})))
	if isNoRows(err) {
		return nil, domain.NotFound("file", id)
	}
	return f, err
}

// ListFiles returns the files of a project ordered by id.
func (s *Store) ListFiles(ctx context.Context, projectID int64) ([]*domain.File, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select(fileColumns...).From("files").
		Where(sq.Eq{"project_id": projectID}).OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateFileProgress writes the aggregate fields owned by the progress
// aggregator and nothing else.
func (s *Store) UpdateFileProgress(ctx context.Context, id int64, status domain.FileStatus, pr domain.FileProgress, errMsg string) error {
	_, err := s.exec(ctx, s.db, s.sq.Update("files").
		Set("status", status).
		Set("total", pr.Total).
		Set("completed", pr.Completed).
		Set("translated", pr.Translated).
		Set("percentage", pr.Percentage).
		Set("error_message", errMsg).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	return err
}

// CountByStatus counts the segments of a file, and their words, per status.
func (s *Store) CountByStatus(ctx context.Context, fileID int64) ([]domain.StatusCount, error) {
	return s.countByStatus(ctx, sq.Eq{"file_id": fileID})
}

// CountProjectByStatus counts every segment of a project per status.
func (s *Store) CountProjectByStatus(ctx context.Context, projectID int64) ([]domain.StatusCount, error) {
	return s.countByStatus(ctx, sq.Eq{"project_id": projectID})
}

func (s *Store) countByStatus(ctx context.Context, where sq.Eq) ([]domain.StatusCount, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select("status", "COUNT(*)", "COALESCE(SUM(word_count), 0)").
		From("segments").Where(where).GroupBy("status"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StatusCount
	for rows.Next() {
		var c domain.StatusCount
		if err := rows.Scan(&c.Status, &c.Count, &c.Words); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
