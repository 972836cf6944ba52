package store

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         int64
	ProjectID  int64
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts a project term or replaces its target.
func (s *Store) AddGlossaryTerm(ctx context.Context, projectID int64, sourceTerm, targetTerm string) error {
	_, err := s.exec(ctx, s.db, s.sq.Insert("glossary").
		Columns("project_id", "source_term", "target_term", "created_at").
		Values(projectID, sourceTerm, targetTerm, now()).
		Suffix("ON CONFLICT(project_id, source_term) DO UPDATE SET target_term = excluded.target_term"))
	return err
}

// Terms returns the project terminology ordered by source term, ready to
// embed in a translation or review prompt.
func (s *Store) Terms(ctx context.Context, projectID int64) ([]domain.Term, error) {
	entries, err := s.ListGlossaryTerms(ctx, projectID)
	if err != nil {
		return nil, err
	}
	terms := make([]domain.Term, 0, len(entries))
	for _, e := range entries {
		terms = append(terms, domain.Term{Source: e.SourceTerm, Target: e.TargetTerm})
	}
	return terms, nil
}

// ListGlossaryTerms returns the glossary of a project, or every glossary entry
// when projectID is 0.
func (s *Store) ListGlossaryTerms(ctx context.Context, projectID int64) ([]GlossaryEntry, error) {
	q := s.sq.Select("id", "project_id", "source_term", "target_term", "created_at").
		From("glossary").OrderBy("project_id", "source_term")
	if projectID != 0 {
		q = q.Where(sq.Eq{"project_id": projectID})
	}
	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		var created string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.SourceTerm, &e.TargetTerm, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, s.db, s.sq.Delete("glossary").Where(sq.Eq{"id": id}))
	return err
}
