package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          int64
	ProjectID   int64
	SourceText  string
	SourceLang  string
	TargetLang  string
	TargetText  string
	Origin      string
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
}

// LookupMemory returns the active entry whose normalised source text equals
// sourceText within the project and language pair, and bumps its usage.
func (s *Store) LookupMemory(ctx context.Context, projectID int64, sourceText, sourceLang, targetLang string) (string, bool, error) {
	key := sq.Eq{
		"project_id":  projectID,
		"source_text": normalizeText(sourceText),
		"source_lang": sourceLang,
		"target_lang": targetLang,
	}
	var targetText string
	var invalidated bool
	err := s.queryRow(ctx, s.db, s.sq.Select("target_text", "invalidated").From("translation_memory").Where(key)).
		Scan(&targetText, &invalidated)
	if isNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if invalidated {
		return "", false, nil
	}

	_, err = s.exec(ctx, s.db, s.sq.Update("translation_memory").
		Set("usage_count", sq.Expr("usage_count + 1")).
		Set("last_used", now()).
		Where(key))
	return targetText, true, err
}

// MemoryCandidates returns the active entries of the project and language pair
// whose source length, in characters, lies within [minLen, maxLen].
func (s *Store) MemoryCandidates(ctx context.Context, projectID int64, sourceLang, targetLang string, minLen, maxLen int) ([]MemoryEntry, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select("id", "source_text", "target_text").From("translation_memory").
		Where(sq.Eq{"project_id": projectID, "source_lang": sourceLang, "target_lang": targetLang, "invalidated": false}).
		Where("length(source_text) BETWEEN ? AND ?", minLen, maxLen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MemoryEntry
	for rows.Next() {
		e := MemoryEntry{ProjectID: projectID, SourceLang: sourceLang, TargetLang: targetLang}
		if err := rows.Scan(&e.ID, &e.SourceText, &e.TargetText); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveToMemory inserts or refreshes the entry for the normalised source text.
// A refreshed entry is re-activated.
func (s *Store) SaveToMemory(ctx context.Context, projectID int64, sourceText, sourceLang, targetLang, targetText, origin string) error {
	ts := now()
	_, err := s.exec(ctx, s.db, s.sq.Insert("translation_memory").
		Columns("project_id", "source_text", "source_lang", "target_lang", "target_text", "origin", "usage_count", "invalidated", "last_used", "created_at").
		Values(projectID, normalizeText(sourceText), sourceLang, targetLang, targetText, origin, 1, false, ts, ts).
		Suffix(`ON CONFLICT(project_id, source_text, source_lang, target_lang) DO UPDATE SET
			target_text = excluded.target_text, origin = excluded.origin,
			invalidated = FALSE, last_used = excluded.last_used`))
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}

func (s *Store) InvalidateMemory(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, s.db, s.sq.Update("translation_memory").Set("invalidated", true).Where(sq.Eq{"id": id}))
	return err
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id int64) error {
	_, err := s.exec(ctx, s.db, s.sq.Delete("translation_memory").Where(sq.Eq{"id": id}))
	return err
}

// ClearMemory removes the translation memory of one project, or of every
// project when projectID is 0.
func (s *Store) ClearMemory(ctx context.Context, projectID int64) (int64, error) {
	q := s.sq.Delete("translation_memory")
	if projectID != 0 {
		q = q.Where(sq.Eq{"project_id": projectID})
	}
	res, err := s.exec(ctx, s.db, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns translation memory entries ordered by most recently used,
// for one project or for all when projectID is 0.
func (s *Store) ListMemory(ctx context.Context, projectID int64) ([]MemoryEntry, error) {
	q := s.sq.Select("id", "project_id", "source_text", "source_lang", "target_lang", "target_text",
		"origin", "usage_count", "invalidated", "last_used").
		From("translation_memory").OrderBy("last_used DESC", "id DESC")
	if projectID != 0 {
		q = q.Where(sq.Eq{"project_id": projectID})
	}
	rows, err := s.query(ctx, s.db, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		var lastUsed string
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.TargetText,
			&e.Origin, &e.UsageCount, &e.Invalidated, &lastUsed); err != nil {
			return nil, err
		}
		e.LastUsed = parseTime(lastUsed)
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.queryRow(ctx, s.db, s.sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(usage_count), 0)",
	).From("translation_memory")).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
