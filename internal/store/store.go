package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// Store is the SQLite persistence layer for projects, files, segments and
// their issues, the translation memory, the glossary and background jobs.
type Store struct {
	db *sql.DB
	sq sq.StatementBuilderType
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers; SQLite allows only one anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, sq: sq.StatementBuilder}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		manager_id INTEGER NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		completion_percentage INTEGER NOT NULL DEFAULT 0,
		translated_words INTEGER NOT NULL DEFAULT 0,
		total_words INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (project_id, user_id),
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		total INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		translated INTEGER NOT NULL DEFAULT 0,
		percentage INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS segments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL,
		project_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		source_text TEXT NOT NULL,
		translated_text TEXT,
		final_text TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		translation_meta TEXT NOT NULL DEFAULT '{}',
		review_meta TEXT NOT NULL DEFAULT '{}',
		quality_score INTEGER,
		reviewer_id INTEGER,
		error_message TEXT,
		word_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(file_id, idx),
		FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
	);

	-- segment_issues holds the issue list of a segment; position is the index
	-- callers use to address an issue.
	CREATE TABLE IF NOT EXISTS segment_issues (
		segment_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		source_start INTEGER,
		source_end INTEGER,
		target_start INTEGER,
		target_end INTEGER,
		suggestion TEXT,
		status TEXT NOT NULL DEFAULT 'open',
		res_action TEXT,
		res_edited_text TEXT,
		res_comment TEXT,
		res_by INTEGER,
		res_at TEXT,
		created_by INTEGER,
		created_at TEXT NOT NULL,
		PRIMARY KEY (segment_id, position),
		FOREIGN KEY (segment_id) REFERENCES segments(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		target_text TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT '',
		usage_count INTEGER NOT NULL DEFAULT 1,
		invalidated BOOLEAN NOT NULL DEFAULT FALSE,
		last_used TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(project_id, source_text, source_lang, target_lang)
	);

	-- glossary stores project terminology injected into translation and review
	CREATE TABLE IF NOT EXISTS glossary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(project_id, source_term)
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		project_id INTEGER NOT NULL,
		file_id INTEGER,
		actor_id INTEGER NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		done INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS job_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		segment_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);
	CREATE INDEX IF NOT EXISTS idx_segments_file ON segments(file_id, idx);
	CREATE INDEX IF NOT EXISTS idx_segments_project ON segments(project_id);
	CREATE INDEX IF NOT EXISTS idx_issues_status ON segment_issues(status);
	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(project_id, source_lang, target_lang, source_text);
	CREATE INDEX IF NOT EXISTS idx_glossary_project ON glossary(project_id);
	CREATE INDEX IF NOT EXISTS idx_job_items_job ON job_items(job_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx runs fn within a transaction. fn must only use tx: the pool has a
// single connection, so reaching for s.db inside fn deadlocks.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) exec(ctx context.Context, db dbtx, q sq.Sqlizer) (sql.Result, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return db.ExecContext(ctx, sqlStr, args...)
}

func (s *Store) query(ctx context.Context, db dbtx, q sq.Sqlizer) (*sql.Rows, error) {
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryContext(ctx, sqlStr, args...)
}

func (s *Store) queryRow(ctx context.Context, db dbtx, q sq.Sqlizer) *sql.Row {
	// Builders here are static; a build error leaves sqlStr empty and
	// surfaces from Scan.
	sqlStr, args, _ := q.ToSql()
	return db.QueryRowContext(ctx, sqlStr, args...)
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent memory key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func now() string { return formatTime(time.Now()) }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}
