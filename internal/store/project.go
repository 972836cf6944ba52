package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

var projectColumns = []string{
	"id", "name", "source_lang", "target_lang", "manager_id", "domain", "instructions",
	"status", "completion_percentage", "translated_words", "total_words", "created_at", "updated_at",
}

// CreateProject inserts p, registers its manager as a member and sets p.ID.
func (s *Store) CreateProject(ctx context.Context, p *domain.Project) error {
	ts := now()
	if p.Status == "" {
		p.Status = domain.ProjectPending
	}
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, s.sq.Insert("projects").
			Columns("name", "source_lang", "target_lang", "manager_id", "domain", "instructions", "status", "created_at", "updated_at").
			Values(p.Name, p.SourceLang, p.TargetLang, p.ManagerID, p.Domain, p.Instructions, p.Status, ts, ts))
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := s.exec(ctx, tx, s.sq.Insert("project_members").
			Columns("project_id", "user_id", "role", "created_at").
			Values(id, p.ManagerID, domain.RoleManager, ts)); err != nil {
			return fmt.Errorf("insert manager: %w", err)
		}
		p.ID = id
		p.CreatedAt = parseTime(ts)
		p.UpdatedAt = p.CreatedAt
		return nil
	})
}

func scanProject(sc interface{ Scan(...any) error }) (*domain.Project, error) {
	var p domain.Project
	var created, updated string
	if err := sc.Scan(&p.ID, &p.Name, &p.SourceLang, &p.TargetLang, &p.ManagerID, &p.Domain, &p.Instructions,
		&p.Status, &p.Progress.CompletionPercentage, &p.Progress.TranslatedWords, &p.Progress.TotalWords,
		&created, &updated); err != nil {
		return nil, err
	}
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	return &p, nil
}

// GetProject returns the project or a not-found error.
func (s *Store) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := scanProject(s.queryRow(ctx, s.db,
		s.sq.Select(projectColumns...).From("projects").Where(sq.Eq{"id": id})))
	if isNoRows(err) {
		return nil, domain.NotFound("project", id)
	}
	return p, err
}

// ListProjects returns all projects ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select(projectColumns...).From("projects").OrderBy("id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProjectProgress writes the aggregate fields owned by the progress
// aggregator and nothing else.
func (s *Store) UpdateProjectProgress(ctx context.Context, id int64, status domain.ProjectStatus, pr domain.ProjectProgress) error {
	_, err := s.exec(ctx, s.db, s.sq.Update("projects").
		Set("status", status).
		Set("completion_percentage", pr.CompletionPercentage).
		Set("translated_words", pr.TranslatedWords).
		Set("total_words", pr.TotalWords).
		Set("updated_at", now()).
		Where(sq.Eq{"id": id}))
	return err
}

// AddMember inserts or updates the role of a user on a project.
func (s *Store) AddMember(ctx context.Context, m domain.Member) error {
	if !m.Role.Valid() {
		return domain.Validationf("unknown role %q", m.Role)
	}
	_, err := s.exec(ctx, s.db, s.sq.Insert("project_members").
		Columns("project_id", "user_id", "role", "created_at").
		Values(m.ProjectID, m.UserID, m.Role, now()).
		Suffix("ON CONFLICT(project_id, user_id) DO UPDATE SET role = excluded.role"))
	return err
}

// MemberRole returns the role of userID on projectID, or "" when the user is
// not a member.
func (s *Store) MemberRole(ctx context.Context, projectID, userID int64) (domain.Role, error) {
	var role domain.Role
	err := s.queryRow(ctx, s.db, s.sq.Select("role").From("project_members").
		Where(sq.Eq{"project_id": projectID, "user_id": userID})).Scan(&role)
	if isNoRows(err) {
		return "", nil
	}
	return role, err
}

// ListMembers returns the members of a project ordered by user id.
func (s *Store) ListMembers(ctx context.Context, projectID int64) ([]domain.Member, error) {
	rows, err := s.query(ctx, s.db, s.sq.Select("project_id", "user_id", "role", "created_at").
		From("project_members").Where(sq.Eq{"project_id": projectID}).OrderBy("user_id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		var created string
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}
