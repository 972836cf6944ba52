package domain

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
)

// ProjectProgress is the word-weighted rollup of every file in a project.
type ProjectProgress struct {
	CompletionPercentage int `json:"completion_percentage"`
	TranslatedWords      int `json:"translated_words"`
	TotalWords           int `json:"total_words"`
}

type Project struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SourceLang   string          `json:"source_lang"`
	TargetLang   string          `json:"target_lang"`
	ManagerID    int64           `json:"manager_id"`
	Domain       string          `json:"domain"`
	Instructions string          `json:"instructions"`
	Status       ProjectStatus   `json:"status"`
	Progress     ProjectProgress `json:"progress"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Check validates the fields a caller must supply when creating a project.
func (p *Project) Check() error {
	if strings.TrimSpace(p.Name) == "" {
		return Validationf("project name is required")
	}
	if p.ManagerID == 0 {
		return Validationf("project manager is required")
	}
	for _, code := range []string{p.SourceLang, p.TargetLang} {
		if _, err := language.Parse(code); err != nil {
			return Validationf("invalid language %q: %v", code, err)
		}
	}
	if p.SourceLang == p.TargetLang {
		return Validationf("source and target language must differ")
	}
	return nil
}

// Role is the relationship of a user to a project.
type Role string

const (
	RoleManager    Role = "manager"
	RoleReviewer   Role = "reviewer"
	RoleTranslator Role = "translator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleManager || r == RoleReviewer || r == RoleTranslator
}

type Member struct {
	ProjectID int64     `json:"project_id"`
	UserID    int64     `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Term is one terminology pair injected into translation and review requests.
type Term struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
