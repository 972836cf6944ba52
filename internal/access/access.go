// Package access decides whether a user may act on a project.
package access

import (
	"context"
	"fmt"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

type Store interface {
	MemberRole(ctx context.Context, projectID, userID int64) (domain.Role, error)
}

type Checker struct {
	store Store
}

func NewChecker(s Store) *Checker {
	return &Checker{store: s}
}

// Require returns nil when actor manages the project or is a member holding
// one of roles. With no roles any member passes.
func (c *Checker) Require(ctx context.Context, p *domain.Project, actor int64, roles ...domain.Role) error {
	if actor == p.ManagerID {
		return nil
	}
	role, err := c.store.MemberRole(ctx, p.ID, actor)
	if err != nil {
		return fmt.Errorf("member role: %w", err)
	}
	if role == "" {
		return domain.Forbiddenf("user %d is not a member of project %d", actor, p.ID)
	}
	if role == domain.RoleManager || len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if role == r {
			return nil
		}
	}
	return domain.Forbiddenf("user %d has role %s on project %d, need one of %v", actor, role, p.ID, roles)
}

// IsManager reports whether actor manages the project, either as its owner or
// through a manager membership.
func (c *Checker) IsManager(ctx context.Context, p *domain.Project, actor int64) (bool, error) {
	if actor == p.ManagerID {
		return true, nil
	}
	role, err := c.store.MemberRole(ctx, p.ID, actor)
	if err != nil {
		return false, fmt.Errorf("member role: %w", err)
	}
	return role == domain.RoleManager, nil
}
