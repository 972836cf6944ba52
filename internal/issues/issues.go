// Package issues manages the lifecycle of the findings attached to a
// segment: single resolution, reopening and file-wide batch resolution.
package issues

import (
	"fmt"
	"time"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// Check validates a resolution before it is applied.
func Check(r domain.Resolution) error {
	if !r.Action.Valid() {
		return domain.Validationf("unknown resolution action %q", r.Action)
	}
	if r.Action == domain.ActionModify && r.EditedText == nil {
		return domain.Validationf("modify resolution requires edited text")
	}
	return nil
}

func at(list []domain.Issue, index int) (*domain.Issue, error) {
	if index < 0 || index >= len(list) {
		return nil, domain.Validationf("issue index %d out of range (segment has %d issues)", index, len(list))
	}
	return &list[index], nil
}

// Resolve settles the issue at index with r. The issue must not already be
// resolved or rejected.
func Resolve(list []domain.Issue, index int, r domain.Resolution) error {
	if err := Check(r); err != nil {
		return err
	}
	is, err := at(list, index)
	if err != nil {
		return err
	}
	if !is.Status.Resolvable() {
		return fmt.Errorf("%w: issue %d is already %s", domain.ErrPrecondition, index, is.Status)
	}
	if r.ResolvedAt.IsZero() {
		r.ResolvedAt = time.Now().UTC()
	}
	is.Status = r.Action.Outcome()
	is.Resolution = &r
	return nil
}

// Reopen sets a resolved or rejected issue back to open and drops its
// resolution record.
func Reopen(list []domain.Issue, index int) error {
	is, err := at(list, index)
	if err != nil {
		return err
	}
	if !is.Status.Settled() {
		return fmt.Errorf("%w: issue %d is %s, not resolved or rejected", domain.ErrPrecondition, index, is.Status)
	}
	is.Status = domain.IssueOpen
	is.Resolution = nil
	return nil
}

// AcceptAll resolves every unsettled issue with an accept action and returns
// how many it changed.
func AcceptAll(list []domain.Issue, by int64, when time.Time) int {
	n := 0
	for i := range list {
		if !list[i].Status.Resolvable() {
			continue
		}
		list[i].Status = domain.IssueResolved
		list[i].Resolution = &domain.Resolution{Action: domain.ActionAccept, ResolvedBy: by, ResolvedAt: when}
		n++
	}
	return n
}
