package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors match their kind through errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrPrecondition = errors.New("precondition failed")
	ErrProvider     = errors.New("provider failed")
	ErrInvariant    = errors.New("invariant violation")
)

// Validationf returns an error of kind ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound returns an error of kind ErrNotFound for the named entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

// Forbiddenf returns an error of kind ErrForbidden.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// PreconditionError reports that the segment status does not permit Op.
type PreconditionError struct {
	Op      string
	Current SegmentStatus
	Reason  string
}

func (e *PreconditionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (status %s)", e.Op, e.Reason, e.Current)
	}
	return fmt.Sprintf("%s not allowed from status %s", e.Op, e.Current)
}

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// ProviderError wraps a failure of an external translation or review capability.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("provider: %v", e.Err)
	}
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// CurrentStatus extracts the segment status carried by a precondition error.
func CurrentStatus(err error) (SegmentStatus, bool) {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe.Current, true
	}
	return "", false
}
