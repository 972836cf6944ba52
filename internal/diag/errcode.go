package diag

import (
	"context"
	"errors"
	"net"

	"github.com/Jjjmaes/AIT-sub001/internal/domain"
)

// Code is a coarse error classification for log aggregation.
type Code string

const (
	CodeUnknown      Code = "unknown"
	CodeValidation   Code = "validation"
	CodeNotFound     Code = "not_found"
	CodeForbidden    Code = "forbidden"
	CodePrecondition Code = "precondition"
	CodeProvider     Code = "provider"
	CodeInvariant    Code = "invariant"
	CodeCancel       Code = "cancel"
	CodeNetwork      Code = "network"
)

// Classify maps err onto a Code using sentinel errors and standard library
// error types only.
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// Cancellation wins over whatever wrapped it.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	switch {
	case errors.Is(err, domain.ErrValidation):
		return CodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrPrecondition):
		return CodePrecondition
	case errors.Is(err, domain.ErrInvariant):
		return CodeInvariant
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return CodeNetwork
	}
	if errors.Is(err, domain.ErrProvider) {
		return CodeProvider
	}
	return CodeUnknown
}
