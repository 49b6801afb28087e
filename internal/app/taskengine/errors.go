package taskengine

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures for callers that map them to responses.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindForbidden
	KindInvalidState
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	}
	return "unknown"
}

// Sentinels for errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

// Error is returned for every domain failure. Infrastructure failures are
// returned wrapped with %w and are never an *Error.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrInvalidState:
		return e.Kind == KindInvalidState
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

// KindOf returns the kind of err, or 0 when err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func notFound(op, reason string) error {
	return &Error{Kind: KindNotFound, Op: op, Reason: reason}
}

func forbidden(op, reason string) error {
	return &Error{Kind: KindForbidden, Op: op, Reason: reason}
}

func invalidState(op, reason string) error {
	return &Error{Kind: KindInvalidState, Op: op, Reason: reason}
}

func validation(op, reason string) error {
	return &Error{Kind: KindValidation, Op: op, Reason: reason}
}
