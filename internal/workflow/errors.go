package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies workflow errors so callers can react to them.
type Kind int

// Error kinds.
const (
	KindInvalidInput Kind = iota + 1
	KindNotFound
	KindForbidden
	KindConflict
	KindInfrastructure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// Error is returned by every Engine operation that fails.
type Error struct {
	Kind    Kind
	Field   string   // offending input field, for KindInvalidInput
	Message string
	Status  string   // actual transfer status, for KindConflict
	Roles   []string // roles that would have been allowed, for KindForbidden
	Err     error    // underlying cause, for KindInfrastructure
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is.
var (
	ErrInvalidInput   = &Error{Kind: KindInvalidInput}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrForbidden      = &Error{Kind: KindForbidden}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrInfrastructure = &Error{Kind: KindInfrastructure}
)

// KindOf returns the kind of a workflow error, or zero for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidInput(field, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(roles []string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Message: "requires role: " + strings.Join(roles, " or "),
		Roles:   roles,
	}
}

func conflict(status, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Status: status, Message: fmt.Sprintf(format, args...)}
}

func infrastructure(message string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}
