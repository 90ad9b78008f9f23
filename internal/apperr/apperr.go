// Package apperr defines the error kinds shared by the domain packages and
// their mapping onto the HTTP surface.
package apperr

import (
	"errors"
	"fmt"

	"github.com/Kerhoff/listshare/internal/models"
)

// Kind classifies an error for callers
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindAuthRequired
	KindConflict
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindAuthRequired:
		return "auth_required"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

// Error is a policy or validation failure. Store failures stay plain wrapped
// errors and classify as KindInternal.
type Error struct {
	Kind    Kind
	Message string
	// Reason is the machine readable cause of a visibility denial
	Reason string
	// Owner identifies the list owner on visibility denials so clients can
	// prompt for login or a friend request
	Owner *models.UserSummary
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NotFound builds a KindNotFound error
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden builds a KindForbidden error
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// AuthRequired builds a KindAuthRequired error
func AuthRequired(format string, args ...any) *Error {
	return &Error{Kind: KindAuthRequired, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a KindInvalid error
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// WithOwner attaches the owner reference and denial reason
func (e *Error) WithOwner(reason string, owner models.UserSummary) *Error {
	e.Reason = reason
	ref := owner.OwnerRef()
	e.Owner = &ref
	return e
}

// KindOf returns the kind of err, KindInternal for anything that is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As extracts the *Error from err
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
