package classroom

import (
	"errors"
	"fmt"
)

// Kind classifies request-local failures. Errors without a Kind are internal.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not found"
	}
	return "internal"
}

// Error is a request-local failure whose message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrDuplicate is returned by stores when an insert hits a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate key")

// ErrNoRows is returned by stores when a delete matched nothing.
var ErrNoRows = errors.New("no rows affected")

func validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(msg string) error {
	return &Error{Kind: KindConflict, Message: msg}
}

func notFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// KindOf returns the kind of err, or 0 when err is internal.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return 0
}
