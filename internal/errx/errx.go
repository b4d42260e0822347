// Package errx provides application error kinds shared by the storage, service
// and chat layers. Handlers switch on the kind to pick the reply a user sees;
// anything without a recognised kind is treated as an internal failure.

package errx

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	NotFound
	Conflict
	Invalid
	Unauthorized
	Forbidden
	LimitExceeded
	Unavailable
	Internal
)

// Error records the operation that failed and how it should be classified.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with an operation and a kind. It returns nil for a nil err so
// call sites can wrap unconditionally.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case Invalid:
		return "Invalid"
	case Unauthorized:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case LimitExceeded:
		return "LimitExceeded"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Recoverable reports whether the kind describes a caller mistake that is
// answered with a message rather than surfaced as a failure.
func (k Kind) Recoverable() bool {
	switch k {
	case NotFound, Conflict, Invalid, Unauthorized, Forbidden, LimitExceeded:
		return true
	default:
		return false
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// OpOf returns the operation of the outermost *Error in err's chain.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
