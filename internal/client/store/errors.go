package store

import (
	"errors"
	"fmt"
)

// Kind classifies store failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
)

func (k Kind) String() string {
	if k == KindNotFound {
		return "not found"
	}
	return "unknown"
}

// Error is a classified store failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("store: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a classification.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the classification from err, defaulting to KindUnknown
// for unclassified errors and to -1 for nil.
func KindOf(err error) Kind {
	if err == nil {
		return -1
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
