package identity

import (
	"errors"
	"fmt"
)

// Kind classifies identity failures so the UI layer can pick a message
// without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmailInUse
	KindInvalidEmail
	KindWeakPassword
	KindUserDisabled
	KindUserNotFound
	KindWrongPassword
)

func (k Kind) String() string {
	switch k {
	case KindEmailInUse:
		return "email in use"
	case KindInvalidEmail:
		return "invalid email"
	case KindWeakPassword:
		return "weak password"
	case KindUserDisabled:
		return "user disabled"
	case KindUserNotFound:
		return "user not found"
	case KindWrongPassword:
		return "wrong password"
	default:
		return "unknown"
	}
}

// Error is a classified identity failure. Match with errors.As, or compare
// kinds via KindOf.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("identity: %s", e.Kind)
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
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}
