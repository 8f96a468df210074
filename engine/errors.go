package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected engine operation.
type Kind string

const (
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindCapacityExceeded  Kind = "CAPACITY_EXCEEDED"
	KindAlreadyRegistered Kind = "ALREADY_REGISTERED"
	KindEventNotJoinable  Kind = "EVENT_NOT_JOINABLE"
	KindInvalidState      Kind = "INVALID_STATE"
)

// Error is the failure returned by every engine operation. Callers match it
// with errors.Is against the sentinels below; the comparison is by Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "transition not allowed"}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded, Message: "event is full"}
	ErrAlreadyRegistered = &Error{Kind: KindAlreadyRegistered, Message: "member already registered"}
	ErrEventNotJoinable  = &Error{Kind: KindEventNotJoinable, Message: "event is not open for registration"}
	ErrInvalidState      = &Error{Kind: KindInvalidState, Message: "precondition violated"}
)

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of an engine error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
