package domain

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound is returned by adapters that must report absence as an error
// (e.g. an HTTP lookup). The tree itself reports absence as (nil, false).
var ErrNodeNotFound = errors.New("node not found")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoHistory is returned when stepping back from a session that has not answered anything.
var ErrNoHistory = errors.New("session has no answered questions")

// Usage error reasons. Match them with errors.Is on a *UsageError.
var (
	ErrUnknownNode      = errors.New("unknown node")
	ErrTerminalNode     = errors.New("node is a result and has no answers")
	ErrAnswerOutOfRange = errors.New("answer index out of range")
)

// UsageError reports caller misuse of a traversal operation.
// It signals a defect in the presentation layer, not a content problem.
type UsageError struct {
	Op          string
	NodeID      string
	AnswerIndex int
	Err         error
}

func (e *UsageError) Error() string {
	if errors.Is(e.Err, ErrAnswerOutOfRange) {
		return fmt.Sprintf("%s %q [%d]: %v", e.Op, e.NodeID, e.AnswerIndex, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.NodeID, e.Err)
}

func (e *UsageError) Unwrap() error { return e.Err }

// IsUsageError reports whether err (or anything it wraps) is a *UsageError.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}
