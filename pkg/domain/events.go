package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventAdvance    EventType = "advance"
	EventResult     EventType = "result"
	EventUsageError EventType = "usage_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// AdvanceEvent represents one answered question.
type AdvanceEvent struct {
	EventBase
	FromID      string `json:"from_id"`
	AnswerIndex int    `json:"answer_index"`
	ToID        string `json:"to_id"`
	Terminal    bool   `json:"terminal"`
}

// UsageEvent wraps a rejected traversal call.
type UsageEvent struct {
	EventBase
	Err *UsageError `json:"-"`
}

// LifecycleHooks defines callbacks for traversal observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnAdvance    func(context.Context, *AdvanceEvent)
	OnResult     func(context.Context, *AdvanceEvent)
	OnUsageError func(context.Context, *UsageEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnAdvance:    chainAdvance(h.OnAdvance, other.OnAdvance),
		OnResult:     chainAdvance(h.OnResult, other.OnResult),
		OnUsageError: chainUsage(h.OnUsageError, other.OnUsageError),
	}
}

func chainAdvance(a, b func(context.Context, *AdvanceEvent)) func(context.Context, *AdvanceEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *AdvanceEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainUsage(a, b func(context.Context, *UsageEvent)) func(context.Context, *UsageEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *UsageEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
