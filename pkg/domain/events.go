package domain

import (
	"context"
	"time"
)

// EventKind is the host's notification category.
type EventKind string

const (
	EventSurfaceChanged EventKind = "surface_changed"
	EventContentChanged EventKind = "content_changed"
	EventFocusChanged   EventKind = "focus_changed"
	EventClicked        EventKind = "clicked"
	EventScrolled       EventKind = "scrolled"
)

// Outcome records how far a single dispatch progressed.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNoSource  Outcome = "no_source"
	OutcomeNotDialog Outcome = "not_dialog"
	OutcomeEmptyText Outcome = "empty_text"
	OutcomeNoInput   Outcome = "no_input"
	OutcomeInjected  Outcome = "injected"
)

// PhaseEvent is emitted when the session moves to a different phase.
type PhaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	Keyword   string    `json:"keyword"` // empty for resets and arms
}

// DispatchEvent is emitted once per handled host notification.
type DispatchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Kind      EventKind     `json:"kind"`
	Outcome   Outcome       `json:"outcome"`
	Phase     Phase         `json:"phase"`
	Text      string        `json:"text,omitempty"` // dialog text, when it was read
	Duration  time.Duration `json:"duration"`
}

// InjectEvent is emitted after input was pushed into the dialog.
type InjectEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Phase     Phase     `json:"phase"`
	Fields    int       `json:"fields"`
	Activated bool      `json:"activated"`
	Button    string    `json:"button,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for pilot observability.
type LifecycleHooks struct {
	OnPhaseChange func(context.Context, *PhaseEvent)
	OnDispatch    func(context.Context, *DispatchEvent)
	OnInject      func(context.Context, *InjectEvent)
}

// MergeHooks returns hooks that call every non-nil callback of each set, in order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		h := h
		if h.OnPhaseChange != nil {
			prev := merged.OnPhaseChange
			merged.OnPhaseChange = func(ctx context.Context, e *PhaseEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnPhaseChange(ctx, e)
			}
		}
		if h.OnDispatch != nil {
			prev := merged.OnDispatch
			merged.OnDispatch = func(ctx context.Context, e *DispatchEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnDispatch(ctx, e)
			}
		}
		if h.OnInject != nil {
			prev := merged.OnInject
			merged.OnInject = func(ctx context.Context, e *InjectEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnInject(ctx, e)
			}
		}
	}
	return merged
}
