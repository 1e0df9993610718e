package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommit EventType = "commit"
	EventUndo   EventType = "undo"
	EventRedo   EventType = "redo"
	EventNoop   EventType = "noop"
	EventLoad   EventType = "load"
	EventSave   EventType = "save"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	PatientID string    `json:"patient_id"`
}

// HistoryEvent is emitted whenever a slide's present layer changes, and with type noop
// when a mutation resolved to nothing. Diff is nil when only the slide itself appeared.
type HistoryEvent struct {
	EventBase
	SlideID SlideID    `json:"slide_id"`
	Diff    *SlideDiff `json:"diff,omitempty"`
}

// PersistenceEvent is emitted around load and save round trips.
type PersistenceEvent struct {
	EventBase
	Slides   int           `json:"slides"`
	Duration time.Duration `json:"duration"`
	NotFound bool          `json:"not_found,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for editor observability.
// Every hook is optional.
type LifecycleHooks struct {
	OnCommit func(context.Context, *HistoryEvent)
	OnUndo   func(context.Context, *HistoryEvent)
	OnRedo   func(context.Context, *HistoryEvent)

	// OnNoop fires when a mutation resolved to no change and history was left untouched.
	OnNoop func(context.Context, *HistoryEvent)

	OnLoad func(context.Context, *PersistenceEvent)
	OnSave func(context.Context, *PersistenceEvent)
}

// Merge returns hooks that call h first and then other, for each callback set on either.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommit: chainHistory(h.OnCommit, other.OnCommit),
		OnUndo:   chainHistory(h.OnUndo, other.OnUndo),
		OnRedo:   chainHistory(h.OnRedo, other.OnRedo),
		OnNoop:   chainHistory(h.OnNoop, other.OnNoop),
		OnLoad:   chainPersistence(h.OnLoad, other.OnLoad),
		OnSave:   chainPersistence(h.OnSave, other.OnSave),
	}
}

func chainHistory(a, b func(context.Context, *HistoryEvent)) func(context.Context, *HistoryEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *HistoryEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainPersistence(a, b func(context.Context, *PersistenceEvent)) func(context.Context, *PersistenceEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *PersistenceEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
