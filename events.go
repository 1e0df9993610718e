package slidedeck

import (
	"context"

	"github.com/aretw0/slidedeck/pkg/domain"
)

func (e *Editor) event(kind domain.EventType, slideID domain.SlideID, before, after []domain.Node) *domain.HistoryEvent {
	return &domain.HistoryEvent{
		EventBase: domain.EventBase{
			Timestamp: e.now(),
			Type:      kind,
			PatientID: e.patientID,
		},
		SlideID: slideID,
		Diff:    domain.Diff(e.patientID, slideID, before, after),
	}
}

func (e *Editor) noop(slideID domain.SlideID) *domain.HistoryEvent {
	return e.event(domain.EventNoop, slideID, nil, nil)
}

// emit runs the hook for ev. Hooks run outside the editor lock so they may call back
// into the editor.
func (e *Editor) emit(ctx context.Context, ev *domain.HistoryEvent) {
	if ev == nil {
		return
	}
	var hook func(context.Context, *domain.HistoryEvent)
	switch ev.Type {
	case domain.EventNoop:
		hook = e.hooks.OnNoop
	case domain.EventCommit:
		hook = e.hooks.OnCommit
	case domain.EventUndo:
		hook = e.hooks.OnUndo
	case domain.EventRedo:
		hook = e.hooks.OnRedo
	}
	if ev.Type != domain.EventNoop {
		e.logger.Debug("slide changed", "event", ev.Type, "slide_id", ev.SlideID)
	}
	if hook != nil {
		hook(ctx, ev)
	}
}

func (e *Editor) emitPersistence(ctx context.Context, ev *domain.PersistenceEvent) {
	var hook func(context.Context, *domain.PersistenceEvent)
	switch ev.Type {
	case domain.EventLoad:
		hook = e.hooks.OnLoad
	case domain.EventSave:
		hook = e.hooks.OnSave
	}
	if hook != nil {
		hook(ctx, ev)
	}
}
