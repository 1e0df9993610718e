package slidedeck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// Load fetches the stored deck and replaces the session with it. When nothing is
// stored the session starts from a single default title slide.
//
// If any edit is committed while the fetch is in flight, the fetched deck is discarded
// and ErrStaleLoad is returned; the session keeps its edits. Use ForceLoad to overwrite.
func (e *Editor) Load(ctx context.Context) error {
	return e.load(ctx, false)
}

// ForceLoad is Load without the stale check.
func (e *Editor) ForceLoad(ctx context.Context) error {
	return e.load(ctx, true)
}

func (e *Editor) load(ctx context.Context, force bool) error {
	if e.store == nil {
		return ErrNoStore
	}

	e.mu.Lock()
	generation := e.generation
	e.mu.Unlock()

	start := e.now()
	doc, err := e.store.Load(ctx, e.patientID)
	notFound := errors.Is(err, domain.ErrPresentationNotFound)
	if err != nil && !notFound {
		e.logger.Error("failed to load presentation", "err", err)
		e.emitPersistence(ctx, e.persistenceEvent(domain.EventLoad, start, 0, false, err))
		return fmt.Errorf("failed to load presentation: %w", err)
	}
	if notFound {
		doc = domain.DefaultDocument(domain.SlideID(e.slideIDs()), e.nodeIDs())
	}

	e.mu.Lock()
	if !force && e.generation != generation {
		e.mu.Unlock()
		e.logger.Warn("discarding stale load", "generation", generation)
		return ErrStaleLoad
	}
	e.resetLocked(doc)
	if notFound {
		e.markAllDirtyLocked()
	}
	e.mu.Unlock()

	e.logger.Debug("presentation loaded", "slides", len(doc.Slides), "not_found", notFound)
	e.emitPersistence(ctx, e.persistenceEvent(domain.EventLoad, start, len(doc.Slides), notFound, nil))
	return nil
}

// Save stores the present layer of every slide. History stays in the session.
func (e *Editor) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}

	e.mu.Lock()
	doc := e.documentLocked()
	generation := e.generation
	e.mu.Unlock()

	start := e.now()
	if err := e.store.Save(ctx, e.patientID, doc); err != nil {
		e.logger.Error("failed to save presentation", "err", err)
		e.emitPersistence(ctx, e.persistenceEvent(domain.EventSave, start, len(doc.Slides), false, err))
		return fmt.Errorf("failed to save presentation: %w", err)
	}

	e.mu.Lock()
	if e.generation == generation {
		e.dirty.Clear()
	}
	e.mu.Unlock()

	e.emitPersistence(ctx, e.persistenceEvent(domain.EventSave, start, len(doc.Slides), false, nil))
	return nil
}

// Delete removes the stored deck and restarts the session from the default title slide.
func (e *Editor) Delete(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}
	if err := e.store.Delete(ctx, e.patientID); err != nil {
		e.logger.Error("failed to delete presentation", "err", err)
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	e.mu.Lock()
	e.resetLocked(domain.DefaultDocument(domain.SlideID(e.slideIDs()), e.nodeIDs()))
	e.markAllDirtyLocked()
	e.generation++
	e.mu.Unlock()
	return nil
}

// Document returns the flattened deck (slide id -> present).
func (e *Editor) Document() domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.documentLocked()
}

// Dirty lists the slides changed since the last load or save.
func (e *Editor) Dirty() []domain.SlideID {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.dirty.ToSlice()
	domain.SortSlideIDs(ids)
	return ids
}

func (e *Editor) documentLocked() domain.Document {
	doc := domain.Document{Slides: make(domain.Slides, e.history.Len())}
	for id, nodes := range e.history.Snapshot() {
		if nodes == nil {
			nodes = []domain.Node{}
		}
		doc.Slides[id] = domain.CloneNodes(nodes)
	}
	return doc
}

func (e *Editor) persistenceEvent(kind domain.EventType, start time.Time, slides int, notFound bool, err error) *domain.PersistenceEvent {
	now := e.now()
	return &domain.PersistenceEvent{
		EventBase: domain.EventBase{Timestamp: now, Type: kind, PatientID: e.patientID},
		Slides:    slides,
		Duration:  now.Sub(start),
		NotFound:  notFound,
		Err:       err,
	}
}

// markAllDirtyLocked flags every slide, for decks that only exist in this session until saved.
func (e *Editor) markAllDirtyLocked() {
	for _, id := range e.order {
		e.dirty.Add(id)
	}
}
