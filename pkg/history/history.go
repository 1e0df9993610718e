package history

import (
	"github.com/aretw0/slidedeck/pkg/domain"
)

// Option configures a History.
type Option func(*options)

type options struct {
	limit int
}

// WithLimit caps the number of past entries kept per slide. Zero keeps everything.
func WithLimit(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.limit = n
		}
	}
}

// History is the imperative face of a Store: it holds the current Store and replaces it
// with the reducer's output on every dispatch.
// It is not safe for concurrent use; callers serialise access.
type History[T any] struct {
	store   Store[T]
	reducer Reducer[T]
}

// New creates an empty history using equal to detect no-op commits.
func New[T any](equal func(a, b T) bool, opts ...Option) *History[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &History[T]{
		store:   Store[T]{},
		reducer: Reducer[T]{Equal: equal, Limit: o.limit},
	}
}

// Dispatch runs action through the reducer. Undo and redo on a slide without history
// return ErrInvalidAction and leave the store untouched.
func (h *History[T]) Dispatch(action Action[T]) (bool, error) {
	next, changed, err := h.reducer.Reduce(h.store, action)
	if err != nil {
		return false, err
	}
	h.store = next
	return changed, nil
}

// Set commits value as the present of slideID. It reports false when value equals the
// current present.
func (h *History[T]) Set(slideID domain.SlideID, value T) bool {
	// set is defined for every slide id, so the reducer cannot fail here.
	changed, _ := h.Dispatch(Set(slideID, value))
	return changed
}

// Undo steps slideID back one commit. It does nothing and reports false when there is
// nothing to undo.
func (h *History[T]) Undo(slideID domain.SlideID) bool {
	if !h.CanUndo(slideID) {
		return false
	}
	changed, _ := h.Dispatch(Undo[T](slideID))
	return changed
}

// Redo re-applies the last undone commit of slideID.
func (h *History[T]) Redo(slideID domain.SlideID) bool {
	if !h.CanRedo(slideID) {
		return false
	}
	changed, _ := h.Dispatch(Redo[T](slideID))
	return changed
}

// Clear replaces every timeline with fresh single-entry histories built from slides.
func (h *History[T]) Clear(slides map[domain.SlideID]T) {
	_, _ = h.Dispatch(Clear(slides))
}

func (h *History[T]) CanUndo(slideID domain.SlideID) bool {
	ts, ok := h.store[slideID]
	return ok && len(ts.Past) > 0
}

func (h *History[T]) CanRedo(slideID domain.SlideID) bool {
	ts, ok := h.store[slideID]
	return ok && len(ts.Future) > 0
}

// Present returns the current value of slideID. The boolean is false for slides that
// were never written; the value is then the zero T.
func (h *History[T]) Present(slideID domain.SlideID) (T, bool) {
	ts, ok := h.store[slideID]
	return ts.Present, ok
}

// Get returns the full timeline of slideID.
func (h *History[T]) Get(slideID domain.SlideID) (TimeState[T], bool) {
	ts, ok := h.store[slideID]
	return ts, ok
}

// State returns the current store. It must not be modified.
func (h *History[T]) State() Store[T] {
	return h.store
}

// Snapshot flattens the store to slide id -> present.
func (h *History[T]) Snapshot() map[domain.SlideID]T {
	out := make(map[domain.SlideID]T, len(h.store))
	for id, ts := range h.store {
		out[id] = ts.Present
	}
	return out
}

// SlideIDs lists the slides that have a timeline, in natural key order.
func (h *History[T]) SlideIDs() []domain.SlideID {
	ids := make([]domain.SlideID, 0, len(h.store))
	for id := range h.store {
		ids = append(ids, id)
	}
	domain.SortSlideIDs(ids)
	return ids
}

// Len is the number of slides with a timeline.
func (h *History[T]) Len() int {
	return len(h.store)
}
