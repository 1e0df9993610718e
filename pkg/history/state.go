package history

import (
	"errors"
	"fmt"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// ErrInvalidAction is returned when undo or redo targets a slide that was never written.
var ErrInvalidAction = errors.New("invalid action for new slide")

// ErrUnsupportedAction is returned for an unknown action type.
var ErrUnsupportedAction = errors.New("unsupported action type")

// TimeState is the undo history of one slide.
// Past is ordered oldest to newest; Future is ordered next-to-redo first.
type TimeState[T any] struct {
	Past    []T `json:"past"`
	Present T   `json:"present"`
	Future  []T `json:"future"`
}

// Store maps slide ids to their history. Treat it as immutable.
type Store[T any] map[domain.SlideID]TimeState[T]

// ActionType enumerates the reducer transitions.
type ActionType string

const (
	ActionUndo  ActionType = "undo"
	ActionRedo  ActionType = "redo"
	ActionSet   ActionType = "set"
	ActionClear ActionType = "clear"
)

// Action is one reducer input. SlideID is ignored by clear; NewPresent is only read by
// set; Slides is only read by clear.
type Action[T any] struct {
	Type       ActionType
	SlideID    domain.SlideID
	NewPresent T
	Slides     map[domain.SlideID]T
}

// Undo builds an undo action.
func Undo[T any](slideID domain.SlideID) Action[T] {
	return Action[T]{Type: ActionUndo, SlideID: slideID}
}

// Redo builds a redo action.
func Redo[T any](slideID domain.SlideID) Action[T] {
	return Action[T]{Type: ActionRedo, SlideID: slideID}
}

// Set builds a commit action.
func Set[T any](slideID domain.SlideID, newPresent T) Action[T] {
	return Action[T]{Type: ActionSet, SlideID: slideID, NewPresent: newPresent}
}

// Clear builds a full replacement action.
func Clear[T any](slides map[domain.SlideID]T) Action[T] {
	return Action[T]{Type: ActionClear, Slides: slides}
}

// Reducer holds the policy the transitions need: how to compare two presents and how
// much past to keep. The zero Limit keeps everything.
type Reducer[T any] struct {
	Equal func(a, b T) bool
	Limit int
}

// Reduce applies action to state. It never mutates state.
// The boolean reports whether the returned store differs from the input; when it is
// false the input store itself is returned.
//
// Undo and redo do not check that there is something to undo or redo. Callers guard
// with CanUndo/CanRedo; an unguarded undo on an empty past leaves a zero present.
func (r Reducer[T]) Reduce(state Store[T], action Action[T]) (Store[T], bool, error) {
	if action.Type == ActionClear {
		next := make(Store[T], len(action.Slides))
		for id, present := range action.Slides {
			next[id] = TimeState[T]{Past: []T{}, Present: present, Future: []T{}}
		}
		return next, true, nil
	}

	slide, exists := state[action.SlideID]
	if !exists && action.Type != ActionSet {
		return state, false, fmt.Errorf("%w: action=%s slide=%s", ErrInvalidAction, action.Type, action.SlideID)
	}
	// A slide written for the first time starts from a zero present, so its first
	// commit leaves exactly one (zero) entry in past.

	switch action.Type {
	case ActionUndo:
		var present T
		past := slide.Past
		if n := len(past); n > 0 {
			present = past[n-1]
			past = past[:n-1]
		}
		return with(state, action.SlideID, TimeState[T]{
			Past:    clone(past),
			Present: present,
			Future:  prepend(slide.Present, slide.Future),
		}), true, nil

	case ActionRedo:
		var present T
		var future []T
		if len(slide.Future) > 0 {
			present = slide.Future[0]
			future = slide.Future[1:]
		}
		return with(state, action.SlideID, TimeState[T]{
			Past:    r.trim(appendCopy(slide.Past, slide.Present)),
			Present: present,
			Future:  clone(future),
		}), true, nil

	case ActionSet:
		// For a new slide this compares against the zero present, so committing the
		// zero value there is a no-op too.
		if r.equal(action.NewPresent, slide.Present) {
			return state, false, nil
		}
		return with(state, action.SlideID, TimeState[T]{
			Past:    r.trim(appendCopy(slide.Past, slide.Present)),
			Present: action.NewPresent,
			Future:  []T{},
		}), true, nil
	}

	return state, false, fmt.Errorf("%w: %q", ErrUnsupportedAction, action.Type)
}

func (r Reducer[T]) equal(a, b T) bool {
	if r.Equal == nil {
		return false
	}
	return r.Equal(a, b)
}

func (r Reducer[T]) trim(past []T) []T {
	if r.Limit > 0 && len(past) > r.Limit {
		return past[len(past)-r.Limit:]
	}
	return past
}

// with returns a copy of state with id replaced.
func with[T any](state Store[T], id domain.SlideID, ts TimeState[T]) Store[T] {
	next := make(Store[T], len(state)+1)
	for k, v := range state {
		next[k] = v
	}
	next[id] = ts
	return next
}

// Slices are shared between store versions, so every growth goes to a fresh array.

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func prepend[T any](v T, s []T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, v)
	return append(out, s...)
}

func clone[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
