package slidedeck

import (
	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
)

// SlideState is the view of one slide handed to clients.
type SlideState struct {
	ID      domain.SlideID `json:"id"`
	Nodes   []domain.Node  `json:"nodes"`
	CanUndo bool           `json:"canUndo"`
	CanRedo bool           `json:"canRedo"`
	Dirty   bool           `json:"dirty"`
}

// State is a consistent snapshot of an editing session.
type State struct {
	PatientID   string              `json:"patientId"`
	ActiveSlide domain.SlideID      `json:"activeSlide"`
	Slides      []SlideState        `json:"slides"`
	Selection   []deck.SelectedNode `json:"selection"`
	Generation  uint64              `json:"generation"`
}

// State returns a snapshot of the session, slides in presentation order.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		PatientID:   e.patientID,
		ActiveSlide: e.active,
		Slides:      make([]SlideState, 0, len(e.order)),
		Selection:   e.selection.Entries(),
		Generation:  e.generation,
	}
	for _, id := range e.order {
		st.Slides = append(st.Slides, SlideState{
			ID:      id,
			Nodes:   domain.CloneNodes(e.presentLocked(id)),
			CanUndo: e.history.CanUndo(id),
			CanRedo: e.history.CanRedo(id),
			Dirty:   e.dirty.Contains(id),
		})
	}
	return st
}
