package slidedeck

import (
	"context"
	"fmt"

	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/history"
)

// Axis selects the direction of an alignment.
type Axis string

const (
	AxisHorizontal Axis = "horizontal"
	AxisVertical   Axis = "vertical"
)

// SlideIDs returns the slides in presentation order.
func (e *Editor) SlideIDs() []domain.SlideID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.SlideID(nil), e.order...)
}

// ActiveSlide returns the slide mutations apply to.
func (e *Editor) ActiveSlide() domain.SlideID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetActiveSlide navigates to slideID.
func (e *Editor) SetActiveSlide(slideID domain.SlideID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasSlideLocked(slideID) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownSlide, slideID)
	}
	e.active = slideID
	return nil
}

// Nodes returns a copy of the present node list of slideID. Unknown slides read as empty.
func (e *Editor) Nodes(slideID domain.SlideID) []domain.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneNodes(e.presentLocked(slideID))
}

// TimeState returns a copy of the undo history of slideID.
func (e *Editor) TimeState(slideID domain.SlideID) (history.TimeState[[]domain.Node], bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ts, ok := e.history.Get(slideID)
	if !ok {
		return ts, false
	}
	out := history.TimeState[[]domain.Node]{
		Present: domain.CloneNodes(ts.Present),
		Past:    make([][]domain.Node, len(ts.Past)),
		Future:  make([][]domain.Node, len(ts.Future)),
	}
	for i, p := range ts.Past {
		out.Past[i] = domain.CloneNodes(p)
	}
	for i, f := range ts.Future {
		out.Future[i] = domain.CloneNodes(f)
	}
	return out, true
}

func (e *Editor) CanUndo(slideID domain.SlideID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo(e.target(slideID))
}

func (e *Editor) CanRedo(slideID domain.SlideID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo(e.target(slideID))
}

// AddSlide appends an empty slide and makes it active.
func (e *Editor) AddSlide(ctx context.Context) domain.SlideID {
	e.mu.Lock()
	id := domain.SlideID(e.slideIDs())
	for e.hasSlideLocked(id) {
		id = domain.SlideID(e.slideIDs())
	}
	ev := e.commitLocked(id, []domain.Node{})
	e.order = append(e.order, id)
	e.active = id
	e.mu.Unlock()

	e.emit(ctx, ev)
	return id
}

// CreateNode appends a node of type t to the active slide at (left, top).
// Text nodes without a value get the default placeholder text.
func (e *Editor) CreateNode(ctx context.Context, t domain.NodeType, value *string, left, top float64) (domain.Node, error) {
	if t == domain.NodeText && value == nil {
		value = domain.Ptr(domain.DefaultNodeValue)
	}

	e.mu.Lock()
	if e.active == "" {
		e.mu.Unlock()
		return domain.Node{}, fmt.Errorf("%w: no active slide", domain.ErrUnknownSlide)
	}
	present := e.presentLocked(e.active)
	id := e.nodeIDs()
	for _, taken := deck.Find(present, id); taken; _, taken = deck.Find(present, id) {
		id = e.nodeIDs()
	}
	node := domain.NewNode(id, t, value, left, top)
	if err := node.Validate(); err != nil {
		e.mu.Unlock()
		return domain.Node{}, err
	}
	next, _ := deck.CreateNode(present, node)
	ev := e.commitLocked(e.active, next)
	e.mu.Unlock()

	e.emit(ctx, ev)
	return node.Clone(), nil
}

// MoveNode commits a drag of (dx, dy) on the active slide.
func (e *Editor) MoveNode(ctx context.Context, nodeID string, dx, dy float64) bool {
	return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
		return deck.MoveNode(nodes, nodeID, dx, dy)
	})
}

// ResizeNode sets the explicit width of a node on the active slide.
func (e *Editor) ResizeNode(ctx context.Context, nodeID string, width float64) bool {
	return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
		return deck.ResizeNode(nodes, nodeID, width)
	})
}

// SetNodeLeft moves the left edge of a node on the active slide.
func (e *Editor) SetNodeLeft(ctx context.Context, nodeID string, left float64) bool {
	return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
		return deck.SetNodeLeft(nodes, nodeID, left)
	})
}

// SetNodeValue commits an inner editor's value and drag flag.
func (e *Editor) SetNodeValue(ctx context.Context, nodeID string, value *string, draggable *bool) bool {
	return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
		return deck.SetNodeValue(nodes, nodeID, value, draggable)
	})
}

// AlignNode centres a node on the canvas along axis, given its rendered extent on that axis.
func (e *Editor) AlignNode(ctx context.Context, nodeID string, axis Axis, extent float64) (bool, error) {
	switch axis {
	case AxisHorizontal:
		return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
			return deck.CenterHorizontally(nodes, nodeID, extent)
		}), nil
	case AxisVertical:
		return e.mutate(ctx, func(nodes []domain.Node) ([]domain.Node, bool) {
			return deck.CenterVertically(nodes, nodeID, extent)
		}), nil
	}
	return false, fmt.Errorf("unknown axis %q", axis)
}

// DeleteNode removes a node from the active slide and from the selection.
func (e *Editor) DeleteNode(ctx context.Context, nodeID string) bool {
	e.mu.Lock()
	slideID := e.active
	next, changed := deck.DeleteNode(e.presentLocked(slideID), nodeID)
	if !changed {
		e.mu.Unlock()
		e.emit(ctx, e.noop(slideID))
		return false
	}
	e.selection.Deselect(nodeID)
	ev := e.commitLocked(slideID, next)
	e.mu.Unlock()

	e.emit(ctx, ev)
	return true
}

// DeleteSelected deletes the primary selected node.
func (e *Editor) DeleteSelected(ctx context.Context) bool {
	e.mu.Lock()
	primary, ok := e.selection.Primary()
	e.mu.Unlock()
	if !ok {
		return false
	}
	return e.DeleteNode(ctx, primary.NodeID)
}

// Select adds a node of the active slide to the selection.
func (e *Editor) Select(nodeID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := deck.Find(e.presentLocked(e.active), nodeID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	e.selection.Select(e.active, nodeID)
	return nil
}

// Deselect removes a node from the selection.
func (e *Editor) Deselect(nodeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Deselect(nodeID)
}

// Selection returns the selected nodes, primary first.
func (e *Editor) Selection() []deck.SelectedNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selection.Entries()
}

// Undo steps a slide back one commit. An empty slideID targets the active slide.
// It reports false when there is nothing to undo.
func (e *Editor) Undo(ctx context.Context, slideID domain.SlideID) bool {
	return e.travel(ctx, slideID, domain.EventUndo)
}

// Redo re-applies the last undone commit of a slide. An empty slideID targets the active slide.
func (e *Editor) Redo(ctx context.Context, slideID domain.SlideID) bool {
	return e.travel(ctx, slideID, domain.EventRedo)
}

func (e *Editor) travel(ctx context.Context, slideID domain.SlideID, kind domain.EventType) bool {
	e.mu.Lock()
	slideID = e.target(slideID)
	before := e.presentLocked(slideID)

	var moved bool
	if kind == domain.EventUndo {
		moved = e.history.Undo(slideID)
	} else {
		moved = e.history.Redo(slideID)
	}
	if !moved {
		e.mu.Unlock()
		return false
	}
	e.touchLocked(slideID)
	ev := e.event(kind, slideID, before, e.presentLocked(slideID))
	e.mu.Unlock()

	e.emit(ctx, ev)
	return true
}

// mutate applies fn to the active slide and commits the result when it changed.
func (e *Editor) mutate(ctx context.Context, fn func([]domain.Node) ([]domain.Node, bool)) bool {
	e.mu.Lock()
	slideID := e.active
	next, changed := fn(e.presentLocked(slideID))
	if !changed {
		e.mu.Unlock()
		e.emit(ctx, e.noop(slideID))
		return false
	}
	ev := e.commitLocked(slideID, next)
	e.mu.Unlock()

	e.emit(ctx, ev)
	return ev != nil
}

// commitLocked sets next as the present of slideID and returns the event to emit,
// or nil when history judged it a no-op.
func (e *Editor) commitLocked(slideID domain.SlideID, next []domain.Node) *domain.HistoryEvent {
	before := e.presentLocked(slideID)
	if !e.history.Set(slideID, next) {
		return nil
	}
	e.touchLocked(slideID)
	return e.event(domain.EventCommit, slideID, before, next)
}

func (e *Editor) touchLocked(slideID domain.SlideID) {
	e.generation++
	e.dirty.Add(slideID)
}

func (e *Editor) presentLocked(slideID domain.SlideID) []domain.Node {
	nodes, _ := e.history.Present(slideID)
	if nodes == nil {
		return []domain.Node{}
	}
	return nodes
}

func (e *Editor) hasSlideLocked(slideID domain.SlideID) bool {
	_, ok := e.history.Get(slideID)
	return ok
}

func (e *Editor) target(slideID domain.SlideID) domain.SlideID {
	if slideID == "" {
		return e.active
	}
	return slideID
}
