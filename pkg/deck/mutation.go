package deck

import (
	"math"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// CreateNode appends node to the slide.
func CreateNode(nodes []domain.Node, node domain.Node) ([]domain.Node, bool) {
	next := make([]domain.Node, 0, len(nodes)+1)
	next = append(next, domain.CloneNodes(nodes)...)
	return append(next, node.Clone()), true
}

// MoveNode commits a drag: the accumulated pointer delta is added to the node position.
// A drag counts only when no axis moved by a fraction of a unit, so (0.5, 5) is ignored
// while (50, 0) is applied.
func MoveNode(nodes []domain.Node, id string, dx, dy float64) ([]domain.Node, bool) {
	if !genuineDrag(dx, dy) {
		return nodes, false
	}
	return update(nodes, id, func(n *domain.Node) bool {
		n.Position.Left += dx
		n.Position.Top += dy
		return true
	})
}

// ResizeNode sets an explicit width.
func ResizeNode(nodes []domain.Node, id string, width float64) ([]domain.Node, bool) {
	return update(nodes, id, func(n *domain.Node) bool {
		if n.Position.Width != nil && *n.Position.Width == width {
			return false
		}
		n.Position.Width = domain.Ptr(width)
		return true
	})
}

// SetNodeLeft moves the left edge, as a left-handle resize does.
func SetNodeLeft(nodes []domain.Node, id string, left float64) ([]domain.Node, bool) {
	return SetNodePosition(nodes, id, &left, nil)
}

// SetNodeTop moves the top edge.
func SetNodeTop(nodes []domain.Node, id string, top float64) ([]domain.Node, bool) {
	return SetNodePosition(nodes, id, nil, &top)
}

// SetNodePosition sets left and/or top. Nil coordinates are left as they are.
func SetNodePosition(nodes []domain.Node, id string, left, top *float64) ([]domain.Node, bool) {
	return update(nodes, id, func(n *domain.Node) bool {
		changed := false
		if left != nil && n.Position.Left != *left {
			n.Position.Left = *left
			changed = true
		}
		if top != nil && n.Position.Top != *top {
			n.Position.Top = *top
			changed = true
		}
		return changed
	})
}

// SetNodeValue stores an edited value and, when draggable is non-nil, the drag flag the
// inner editor asked for. A nil value keeps the current one.
func SetNodeValue(nodes []domain.Node, id string, value *string, draggable *bool) ([]domain.Node, bool) {
	return update(nodes, id, func(n *domain.Node) bool {
		changed := false
		if value != nil && (n.Value == nil || *n.Value != *value) {
			n.Value = domain.Ptr(*value)
			changed = true
		}
		if draggable != nil && n.Draggable != *draggable {
			n.Draggable = *draggable
			changed = true
		}
		return changed
	})
}

// DeleteNode removes the node with id.
func DeleteNode(nodes []domain.Node, id string) ([]domain.Node, bool) {
	if _, ok := Find(nodes, id); !ok {
		return nodes, false
	}
	next := make([]domain.Node, 0, len(nodes)-1)
	for _, n := range nodes {
		if n.ID != id {
			next = append(next, n.Clone())
		}
	}
	return next, true
}

// CenterHorizontally places the node so that its rendered box is centred on the canvas width.
func CenterHorizontally(nodes []domain.Node, id string, renderedWidth float64) ([]domain.Node, bool) {
	left := domain.CanvasWidth/2 - renderedWidth/2
	return SetNodePosition(nodes, id, &left, nil)
}

// CenterVertically places the node so that its rendered box is centred on the canvas height.
func CenterVertically(nodes []domain.Node, id string, renderedHeight float64) ([]domain.Node, bool) {
	top := domain.CanvasHeight/2 - renderedHeight/2
	return SetNodePosition(nodes, id, nil, &top)
}

// Find returns the node with id.
func Find(nodes []domain.Node, id string) (domain.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Node{}, false
}

func genuineDrag(dx, dy float64) bool {
	ax, ay := math.Abs(dx), math.Abs(dy)
	if math.IsNaN(ax) || math.IsNaN(ay) {
		return false
	}
	if ax < domain.MinDragDelta && ay < domain.MinDragDelta {
		return false
	}
	subPixel := func(a float64) bool { return a > 0 && a < domain.MinDragDelta }
	return !subPixel(ax) && !subPixel(ay)
}

// update copies nodes and applies fn to the node with id. The copy is discarded when the
// node is missing, fn reports no change or the result leaves the node off the real plane.
func update(nodes []domain.Node, id string, fn func(*domain.Node) bool) ([]domain.Node, bool) {
	next := domain.CloneNodes(nodes)
	for i := range next {
		if next[i].ID == id {
			if !fn(&next[i]) || !next[i].Position.Finite() {
				return nodes, false
			}
			return next, true
		}
	}
	return nodes, false
}
