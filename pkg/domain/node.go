package domain

import (
	"fmt"
	"math"
)

// NodeType selects which renderer and behaviour applies to a Node.
type NodeType string

const (
	NodeText          NodeType = "text"
	NodeImage         NodeType = "image"
	NodeHTML          NodeType = "html"
	NodeMutationTable NodeType = "mutationTable"
	NodeTimeline      NodeType = "timeline"
)

// NodeTypes lists every known content kind, in toolbar order.
var NodeTypes = []NodeType{NodeText, NodeImage, NodeHTML, NodeMutationTable, NodeTimeline}

// HasValue reports whether nodes of this type carry a stored value.
// Embeds (tables, timelines) render live data and store nothing.
func (t NodeType) HasValue() bool {
	switch t {
	case NodeText, NodeImage, NodeHTML:
		return true
	default:
		return false
	}
}

// Valid reports whether t is a known content kind.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Position places a node on the canvas.
// A nil Width means intrinsic (auto) sizing.
type Position struct {
	Left  float64  `json:"left"`
	Top   float64  `json:"top"`
	Width *float64 `json:"width"`
}

// Node is one placeable content block on a slide.
type Node struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Type     NodeType `json:"type"`

	// Value is opaque to the core: markup for text/html, a location for images,
	// nil for embeds.
	Value *string `json:"value"`

	// Draggable is false while an inner editor holds the pointer (resize, text edit).
	Draggable bool `json:"draggable"`
}

// NewNode builds a draggable node at the given coordinates.
func NewNode(id string, t NodeType, value *string, left, top float64) Node {
	return Node{
		ID:        id,
		Type:      t,
		Value:     value,
		Position:  Position{Left: left, Top: top},
		Draggable: true,
	}
}

// Validate checks the per-node invariants.
func (n Node) Validate() error {
	if n.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidNode)
	}
	if !n.Type.Valid() {
		return fmt.Errorf("%w: node %s has unknown type %q", ErrInvalidNode, n.ID, n.Type)
	}
	if !finite(n.Position.Left) || !finite(n.Position.Top) {
		return fmt.Errorf("%w: node %s has a non-finite position", ErrInvalidNode, n.ID)
	}
	if w := n.Position.Width; w != nil && (!finite(*w) || *w < 0) {
		return fmt.Errorf("%w: node %s has an invalid width", ErrInvalidNode, n.ID)
	}
	if n.Type.HasValue() && n.Value == nil {
		return fmt.Errorf("%w: %s node %s requires a value", ErrInvalidNode, n.Type, n.ID)
	}
	if !n.Type.HasValue() && n.Value != nil {
		return fmt.Errorf("%w: %s node %s cannot carry a value", ErrInvalidNode, n.Type, n.ID)
	}
	return nil
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Value != nil {
		v := *n.Value
		c.Value = &v
	}
	if n.Position.Width != nil {
		w := *n.Position.Width
		c.Position.Width = &w
	}
	return c
}

// Equal reports value equality between two nodes.
func (n Node) Equal(o Node) bool {
	return n.ID == o.ID &&
		n.Type == o.Type &&
		n.Draggable == o.Draggable &&
		n.Position.Left == o.Position.Left &&
		n.Position.Top == o.Position.Top &&
		equalPtr(n.Position.Width, o.Position.Width) &&
		equalPtr(n.Value, o.Value)
}

// CloneNodes deep-copies a node list. A nil list stays nil.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// EqualNodes reports value equality of two node lists, order included.
// A nil list only equals another nil list: nil is the "never written" sentinel of a slide,
// distinct from an empty slide.
func EqualNodes(a, b []Node) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ValidateNodes checks every node and the id uniqueness invariant of a slide.
func ValidateNodes(nodes []Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidNode, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Finite reports whether every coordinate of p is a real number.
func (p Position) Finite() bool {
	return finite(p.Left) && finite(p.Top) && (p.Width == nil || finite(*p.Width))
}
