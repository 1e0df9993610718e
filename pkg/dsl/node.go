package dsl

import "github.com/aretw0/slidedeck/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node domain.Node
}

func newNode(id string, t domain.NodeType, value *string) *NodeBuilder {
	return &NodeBuilder{node: domain.NewNode(id, t, value, 0, 0)}
}

// Text starts a text node holding markup.
func Text(id, markup string) *NodeBuilder {
	return newNode(id, domain.NodeText, domain.Ptr(markup))
}

// HTML starts an html node.
func HTML(id, markup string) *NodeBuilder {
	return newNode(id, domain.NodeHTML, domain.Ptr(markup))
}

// Image starts an image node pointing at location.
func Image(id, location string) *NodeBuilder {
	return newNode(id, domain.NodeImage, domain.Ptr(location))
}

// MutationTable starts an embedded mutation table.
func MutationTable(id string) *NodeBuilder {
	return newNode(id, domain.NodeMutationTable, nil)
}

// Timeline starts an embedded timeline.
func Timeline(id string) *NodeBuilder {
	return newNode(id, domain.NodeTimeline, nil)
}

// At places the node's top-left corner.
func (n *NodeBuilder) At(left, top float64) *NodeBuilder {
	n.node.Position.Left = left
	n.node.Position.Top = top
	return n
}

// Width fixes the node's width. Nodes without one size themselves.
func (n *NodeBuilder) Width(w float64) *NodeBuilder {
	n.node.Position.Width = domain.Ptr(w)
	return n
}

// Locked marks the node as not draggable.
func (n *NodeBuilder) Locked() *NodeBuilder {
	n.node.Draggable = false
	return n
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
