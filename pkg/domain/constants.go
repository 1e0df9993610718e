package domain

// Logical canvas the deck is laid out on. Node positions are expressed in these units.
const (
	CanvasWidth  = 960.0
	CanvasHeight = 700.0
)

// MinDragDelta is the smallest pointer travel (per axis) that counts as a genuine move.
// Drag-end gestures below it on both axes are dropped so micro-drags never reach history.
const MinDragDelta = 1.0

// DefaultNodeValue is the text a freshly created text node (and the title slide) starts with.
const DefaultNodeValue = "Hello World"
