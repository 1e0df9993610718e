package domain

import (
	"sort"
	"strconv"
)

// SlideID identifies a slide. Decks created by the counter generator use decimal
// strings; decks created in the browser use UUIDs. Both only need to be stable keys.
type SlideID string

// Slides maps every slide of a deck to its node list.
type Slides map[SlideID][]Node

// Document is the persisted form of a deck: only the present layer of each slide.
type Document struct {
	Slides Slides `json:"slides"`
}

// NewDocument returns an empty document.
func NewDocument() Document {
	return Document{Slides: Slides{}}
}

// DefaultDocument is the single title slide a patient starts with when nothing is stored.
func DefaultDocument(slideID SlideID, nodeID string) Document {
	return Document{Slides: Slides{
		slideID: {NewNode(nodeID, NodeText, Ptr(DefaultNodeValue), 0, 0)},
	}}
}

// SlideIDs returns the document's slide keys in presentation order.
func (d Document) SlideIDs() []SlideID {
	ids := make([]SlideID, 0, len(d.Slides))
	for id := range d.Slides {
		ids = append(ids, id)
	}
	SortSlideIDs(ids)
	return ids
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	out := Document{Slides: make(Slides, len(d.Slides))}
	for id, nodes := range d.Slides {
		out.Slides[id] = CloneNodes(nodes)
	}
	return out
}

// Validate checks every slide of the document.
func (d Document) Validate() error {
	for _, nodes := range d.Slides {
		if err := ValidateNodes(nodes); err != nil {
			return err
		}
	}
	return nil
}

// NodeCount returns the number of nodes over all slides.
func (d Document) NodeCount() int {
	n := 0
	for _, nodes := range d.Slides {
		n += len(nodes)
	}
	return n
}

// SortSlideIDs orders slide keys: numeric keys numerically and before any other key,
// the rest lexically.
func SortSlideIDs(ids []SlideID) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, aErr := strconv.ParseInt(string(ids[i]), 10, 64)
		b, bErr := strconv.ParseInt(string(ids[j]), 10, 64)
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}
