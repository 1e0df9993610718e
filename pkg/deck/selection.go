package deck

import "github.com/aretw0/slidedeck/pkg/domain"

// SelectedNode references a node on a slide.
type SelectedNode struct {
	SlideID domain.SlideID `json:"slideId"`
	NodeID  string         `json:"nodeId"`
}

// Selection is the ordered list of selected nodes. It lives beside the history and is
// never part of it. The zero value is empty and ready to use.
//
// Clipboard and delete shortcuts only act on the first entry.
type Selection struct {
	entries []SelectedNode
}

// Select appends the node unless it is already selected.
func (s *Selection) Select(slideID domain.SlideID, nodeID string) bool {
	for _, e := range s.entries {
		if e.SlideID == slideID && e.NodeID == nodeID {
			return false
		}
	}
	s.entries = append(s.entries, SelectedNode{SlideID: slideID, NodeID: nodeID})
	return true
}

// Deselect drops every entry for nodeID and reports whether any was removed.
func (s *Selection) Deselect(nodeID string) bool {
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.NodeID != nodeID {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(s.entries)
	s.entries = kept
	return removed
}

// Primary returns the first selected node.
func (s *Selection) Primary() (SelectedNode, bool) {
	if len(s.entries) == 0 {
		return SelectedNode{}, false
	}
	return s.entries[0], true
}

func (s *Selection) Contains(nodeID string) bool {
	for _, e := range s.entries {
		if e.NodeID == nodeID {
			return true
		}
	}
	return false
}

// Entries returns a copy of the selection.
func (s *Selection) Entries() []SelectedNode {
	out := make([]SelectedNode, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Selection) Len() int {
	return len(s.entries)
}

func (s *Selection) Clear() {
	s.entries = nil
}
