package domain

// SlideDiff represents the node-level changes of one slide between two versions.
// It is designed to be serialized to JSON for partial updates on the client.
type SlideDiff struct {
	PatientID string  `json:"patient_id"`
	SlideID   SlideID `json:"slide_id"`

	// Added and Changed carry the full new node; clients replace by id.
	Added   []Node `json:"added,omitempty"`
	Changed []Node `json:"changed,omitempty"`

	// Removed lists the ids of nodes no longer on the slide.
	Removed []string `json:"removed,omitempty"`

	// Order is set when the node order changed without membership changing.
	Order []string `json:"order,omitempty"`
}

// Diff calculates the difference between two versions of a slide.
// If oldNodes is nil, every node of newNodes is reported as added (initial load).
// It returns nil when nothing changed.
func Diff(patientID string, slideID SlideID, oldNodes, newNodes []Node) *SlideDiff {
	diff := &SlideDiff{PatientID: patientID, SlideID: slideID}

	oldByID := make(map[string]Node, len(oldNodes))
	for _, n := range oldNodes {
		oldByID[n.ID] = n
	}
	newIDs := make(map[string]struct{}, len(newNodes))

	for _, n := range newNodes {
		newIDs[n.ID] = struct{}{}
		prev, existed := oldByID[n.ID]
		switch {
		case !existed:
			diff.Added = append(diff.Added, n.Clone())
		case !prev.Equal(n):
			diff.Changed = append(diff.Changed, n.Clone())
		}
	}

	for _, n := range oldNodes {
		if _, kept := newIDs[n.ID]; !kept {
			diff.Removed = append(diff.Removed, n.ID)
		}
	}

	if len(diff.Added) == 0 && len(diff.Removed) == 0 && len(oldNodes) == len(newNodes) {
		for i := range newNodes {
			if oldNodes[i].ID != newNodes[i].ID {
				diff.Order = nodeIDs(newNodes)
				break
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SlideDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Changed) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Order) == 0
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
