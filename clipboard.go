package slidedeck

import (
	"context"
	"fmt"

	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
)

// Copy renders the primary selected node for the OS clipboard.
func (e *Editor) Copy() (deck.Clipboard, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	primary, ok := e.selection.Primary()
	if !ok {
		return deck.Clipboard{}, domain.ErrNoSelection
	}
	node, ok := deck.Find(e.presentLocked(primary.SlideID), primary.NodeID)
	if !ok {
		return deck.Clipboard{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, primary.NodeID)
	}
	return deck.Copy(node)
}

// Paste creates a node on the active slide from clipboard content, preferring image,
// then html, then text. Image bytes are uploaded first and the node stores the returned
// location.
func (e *Editor) Paste(ctx context.Context, clip deck.Clipboard) (domain.Node, error) {
	format, nodeType, err := clip.Pick()
	if err != nil {
		return domain.Node{}, err
	}

	value := string(format.Data)
	if format.IsImageData() {
		if e.images == nil {
			return domain.Node{}, ErrNoImageStore
		}
		location, err := e.images.PutImage(ctx, e.patientID, format.MIMEType, format.Data)
		if err != nil {
			e.logger.Error("failed to upload pasted image", "err", err, "content_type", format.MIMEType)
			return domain.Node{}, fmt.Errorf("failed to upload image: %w", err)
		}
		value = location
	}

	// The slide is read again after the upload, so edits made meanwhile are kept.
	return e.CreateNode(ctx, nodeType, &value, 0, 0)
}
