package ports

import (
	"context"

	"github.com/aretw0/slidedeck/pkg/domain"
)

// PresentationStore persists the flattened deck (slide id -> present node list) of a patient.
// Undo history is session scratch state and never reaches a store.
type PresentationStore interface {
	// Save replaces the stored deck for patientID.
	Save(ctx context.Context, patientID string, doc domain.Document) error

	// Load retrieves the deck for patientID.
	// Returns domain.ErrPresentationNotFound if nothing is stored.
	Load(ctx context.Context, patientID string) (domain.Document, error)

	// Delete removes the deck. Deleting a missing deck is not an error.
	Delete(ctx context.Context, patientID string) error

	// List returns the patient ids that have a stored deck.
	List(ctx context.Context) ([]string, error)
}

// ImageStore keeps image blobs uploaded while pasting or inserting pictures.
type ImageStore interface {
	// PutImage stores data and returns the location to use as an image node value.
	PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error)

	// GetImage returns a stored image.
	// Returns domain.ErrImageNotFound if the id is unknown for that patient.
	GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error)
}
