package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.PresentationStore and ports.ImageStore in memory.
// Safe for concurrent use.
type Store struct {
	decks  map[string]domain.Document
	images map[string]map[string]domain.Image // patient -> image id -> image
	mu     sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		decks:  make(map[string]domain.Document),
		images: make(map[string]map[string]domain.Image),
	}
}

// Save persists the deck in memory.
func (s *Store) Save(ctx context.Context, patientID string, doc domain.Document) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := doc.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.decks[patientID] = copied
	return nil
}

// Load retrieves the deck from memory.
func (s *Store) Load(ctx context.Context, patientID string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.decks[patientID]
	if !ok {
		return domain.Document{}, domain.ErrPresentationNotFound
	}

	// Copy on read so callers can't reach into the store through shared pointers
	return doc.Clone(), nil
}

// Delete removes the deck and its images.
func (s *Store) Delete(ctx context.Context, patientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.decks, patientID)
	delete(s.images, patientID)
	return nil
}

// List returns the patients with a stored deck.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := make([]string, 0, len(s.decks))
	for id := range s.decks {
		patients = append(patients, id)
	}
	sort.Strings(patients)
	return patients, nil
}

// PutImage keeps the blob and returns its served location.
func (s *Store) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	img := domain.Image{
		ID:          uuid.NewString(),
		PatientID:   patientID,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.images[patientID] == nil {
		s.images[patientID] = make(map[string]domain.Image)
	}
	s.images[patientID][img.ID] = img
	return domain.ImageLocation(patientID, img.ID), nil
}

// GetImage returns a copy of a stored image.
func (s *Store) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[patientID][imageID]
	if !ok {
		return domain.Image{}, domain.ErrImageNotFound
	}
	img.Data = append([]byte(nil), img.Data...)
	return img, nil
}
