package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.PresentationStore and ports.ImageStore using the local filesystem.
// Decks are JSON files named after the patient; images live under images/<patient>/.
type Store struct {
	BasePath string

	mu      sync.Mutex
	written map[string]string // patient -> digest of the last bytes this process wrote ("" = deleted)
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".slidedeck/presentations".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".slidedeck", "presentations")
	}
	return &Store{BasePath: basePath, written: make(map[string]string)}
}

func (s *Store) deckPath(patientID string) string {
	return filepath.Join(s.BasePath, patientID+".json")
}

func (s *Store) imageDir(patientID string) string {
	return filepath.Join(s.BasePath, "images", patientID)
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, "tmp-") {
		return fmt.Errorf("invalid id %q", id)
	}
	return nil
}

// Save persists the deck to a JSON file atomically.
func (s *Store) Save(ctx context.Context, patientID string, doc domain.Document) error {
	if err := validID(patientID); err != nil {
		return fmt.Errorf("patientID: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presentation: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.BasePath, s.deckPath(patientID), data); err != nil {
		return err
	}
	s.written[patientID] = digest(data)
	return nil
}

// Load retrieves the deck from its JSON file.
func (s *Store) Load(ctx context.Context, patientID string) (domain.Document, error) {
	if err := validID(patientID); err != nil {
		return domain.Document{}, fmt.Errorf("patientID: %w", err)
	}

	data, err := os.ReadFile(s.deckPath(patientID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Document{}, domain.ErrPresentationNotFound
		}
		return domain.Document{}, fmt.Errorf("failed to read presentation file: %w", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("failed to unmarshal presentation: %w", err)
	}
	if doc.Slides == nil {
		doc.Slides = domain.Slides{}
	}
	return doc, nil
}

// Delete removes the deck file and the patient's images.
func (s *Store) Delete(ctx context.Context, patientID string) error {
	if err := validID(patientID); err != nil {
		return fmt.Errorf("patientID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.deckPath(patientID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete presentation file: %w", err)
	}
	s.written[patientID] = ""
	if err := os.RemoveAll(s.imageDir(patientID)); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}
	return nil
}

// List returns the patients with a deck file.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list presentations: %w", err)
	}

	var patients []string
	for _, entry := range entries {
		if id, ok := patientFromFile(entry.Name()); ok && !entry.IsDir() {
			patients = append(patients, id)
		}
	}
	sort.Strings(patients)
	return patients, nil
}

type imageMeta struct {
	ContentType string `json:"contentType"`
}

// PutImage writes the blob and a metadata sidecar.
func (s *Store) PutImage(ctx context.Context, patientID, contentType string, data []byte) (string, error) {
	if err := validID(patientID); err != nil {
		return "", fmt.Errorf("patientID: %w", err)
	}
	id := uuid.NewString()
	dir := s.imageDir(patientID)

	meta, err := json.Marshal(imageMeta{ContentType: contentType})
	if err != nil {
		return "", err
	}
	if err := writeAtomic(dir, filepath.Join(dir, id+".json"), meta); err != nil {
		return "", err
	}
	if err := writeAtomic(dir, filepath.Join(dir, id), data); err != nil {
		return "", err
	}
	return domain.ImageLocation(patientID, id), nil
}

// GetImage reads an uploaded image.
func (s *Store) GetImage(ctx context.Context, patientID, imageID string) (domain.Image, error) {
	if validID(patientID) != nil || validID(imageID) != nil {
		return domain.Image{}, domain.ErrImageNotFound
	}
	dir := s.imageDir(patientID)

	data, err := os.ReadFile(filepath.Join(dir, imageID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Image{}, domain.ErrImageNotFound
		}
		return domain.Image{}, fmt.Errorf("failed to read image: %w", err)
	}
	var meta imageMeta
	if raw, err := os.ReadFile(filepath.Join(dir, imageID+".json")); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}
	if meta.ContentType == "" {
		meta.ContentType = "application/octet-stream"
	}

	return domain.Image{ID: imageID, PatientID: patientID, ContentType: meta.ContentType, Data: data}, nil
}

func patientFromFile(name string) (string, bool) {
	if filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
