package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch implements ports.Watchable. It reports the patient id of every deck file
// created, rewritten or removed by someone other than this Store.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure presentation directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				patientID, ok := patientFromFile(filepath.Base(event.Name))
				if !ok || !s.external(patientID) {
					continue
				}
				select {
				case out <- patientID:
				case <-ctx.Done():
					return
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

// external reports whether the deck file differs from what this Store last wrote.
func (s *Store) external(patientID string) bool {
	current := ""
	if data, err := os.ReadFile(s.deckPath(patientID)); err == nil {
		current = digest(data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	last, known := s.written[patientID]
	if known && last == current {
		return false
	}
	// Remember it so the burst of events of one external write is reported once.
	s.written[patientID] = current
	return true
}
