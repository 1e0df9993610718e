package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.PresentationStore

	mu      sync.Mutex // guards locks and editors
	locks   map[string]*lockEntry
	editors map[string]*slidedeck.Editor

	editorOpts []slidedeck.Option
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and the editors it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions adds options applied to every editor the Manager opens.
func WithEditorOptions(opts ...slidedeck.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a new session Manager backed by store.
func NewManager(store ports.PresentationStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*slidedeck.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(patientID) after unlocking.
func (m *Manager) acquire(patientID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[patientID]
	if !exists {
		entry = &lockEntry{}
		m.locks[patientID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(patientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[patientID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, patientID)
	}
}

// WithLock runs fn with the patient's editor while holding the patient's lock.
// The editor is opened and loaded first if needed.
func (m *Manager) WithLock(ctx context.Context, patientID string, fn func(context.Context, *slidedeck.Editor) error) error {
	if patientID == "" {
		return fmt.Errorf("patientID is required")
	}

	entry := m.acquire(patientID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(patientID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, patientID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"patient_id", patientID,
					"err", err,
				)
			}
		}()
	}

	ed, err := m.openLocked(ctx, patientID)
	if err != nil {
		return err
	}
	return fn(ctx, ed)
}

// Open returns the patient's editor, loading it from the store on first use.
func (m *Manager) Open(ctx context.Context, patientID string) (*slidedeck.Editor, error) {
	var ed *slidedeck.Editor
	err := m.WithLock(ctx, patientID, func(_ context.Context, e *slidedeck.Editor) error {
		ed = e
		return nil
	})
	return ed, err
}

// openLocked must be called with the patient's lock held.
func (m *Manager) openLocked(ctx context.Context, patientID string) (*slidedeck.Editor, error) {
	m.mu.Lock()
	ed, ok := m.editors[patientID]
	m.mu.Unlock()
	if ok {
		return ed, nil
	}

	opts := append([]slidedeck.Option{
		slidedeck.WithStore(m.store),
		slidedeck.WithLogger(m.logger),
	}, m.editorOpts...)
	ed, err := slidedeck.New(patientID, opts...)
	if err != nil {
		return nil, err
	}
	if err := ed.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	m.mu.Lock()
	m.editors[patientID] = ed
	m.mu.Unlock()
	m.logger.Debug("session opened", "patient_id", patientID)
	return ed, nil
}

// Save persists the patient's open session. Saving a patient without a session is a no-op.
func (m *Manager) Save(ctx context.Context, patientID string) error {
	if !m.IsOpen(patientID) {
		return nil
	}
	return m.WithLock(ctx, patientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		return ed.Save(ctx)
	})
}

// Reload replaces an open session with the stored deck. Sessions with unsaved slides are
// kept and reported with reloaded=false.
func (m *Manager) Reload(ctx context.Context, patientID string) (bool, error) {
	if !m.IsOpen(patientID) {
		return false, nil
	}
	reloaded := false
	err := m.WithLock(ctx, patientID, func(ctx context.Context, ed *slidedeck.Editor) error {
		if len(ed.Dirty()) > 0 {
			m.logger.Warn("skipping reload of session with unsaved slides", "patient_id", patientID)
			return nil
		}
		if err := ed.Load(ctx); err != nil {
			return err
		}
		reloaded = true
		return nil
	})
	return reloaded, err
}

// Delete removes the stored deck and closes the session.
func (m *Manager) Delete(ctx context.Context, patientID string) error {
	if patientID == "" {
		return fmt.Errorf("patientID is required")
	}
	entry := m.acquire(patientID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(patientID)
	}()

	if err := m.store.Delete(ctx, patientID); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.editors, patientID)
	m.mu.Unlock()
	return nil
}

// Close drops the session from memory without saving.
func (m *Manager) Close(patientID string) {
	entry := m.acquire(patientID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(patientID)
	}()

	m.mu.Lock()
	delete(m.editors, patientID)
	m.mu.Unlock()
}

// SaveAll persists every open session, continuing past failures.
func (m *Manager) SaveAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.Sessions() {
		if err := m.Save(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Watch reloads open sessions whenever source reports an external change.
// It blocks until ctx is done or the source closes its channel.
func (m *Manager) Watch(ctx context.Context, source ports.Watchable) error {
	changes, err := source.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case patientID, ok := <-changes:
			if !ok {
				return nil
			}
			reloaded, err := m.Reload(ctx, patientID)
			if err != nil {
				m.logger.Error("failed to reload session", "patient_id", patientID, "err", err)
				continue
			}
			if reloaded {
				m.logger.Info("session reloaded after external change", "patient_id", patientID)
			}
		}
	}
}

// IsOpen reports whether the patient has a live session.
func (m *Manager) IsOpen(patientID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.editors[patientID]
	return ok
}

// Sessions lists the patients with a live session.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	ids := make([]string, 0, len(m.editors))
	for id := range m.editors {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Strings(ids)
	return ids
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying presentation store.
func (m *Manager) Store() ports.PresentationStore {
	return m.store
}
