package slidedeck

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/history"
	"github.com/aretw0/slidedeck/pkg/ports"
	mapset "github.com/deckarep/golang-set/v2"
)

var (
	// ErrStaleLoad is returned by Load when the deck was edited while the fetch was in flight.
	// The fetched document is discarded and the edits are kept.
	ErrStaleLoad = errors.New("load result is stale: deck was edited while loading")

	// ErrNoStore is returned by persistence calls on an editor without a PresentationStore.
	ErrNoStore = errors.New("no presentation store configured")

	// ErrNoImageStore is returned when pasting image bytes without an ImageStore.
	ErrNoImageStore = errors.New("no image store configured")
)

// Editor is one editing session over one patient's deck.
// It owns the per-slide undo history, the selection and the active slide.
// Safe for concurrent use: every mutation reads and commits under one lock, and
// network round trips run outside it.
type Editor struct {
	patientID string

	mu         sync.Mutex
	history    *history.History[[]domain.Node]
	order      []domain.SlideID
	active     domain.SlideID
	selection  deck.Selection
	dirty      mapset.Set[domain.SlideID] // guarded by mu
	generation uint64

	store        ports.PresentationStore
	images       ports.ImageStore
	slideIDs     IDGenerator
	nodeIDs      IDGenerator
	historyLimit int
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	now          func() time.Time
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithStore sets the backend used by Load, Save and Delete.
// If the store also implements ports.ImageStore it is used for images too,
// unless WithImageStore says otherwise.
func WithStore(store ports.PresentationStore) Option {
	return func(e *Editor) {
		e.store = store
	}
}

// WithImageStore sets where pasted image bytes are uploaded.
func WithImageStore(images ports.ImageStore) Option {
	return func(e *Editor) {
		e.images = images
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHistoryLimit caps the undo depth of every slide. Zero means unlimited.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.historyLimit = n
	}
}

// WithSlideIDs sets the generator for new slide ids (default: UUIDs).
func WithSlideIDs(gen IDGenerator) Option {
	return func(e *Editor) {
		e.slideIDs = gen
	}
}

// WithNodeIDs sets the generator for new node ids (default: UUIDs).
func WithNodeIDs(gen IDGenerator) Option {
	return func(e *Editor) {
		e.nodeIDs = gen
	}
}

// New creates an empty editor for patientID. Call Load to fetch the stored deck, or
// Reset to seed one directly.
func New(patientID string, opts ...Option) (*Editor, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patientID is required")
	}

	e := &Editor{
		patientID: patientID,
		dirty:     mapset.NewThreadUnsafeSet[domain.SlideID](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.images == nil {
		if images, ok := e.store.(ports.ImageStore); ok {
			e.images = images
		}
	}
	if e.slideIDs == nil {
		e.slideIDs = UUIDs()
	}
	if e.nodeIDs == nil {
		e.nodeIDs = UUIDs()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("patient_id", patientID)
	e.history = history.New(domain.EqualNodes, history.WithLimit(e.historyLimit))

	return e, nil
}

// PatientID returns the patient whose deck is being edited.
func (e *Editor) PatientID() string {
	return e.patientID
}

// Reset replaces the whole deck with doc without touching the store. Every slide starts
// with an empty history, the selection is dropped and the first slide becomes active.
func (e *Editor) Reset(doc domain.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked(doc)
}

func (e *Editor) resetLocked(doc domain.Document) {
	slides := make(map[domain.SlideID][]domain.Node, len(doc.Slides))
	for id, nodes := range doc.Slides {
		if nodes == nil {
			nodes = []domain.Node{}
		}
		slides[id] = domain.CloneNodes(nodes)
	}
	e.history.Clear(slides)
	e.order = doc.SlideIDs()
	e.active = ""
	if len(e.order) > 0 {
		e.active = e.order[0]
	}
	e.selection.Clear()
	e.dirty.Clear()
}

// Generation counts committed edits. Load uses it to detect edits made during a fetch.
func (e *Editor) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
