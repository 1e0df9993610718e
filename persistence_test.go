package slidedeck_test

import (
	"context"
	"testing"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/aretw0/slidedeck/pkg/deck"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore blocks Load until released, so edits can land while a fetch is in flight.
type gatedStore struct {
	*memory.Store
	started chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Store: memory.NewStore(), started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Load(ctx context.Context, patientID string) (domain.Document, error) {
	close(g.started)
	<-g.release
	return g.Store.Load(ctx, patientID)
}

type failingStore struct{ *memory.Store }

func (failingStore) Save(context.Context, string, domain.Document) error { return errBoom }

func (failingStore) Load(context.Context, string) (domain.Document, error) {
	return domain.Document{}, errBoom
}

func TestEditor_LoadNotFoundBuildsDefault(t *testing.T) {
	ctx := context.Background()
	var loaded *domain.PersistenceEvent
	ed := newEditor(t,
		slidedeck.WithStore(memory.NewStore()),
		slidedeck.WithLifecycleHooks(domain.LifecycleHooks{
			OnLoad: func(_ context.Context, ev *domain.PersistenceEvent) { loaded = ev },
		}),
	)

	require.NoError(t, ed.Load(ctx))

	ids := ed.SlideIDs()
	require.Len(t, ids, 1)
	assert.Equal(t, ids[0], ed.ActiveSlide())
	nodes := ed.Nodes(ids[0])
	require.Len(t, nodes, 1)
	assert.Equal(t, domain.NodeText, nodes[0].Type)
	assert.Equal(t, domain.DefaultNodeValue, *nodes[0].Value)
	assert.Equal(t, 0.0, nodes[0].Position.Left)
	assert.Equal(t, ids, ed.Dirty(), "the default deck is unsaved")

	require.NotNil(t, loaded)
	assert.True(t, loaded.NotFound)
}

func TestEditor_LoadReplacesSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, "patient-1", domain.Document{Slides: domain.Slides{
		"1": {domain.NewNode("a", domain.NodeText, domain.Ptr("first"), 0, 0)},
		"2": {},
	}}))

	ed := newEditor(t, slidedeck.WithStore(store))
	ed.Reset(domain.DefaultDocument("old", "x"))
	require.NoError(t, ed.Select("x"))

	require.NoError(t, ed.Load(ctx))
	assert.Equal(t, []domain.SlideID{"1", "2"}, ed.SlideIDs())
	assert.Equal(t, domain.SlideID("1"), ed.ActiveSlide())
	assert.Empty(t, ed.Selection())
	assert.False(t, ed.CanUndo("1"))
	assert.Empty(t, ed.Dirty())
	_, ok := ed.TimeState("old")
	assert.False(t, ok)
}

func TestEditor_StaleLoadIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	require.NoError(t, store.Store.Save(ctx, "patient-1", domain.DefaultDocument("remote", "r")))

	ed := newEditor(t, slidedeck.WithStore(store))
	ed.Reset(domain.DefaultDocument("local", "n"))

	done := make(chan error, 1)
	go func() { done <- ed.Load(ctx) }()

	<-store.started
	require.True(t, ed.MoveNode(ctx, "n", 10, 10))
	close(store.release)

	assert.ErrorIs(t, <-done, slidedeck.ErrStaleLoad)
	assert.Equal(t, []domain.SlideID{"local"}, ed.SlideIDs())
	assert.Equal(t, 10.0, ed.Nodes("local")[0].Position.Left)
}

func TestEditor_ForceLoadOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	require.NoError(t, store.Store.Save(ctx, "patient-1", domain.DefaultDocument("remote", "r")))

	ed := newEditor(t, slidedeck.WithStore(store))
	ed.Reset(domain.DefaultDocument("local", "n"))

	done := make(chan error, 1)
	go func() { done <- ed.ForceLoad(ctx) }()

	<-store.started
	ed.MoveNode(ctx, "n", 10, 10)
	close(store.release)

	require.NoError(t, <-done)
	assert.Equal(t, []domain.SlideID{"remote"}, ed.SlideIDs())
}

func TestEditor_SaveFlattensPresent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ed := newEditor(t, slidedeck.WithStore(store))
	ed.Reset(domain.DefaultDocument("s", "n"))
	ed.MoveNode(ctx, "n", 100, 0)
	ed.MoveNode(ctx, "n", 100, 0)
	ed.Undo(ctx, "")
	id := ed.AddSlide(ctx)
	ed.Undo(ctx, id) // back to the never-written sentinel

	require.NoError(t, ed.Save(ctx))
	assert.Empty(t, ed.Dirty())

	doc, err := store.Load(ctx, "patient-1")
	require.NoError(t, err)
	require.Len(t, doc.Slides, 2)
	assert.Equal(t, 100.0, doc.Slides["s"][0].Position.Left)
	assert.NotNil(t, doc.Slides[id])
	assert.Empty(t, doc.Slides[id])
}

func TestEditor_PersistenceErrors(t *testing.T) {
	ctx := context.Background()

	ed := newEditor(t)
	assert.ErrorIs(t, ed.Load(ctx), slidedeck.ErrNoStore)
	assert.ErrorIs(t, ed.Save(ctx), slidedeck.ErrNoStore)

	var saveErr error
	ed = newEditor(t,
		slidedeck.WithStore(failingStore{memory.NewStore()}),
		slidedeck.WithLifecycleHooks(domain.LifecycleHooks{
			OnSave: func(_ context.Context, ev *domain.PersistenceEvent) { saveErr = ev.Err },
		}),
	)
	ed.Reset(domain.DefaultDocument("s", "n"))
	ed.MoveNode(ctx, "n", 3, 3)

	assert.ErrorIs(t, ed.Load(ctx), errBoom)
	assert.Equal(t, []domain.SlideID{"s"}, ed.SlideIDs(), "a failed load keeps the session")

	assert.ErrorIs(t, ed.Save(ctx), errBoom)
	assert.ErrorIs(t, saveErr, errBoom)
	assert.Equal(t, []domain.SlideID{"s"}, ed.Dirty())
}

func TestEditor_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ed := newEditor(t, slidedeck.WithStore(store))
	require.NoError(t, ed.Load(ctx))
	require.NoError(t, ed.Save(ctx))

	require.NoError(t, ed.Delete(ctx))
	_, err := store.Load(ctx, "patient-1")
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
	assert.Len(t, ed.SlideIDs(), 1)
	assert.Equal(t, ed.SlideIDs(), ed.Dirty(), "the fresh default deck is unsaved")
}

func TestEditor_CopyPaste(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	ed := newEditor(t, slidedeck.WithStore(store))
	ed.Reset(domain.DefaultDocument("s", "n"))

	_, err := ed.Copy()
	assert.ErrorIs(t, err, domain.ErrNoSelection)

	require.NoError(t, ed.Select("n"))
	clip, err := ed.Copy()
	require.NoError(t, err)

	pasted, err := ed.Paste(ctx, clip)
	require.NoError(t, err)
	assert.Equal(t, domain.NodeText, pasted.Type)
	assert.Equal(t, domain.DefaultNodeValue, *pasted.Value)
	assert.NotEqual(t, "n", pasted.ID)

	img, err := ed.Paste(ctx, deck.Clipboard{Formats: []deck.ClipboardFormat{
		{MIMEType: "text/plain", Data: []byte("ignored")},
		{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.NodeImage, img.Type)

	owner, imageID, ok := domain.ParseImageLocation(*img.Value)
	require.True(t, ok)
	assert.Equal(t, "patient-1", owner)
	stored, err := store.GetImage(ctx, "patient-1", imageID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, stored.Data)

	assert.Len(t, ed.Nodes("s"), 3)

	_, err = ed.Paste(ctx, deck.Clipboard{Formats: []deck.ClipboardFormat{{MIMEType: "application/zip"}}})
	assert.ErrorIs(t, err, deck.ErrEmptyClipboard)
}

func TestEditor_PasteImageWithoutStore(t *testing.T) {
	ed := newEditor(t)
	ed.Reset(domain.DefaultDocument("s", "n"))
	_, err := ed.Paste(context.Background(), deck.Clipboard{Formats: []deck.ClipboardFormat{{MIMEType: "image/png", Data: []byte{1}}}})
	assert.ErrorIs(t, err, slidedeck.ErrNoImageStore)
}
