package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	redisadapter "github.com/aretw0/slidedeck/pkg/adapters/redis"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	mu    sync.Mutex
	loads int
}

func (s *SlowStore) Load(ctx context.Context, patientID string) (domain.Document, error) {
	time.Sleep(10 * time.Millisecond)
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return s.Store.Load(ctx, patientID)
}

func counterIDs() session.Option {
	return session.WithEditorOptions(
		slidedeck.WithSlideIDs(slidedeck.Counter(1)),
		slidedeck.WithNodeIDs(slidedeck.Counter(1)),
	)
}

func TestManager_OpenLoadsOnce(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	manager := session.NewManager(store, counterIDs())
	ctx := context.Background()

	var wg sync.WaitGroup
	editors := make([]*slidedeck.Editor, 5)
	for i := range editors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ed, err := manager.Open(ctx, "p1")
			assert.NoError(t, err)
			editors[i] = ed
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.loads)
	for _, ed := range editors[1:] {
		assert.Same(t, editors[0], ed)
	}
	assert.Equal(t, []string{"p1"}, manager.Sessions())
}

func TestManager_OpenStartsFromDefaultDeck(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), counterIDs())
	ed, err := manager.Open(context.Background(), "p1")
	require.NoError(t, err)

	nodes := ed.Nodes(ed.ActiveSlide())
	require.Len(t, nodes, 1)
	assert.Equal(t, domain.DefaultNodeValue, *nodes[0].Value)
	assert.NotEmpty(t, ed.Dirty())
}

func TestManager_WithLockSerialisesEdits(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), counterIDs())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "p1", func(ctx context.Context, ed *slidedeck.Editor) error {
				_, err := ed.CreateNode(ctx, domain.NodeText, nil, 0, 0)
				if err != nil {
					return err
				}
				return ed.Save(ctx)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	doc, err := manager.Store().Load(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 11, doc.NodeCount())
}

func TestManager_SaveAndDelete(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store, counterIDs())
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "never-opened"))
	_, err := store.Load(ctx, "never-opened")
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)

	_, err = manager.Open(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, manager.SaveAll(ctx))

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	require.NoError(t, manager.Delete(ctx, "p1"))
	assert.False(t, manager.IsOpen("p1"))
	_, err = store.Load(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
}

func TestManager_ReloadSkipsDirtySessions(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store, counterIDs())
	ctx := context.Background()

	ed, err := manager.Open(ctx, "p1")
	require.NoError(t, err)

	// Unsaved default deck.
	reloaded, err := manager.Reload(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, reloaded)

	require.NoError(t, ed.Save(ctx))
	require.NoError(t, store.Save(ctx, "p1", domain.Document{Slides: domain.Slides{"9": {}}}))

	reloaded, err = manager.Reload(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, reloaded)
	assert.Equal(t, []domain.SlideID{"9"}, ed.SlideIDs())
}

type chanSource chan string

func (c chanSource) Watch(ctx context.Context) (<-chan string, error) {
	return c, nil
}

func TestManager_WatchReloadsOpenSessions(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(store, counterIDs())
	ctx := context.Background()

	ed, err := manager.Open(ctx, "p1")
	require.NoError(t, err)
	require.NoError(t, ed.Save(ctx))

	require.NoError(t, store.Save(ctx, "p1", domain.Document{Slides: domain.Slides{"7": {}}}))

	source := make(chanSource, 2)
	source <- "unknown"
	source <- "p1"
	close(source)

	require.NoError(t, manager.Watch(ctx, source))
	assert.Equal(t, []domain.SlideID{"7"}, ed.SlideIDs())
	assert.False(t, manager.IsOpen("unknown"))
}

func TestManager_DistributedLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	store := redisadapter.New(mr.Addr(), "", 0)
	defer store.Close()

	locker := redisadapter.NewLocker(store.Client(), "slidedeck:")
	manager := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(time.Second), counterIDs())
	ctx := context.Background()

	err := manager.WithLock(ctx, "p1", func(ctx context.Context, ed *slidedeck.Editor) error {
		assert.True(t, mr.Exists("slidedeck:lock:p1"))
		return ed.Save(ctx)
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("slidedeck:lock:p1"))
}
