package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/slidedeck/pkg/adapters/sqlite"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "decks", "slidedeck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	ports.RunPresentationStoreContract(t, newStore(t))
}

func TestSQLiteStore_ImageContract(t *testing.T) {
	ports.RunImageStoreContract(t, newStore(t))
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ports.RunPresentationStoreContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "slidedeck.db")

	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "p1", domain.DefaultDocument("1", "n")))
	require.NoError(t, store.Close())

	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	doc, err := store.Load(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, doc.Slides["1"], 1)
	assert.Equal(t, domain.DefaultNodeValue, *doc.Slides["1"][0].Value)
	assert.True(t, doc.Slides["1"][0].Draggable)
}

func TestSQLiteStore_NodeOrderPreserved(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	var nodes []domain.Node
	for _, id := range []string{"z", "a", "m", "10", "2"} {
		nodes = append(nodes, domain.NewNode(id, domain.NodeText, domain.Ptr(id), 0, 0))
	}
	require.NoError(t, store.Save(ctx, "p", domain.Document{Slides: domain.Slides{"s": nodes}}))

	doc, err := store.Load(ctx, "p")
	require.NoError(t, err)
	assert.True(t, domain.EqualNodes(nodes, doc.Slides["s"]))
}
