package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/slidedeck/pkg/adapters/memory"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunPresentationStoreContract(t, store)
}

func TestMemoryStore_ImageContract(t *testing.T) {
	ports.RunImageStoreContract(t, memory.NewStore())
}

func TestMemoryStore_DeleteDropsImages(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Save(ctx, "p1", domain.NewDocument()))
	location, err := store.PutImage(ctx, "p1", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	_, imageID, ok := domain.ParseImageLocation(location)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "p1"))

	_, err = store.GetImage(ctx, "p1", imageID)
	assert.ErrorIs(t, err, domain.ErrImageNotFound)
}
