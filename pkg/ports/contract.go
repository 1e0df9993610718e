package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument() domain.Document {
	return domain.Document{Slides: domain.Slides{
		"1": {
			domain.NewNode("1", domain.NodeText, domain.Ptr("Hello World"), 0, 0),
			{
				ID:        "2",
				Type:      domain.NodeImage,
				Value:     domain.Ptr("/presentation/p/image/abc"),
				Position:  domain.Position{Left: 12.5, Top: 40, Width: domain.Ptr(320.0)},
				Draggable: false,
			},
		},
		"2": {domain.NewNode("3", domain.NodeMutationTable, nil, 100, 100)},
		"3": {},
	}}
}

// RunPresentationStoreContract runs a suite of tests to verify that a PresentationStore
// implementation adheres to the defined interface contract.
func RunPresentationStoreContract(t *testing.T, store PresentationStore) {
	ctx := context.Background()
	patientID := "contract-patient-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()

		err := store.Save(ctx, patientID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, patientID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Slides, 3)
		for id, nodes := range doc.Slides {
			assert.True(t, domain.EqualNodes(nodes, loaded.Slides[id]), "slide %s differs: %+v", id, loaded.Slides[id])
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		doc := domain.DefaultDocument("only", "n1")
		require.NoError(t, store.Save(ctx, patientID, doc))

		loaded, err := store.Load(ctx, patientID)
		require.NoError(t, err)
		assert.Equal(t, []domain.SlideID{"only"}, loaded.SlideIDs())
	})

	t.Run("Loaded Document Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, patientID, contractDocument()))

		loaded, err := store.Load(ctx, patientID)
		require.NoError(t, err)
		*loaded.Slides["1"][0].Value = "mutated"
		loaded.Slides["1"][0].Position.Left = 999

		again, err := store.Load(ctx, patientID)
		require.NoError(t, err)
		assert.Equal(t, "Hello World", *again.Slides["1"][0].Value)
		assert.Equal(t, 0.0, again.Slides["1"][0].Position.Left)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+patientID)
		assert.ErrorIs(t, err, domain.ErrPresentationNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, patientID, contractDocument()))

		err := store.Delete(ctx, patientID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, patientID)
		assert.ErrorIs(t, err, domain.ErrPresentationNotFound, "Load after Delete should return ErrPresentationNotFound")

		assert.NoError(t, store.Delete(ctx, patientID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := patientID + "-1"
		id2 := patientID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractDocument()))
		require.NoError(t, store.Save(ctx, id2, domain.NewDocument()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		patients, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, patients, id1)
		assert.Contains(t, patients, id2)
	})
}

// RunImageStoreContract verifies an ImageStore implementation.
func RunImageStoreContract(t *testing.T, images ImageStore) {
	ctx := context.Background()
	patientID := "contract-images-" + time.Now().Format("20060102150405")
	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

	t.Run("Put and Get", func(t *testing.T) {
		location, err := images.PutImage(ctx, patientID, "image/png", data)
		require.NoError(t, err)

		owner, imageID, ok := domain.ParseImageLocation(location)
		require.True(t, ok, "location %q should be an image location", location)
		assert.Equal(t, patientID, owner)

		img, err := images.GetImage(ctx, patientID, imageID)
		require.NoError(t, err)
		assert.Equal(t, data, img.Data)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, imageID, img.ID)
	})

	t.Run("Distinct Locations", func(t *testing.T) {
		a, err := images.PutImage(ctx, patientID, "image/png", data)
		require.NoError(t, err)
		b, err := images.PutImage(ctx, patientID, "image/png", data)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("Unknown Image", func(t *testing.T) {
		_, err := images.GetImage(ctx, patientID, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrImageNotFound)
	})

	t.Run("Scoped To Patient", func(t *testing.T) {
		location, err := images.PutImage(ctx, patientID, "image/gif", data)
		require.NoError(t, err)
		_, imageID, _ := domain.ParseImageLocation(location)

		_, err = images.GetImage(ctx, patientID+"-other", imageID)
		assert.ErrorIs(t, err, domain.ErrImageNotFound)
	})
}
