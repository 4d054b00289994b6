package docstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/testutil"
)

// unitVector returns a VectorDim-dimensional unit vector along axis. Axis
// separation gives exact, predictable L2 distances between test documents.
func unitVector(axis int) []float32 {
	vec := make([]float32, docstore.VectorDim)
	vec[axis] = 1
	return vec
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	t.Parallel()

	store := docstore.New(nil, nil)
	err := store.Upsert(context.Background(), docstore.Document{ID: "x"}, []float32{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestStore(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := docstore.New(db.Pool, nil)

	docs := []struct {
		doc  docstore.Document
		axis int
	}{
		{docstore.Document{ID: "docs/deploy.md", Title: "Deploys", Content: "Run make deploy.",
			Metadata: map[string]string{"path": "docs/deploy.md"}}, 0},
		{docstore.Document{ID: "docs/retries.md", Title: "Retries", Content: "Exponential backoff."}, 1},
		{docstore.Document{ID: "docs/oncall.md", Title: "Oncall", Content: "Rotation is weekly."}, 2},
	}
	for _, d := range docs {
		require.NoError(t, store.Upsert(ctx, d.doc, unitVector(d.axis)))
	}

	t.Run("count", func(t *testing.T) {
		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("nearest orders by distance", func(t *testing.T) {
		matches, err := store.Nearest(ctx, unitVector(0), 3)
		require.NoError(t, err)
		require.Len(t, matches, 3)

		assert.Equal(t, "docs/deploy.md", matches[0].Document.ID)
		assert.InDelta(t, 0.0, matches[0].Distance, 1e-6)
		assert.Equal(t, "docs/deploy.md", matches[0].Document.Metadata["path"])

		// The other two axes are equidistant at sqrt(2).
		assert.InDelta(t, 1.4142, matches[1].Distance, 1e-3)
		assert.InDelta(t, 1.4142, matches[2].Distance, 1e-3)
	})

	t.Run("nearest respects limit", func(t *testing.T) {
		matches, err := store.Nearest(ctx, unitVector(0), 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("get", func(t *testing.T) {
		doc, err := store.Get(ctx, "docs/retries.md")
		require.NoError(t, err)
		assert.Equal(t, "Retries", doc.Title)
		assert.Equal(t, "Exponential backoff.", doc.Content)
		assert.False(t, doc.CreatedAt.IsZero())
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "docs/nope.md")
		require.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		updated := docs[0].doc
		updated.Content = "Run make deploy twice."
		require.NoError(t, store.Upsert(ctx, updated, unitVector(0)))

		doc, err := store.Get(ctx, "docs/deploy.md")
		require.NoError(t, err)
		assert.Equal(t, "Run make deploy twice.", doc.Content)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count, "upsert does not duplicate")
	})

	t.Run("list", func(t *testing.T) {
		listed, err := store.List(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, listed, 3)

		_, err = store.List(ctx, 0)
		require.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "docs/oncall.md"))
		require.NoError(t, store.Delete(ctx, "docs/oncall.md"), "deleting a missing id is not an error")

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestNearestEmptyCorpus(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	store := docstore.New(db.Pool, nil)
	matches, err := store.Nearest(context.Background(), unitVector(0), 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
