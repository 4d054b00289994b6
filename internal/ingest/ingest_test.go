package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashryn/docschat/internal/docstore"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedDocument(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 2, 3}, nil
}

type fakeIndex struct {
	docs map[string]docstore.Document
	err  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]docstore.Document)}
}

func (f *fakeIndex) Upsert(_ context.Context, doc docstore.Document, _ []float32) error {
	if f.err != nil {
		return f.err
	}
	f.docs[doc.ID] = doc
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "deploy.md", "# Deploys\nRun make deploy.\n")

	index := newFakeIndex()
	ing := New(&fakeEmbedder{}, index, nil)

	require.NoError(t, ing.IngestFile(context.Background(), path))

	doc, ok := index.docs[filepath.Clean(path)]
	require.True(t, ok)
	assert.Equal(t, "deploy", doc.Title)
	assert.Equal(t, "# Deploys\nRun make deploy.", doc.Content, "content is trimmed")
	assert.Equal(t, filepath.Clean(path), doc.Metadata["path"])
}

func TestIngestFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ing := New(&fakeEmbedder{}, newFakeIndex(), nil)

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		err := ing.IngestFile(context.Background(), filepath.Join(dir, "missing.md"))
		require.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "empty.md", "   \n")
		err := ing.IngestFile(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("embed failure", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "ok.md", "content")
		failing := New(&fakeEmbedder{err: errors.New("backend down")}, newFakeIndex(), nil)
		require.Error(t, failing.IngestFile(context.Background(), path))
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, dir, "ok2.md", "content")
		failing := New(&fakeEmbedder{}, &fakeIndex{err: errors.New("disk full")}, nil)
		require.Error(t, failing.IngestFile(context.Background(), path))
	})
}

func TestIngestDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "deploy.md", "deploy docs")
	writeFile(t, dir, "notes.txt", "plain notes")
	writeFile(t, dir, "sub/retries.md", "retry docs")
	writeFile(t, dir, "config.json", `{"skipped": true}`)
	writeFile(t, dir, "empty.md", "")
	writeFile(t, dir, ".hidden/secret.md", "never ingested")

	index := newFakeIndex()
	ing := New(&fakeEmbedder{}, index, nil)

	res, err := ing.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesAdded)
	assert.Equal(t, 1, res.FilesSkipped, "unsupported extension is skipped")
	assert.Equal(t, 1, res.FilesFailed, "empty file counts as failed")
	assert.Len(t, index.docs, 3)
	assert.NotContains(t, index.docs, filepath.Join(dir, ".hidden/secret.md"))
}

func TestIngestDirMissing(t *testing.T) {
	t.Parallel()

	ing := New(&fakeEmbedder{}, newFakeIndex(), nil)
	_, err := ing.IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestTitleFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "deploy", titleFromPath("docs/deploy.md"))
	assert.Equal(t, "notes", titleFromPath("notes.txt"))
	assert.Equal(t, "README", titleFromPath("/a/b/README"))
}
