// Package ingest loads local files into the document corpus: read, embed
// with the document task type, upsert.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/log"
)

// DocEmbedder embeds corpus content with the document-side task type.
type DocEmbedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}

// Index stores documents and their embeddings.
type Index interface {
	Upsert(ctx context.Context, doc docstore.Document, embedding []float32) error
}

// supportedExtensions are the file types ingested from directories.
var supportedExtensions = map[string]bool{
	".md":  true,
	".txt": true,
}

// Result summarizes one ingestion run.
type Result struct {
	FilesAdded   int
	FilesSkipped int
	FilesFailed  int
	Duration     time.Duration
}

// Ingestor walks files into the corpus.
type Ingestor struct {
	embedder DocEmbedder
	index    Index
	logger   log.Logger
}

// New creates an Ingestor.
func New(embedder DocEmbedder, index Index, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{embedder: embedder, index: index, logger: logger}
}

// IngestFile ingests a single file. The document id is the cleaned path and
// the title its base name without extension.
func (i *Ingestor) IngestFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's CLI argument
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return fmt.Errorf("file %s is empty", path)
	}

	embedding, err := i.embedder.EmbedDocument(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", path, err)
	}

	doc := docstore.Document{
		ID:      filepath.Clean(path),
		Title:   titleFromPath(path),
		Content: text,
		Metadata: map[string]string{
			"path": filepath.Clean(path),
		},
	}

	if err := i.index.Upsert(ctx, doc, embedding); err != nil {
		return fmt.Errorf("failed to store %s: %w", path, err)
	}

	i.logger.Info("ingested document", "id", doc.ID, "bytes", len(text))
	return nil
}

// IngestDir walks root and ingests every supported file. Individual file
// failures are counted, not fatal; the walk itself failing is.
func (i *Ingestor) IngestDir(ctx context.Context, root string) (Result, error) {
	start := time.Now()
	var res Result

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories such as .git.
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			res.FilesSkipped++
			return nil
		}

		if err := i.IngestFile(ctx, path); err != nil {
			i.logger.Warn("failed to ingest file", "path", path, "error", err)
			res.FilesFailed++
			return nil
		}
		res.FilesAdded++
		return nil
	})

	res.Duration = time.Since(start)
	if err != nil {
		return res, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	i.logger.Info("ingestion complete",
		"added", res.FilesAdded,
		"skipped", res.FilesSkipped,
		"failed", res.FilesFailed,
		"duration", res.Duration)
	return res, nil
}

// titleFromPath derives a document title from the file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
