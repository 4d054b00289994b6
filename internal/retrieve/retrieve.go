// Package retrieve embeds a query and finds the nearest corpus documents,
// then assembles them into the context block handed to responders.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/log"
)

// DefaultTopK is the number of documents fetched when no option overrides it.
const DefaultTopK = 3

// QueryEmbedder turns a user query into a vector, using the query-side task
// type of an asymmetric embedding model.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Index serves nearest-neighbour lookups over stored embeddings.
type Index interface {
	Nearest(ctx context.Context, embedding []float32, limit int) ([]docstore.Match, error)
}

// Option configures a single retrieval.
type Option func(*config)

type config struct {
	topK int
}

// WithTopK overrides the number of documents retrieved.
func WithTopK(k int) Option {
	return func(c *config) {
		if k > 0 {
			c.topK = k
		}
	}
}

// Retriever performs similarity retrieval.
// Safe for concurrent use.
type Retriever struct {
	embedder QueryEmbedder
	index    Index
	topK     int
	logger   log.Logger
}

// New creates a Retriever. topK <= 0 falls back to DefaultTopK.
func New(embedder QueryEmbedder, index Index, topK int, logger log.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{embedder: embedder, index: index, topK: topK, logger: logger}
}

// Retrieve returns matches ordered by ascending distance. An empty corpus
// yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...Option) ([]docstore.Match, error) {
	cfg := config{topK: r.topK}
	for _, opt := range opts {
		opt(&cfg)
	}

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.index.Nearest(ctx, embedding, cfg.topK)
	if err != nil {
		return nil, fmt.Errorf("nearest lookup failed: %w", err)
	}

	if len(matches) > 0 {
		r.logger.Debug("retrieved matches",
			"count", len(matches),
			"best_distance", matches[0].Distance)
	} else {
		r.logger.Debug("no matches retrieved")
	}
	return matches, nil
}

// BuildContext renders matches into the context block, each as
// "Title: {title}\n{content}", separated by "\n\n---\n\n". Empty matches
// render an empty string.
func BuildContext(matches []docstore.Match) string {
	if len(matches) == 0 {
		return ""
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = fmt.Sprintf("Title: %s\n%s", m.Document.Title, m.Document.Content)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// BestDistance returns the smallest distance among matches. The second
// return reports whether any match exists.
func BestDistance(matches []docstore.Match) (float64, bool) {
	if len(matches) == 0 {
		return 0, false
	}
	best := matches[0].Distance
	for _, m := range matches[1:] {
		if m.Distance < best {
			best = m.Distance
		}
	}
	return best, true
}
