// Package docstore persists the document corpus in PostgreSQL with pgvector
// embeddings and serves nearest-neighbour queries over them.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/ashryn/docschat/internal/log"
)

// ErrNotFound indicates no document exists for the given id.
var ErrNotFound = errors.New("document not found")

// searchTimeout bounds vector searches so a slow index scan cannot block a
// chat turn indefinitely.
const searchTimeout = 10 * time.Second

// Querier is the subset of pgx operations the store needs. *pgxpool.Pool and
// pgx.Tx both satisfy it; interfaces are defined by the consumer.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages documents and their embeddings.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	db     Querier
	logger log.Logger
}

// New creates a Store. A nil logger discards output.
func New(db Querier, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Upsert inserts or replaces a document and its embedding.
func (s *Store) Upsert(ctx context.Context, doc Document, embedding []float32) error {
	if len(embedding) != VectorDim {
		return fmt.Errorf("embedding for %q has %d dimensions, want %d", doc.ID, len(embedding), VectorDim)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO documents (id, title, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`,
		doc.ID, doc.Title, doc.Content, metadataJSON, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to upsert document %q: %w", doc.ID, err)
	}

	s.logger.Debug("upserted document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Nearest returns up to limit documents ordered by ascending L2 distance
// from the query embedding. An empty corpus yields an empty slice.
func (s *Store) Nearest(ctx context.Context, embedding []float32, limit int) ([]Match, error) {
	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	rows, err := s.db.Query(queryCtx, `
		SELECT id, title, content, metadata, created_at, embedding <-> $1 AS distance
		FROM documents
		ORDER BY embedding <-> $1
		LIMIT $2`,
		pgvector.NewVector(embedding), limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	matches := make([]Match, 0, limit)
	for rows.Next() {
		var (
			doc          Document
			metadataJSON []byte
			createdAt    pgtype.Timestamptz
			distance     float64
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &metadataJSON, &createdAt, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			s.logger.Warn("failed to parse metadata", "document_id", doc.ID, "error", err)
			doc.Metadata = map[string]string{}
		}
		if createdAt.Valid {
			doc.CreatedAt = createdAt.Time
		}
		matches = append(matches, Match{Document: doc, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	s.logger.Debug("nearest search", "matches", len(matches), "limit", limit)
	return matches, nil
}

// Get returns a document by id. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (Document, error) {
	var (
		doc          Document
		metadataJSON []byte
		createdAt    pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, title, content, metadata, created_at
		FROM documents WHERE id = $1`, id).
		Scan(&doc.ID, &doc.Title, &doc.Content, &metadataJSON, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Document{}, fmt.Errorf("failed to get document %q: %w", id, err)
	}
	if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
		doc.Metadata = map[string]string{}
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	return doc, nil
}

// Delete removes a document. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", id, err)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}

// Count returns the number of documents in the corpus.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// List returns up to limit documents ordered by creation time, newest first.
// Embeddings are not loaded.
func (s *Store) List(ctx context.Context, limit int) ([]Document, error) {
	const maxListLimit = 1000
	if limit <= 0 || limit > maxListLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", maxListLimit, limit)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, content, metadata, created_at
		FROM documents
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, limit)
	for rows.Next() {
		var (
			doc          Document
			metadataJSON []byte
			createdAt    pgtype.Timestamptz
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &metadataJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			doc.Metadata = map[string]string{}
		}
		if createdAt.Valid {
			doc.CreatedAt = createdAt.Time
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
