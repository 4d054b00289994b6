// Package session persists conversations and their turns in PostgreSQL.
//
// Sessions are created implicitly: appending to an unknown session id
// creates it. Every append touches last_active so the session list stays
// ordered by recency.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashryn/docschat/internal/log"
)

// ErrNotFound indicates the session does not exist.
var ErrNotFound = errors.New("session not found")

// Store manages session persistence.
// Safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates a Store. A nil logger discards output.
func New(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// AppendTurn records a single turn. The session upsert and the insert run
// in one transaction, so the session exists (and last_active is touched)
// exactly when the turn does. Pass an empty source for user turns; it is
// stored as NULL.
//
// clock_timestamp() orders turns inserted within one transaction's now();
// Turns relies on created_at being strictly increasing per session.
func (s *Store) AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content, source string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (id) VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET last_active = now()`,
		uuidToPgUUID(sessionID))
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", sessionID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO turns (session_id, role, content, source, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), clock_timestamp())`,
		uuidToPgUUID(sessionID), role, content, source)
	if err != nil {
		return fmt.Errorf("failed to insert %s turn: %w", role, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Debug("appended turn", "session_id", sessionID, "role", role, "source", source)
	return nil
}

// Turns returns a session's turns ordered oldest first.
// Returns ErrNotFound when the session does not exist.
func (s *Store) Turns(ctx context.Context, sessionID uuid.UUID) ([]Turn, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`,
		uuidToPgUUID(sessionID)).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check session %s: %w", sessionID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, COALESCE(source, ''), created_at
		FROM turns
		WHERE session_id = $1
		ORDER BY created_at ASC`,
		uuidToPgUUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to get turns for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t         Turn
			id, sid   pgtype.UUID
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &sid, &t.Role, &t.Content, &t.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.ID = pgUUIDToUUID(id)
		t.SessionID = pgUUIDToUUID(sid)
		t.CreatedAt = createdAt.Time
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get turns for session %s: %w", sessionID, err)
	}
	return turns, nil
}

// ListSessions returns up to limit sessions ordered by last_active,
// most recent first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, created_at, last_active
		FROM sessions
		ORDER BY last_active DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]Session, 0, limit)
	for rows.Next() {
		var (
			sess                  Session
			id                    pgtype.UUID
			createdAt, lastActive pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &createdAt, &lastActive); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess.ID = pgUUIDToUUID(id)
		sess.CreatedAt = createdAt.Time
		sess.LastActive = lastActive.Time
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Get returns a session by id. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	var (
		sess                  Session
		id                    pgtype.UUID
		createdAt, lastActive pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, created_at, last_active
		FROM sessions WHERE id = $1`,
		uuidToPgUUID(sessionID)).
		Scan(&id, &createdAt, &lastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
		}
		return Session{}, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	sess.ID = pgUUIDToUUID(id)
	sess.CreatedAt = createdAt.Time
	sess.LastActive = lastActive.Time
	return sess, nil
}

// Delete removes a session and its turns (CASCADE).
func (s *Store) Delete(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, uuidToPgUUID(sessionID))
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	s.logger.Debug("deleted session", "id", sessionID)
	return nil
}

func uuidToPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgUUIDToUUID(pgUUID pgtype.UUID) uuid.UUID {
	if !pgUUID.Valid {
		return uuid.Nil
	}
	return pgUUID.Bytes
}
