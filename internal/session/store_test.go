package session_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashryn/docschat/internal/session"
	"github.com/ashryn/docschat/internal/testutil"
)

func TestStore(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := session.New(db.Pool, nil)

	sessionID := uuid.New()

	t.Run("append creates session", func(t *testing.T) {
		err := store.AppendTurn(ctx, sessionID, session.RoleUser, "how do I deploy?", "")
		require.NoError(t, err)

		sess, err := store.Get(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, sessionID, sess.ID)
		assert.False(t, sess.CreatedAt.IsZero())
	})

	t.Run("question alone stays on record", func(t *testing.T) {
		turns, err := store.Turns(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, turns, 1)
		assert.Equal(t, session.RoleUser, turns[0].Role)
		assert.Equal(t, "how do I deploy?", turns[0].Content)
	})

	t.Run("turns ordered user before assistant", func(t *testing.T) {
		err := store.AppendTurn(ctx, sessionID, session.RoleAssistant, "Run make deploy.", "KB")
		require.NoError(t, err)

		turns, err := store.Turns(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, turns, 2)

		assert.Equal(t, session.RoleUser, turns[0].Role)
		assert.Equal(t, "how do I deploy?", turns[0].Content)
		assert.Empty(t, turns[0].Source, "user turns carry no provenance")

		assert.Equal(t, session.RoleAssistant, turns[1].Role)
		assert.Equal(t, "Run make deploy.", turns[1].Content)
		assert.Equal(t, "KB", turns[1].Source)

		assert.False(t, turns[1].CreatedAt.Before(turns[0].CreatedAt))
	})

	t.Run("later turns extend the transcript", func(t *testing.T) {
		require.NoError(t, store.AppendTurn(ctx, sessionID, session.RoleUser, "and rollbacks?", ""))
		require.NoError(t, store.AppendTurn(ctx, sessionID, session.RoleAssistant, "Not covered in docs.", "LLM"))

		turns, err := store.Turns(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, turns, 4)
		assert.Equal(t, "and rollbacks?", turns[2].Content)
		assert.Equal(t, "LLM", turns[3].Source)
	})

	t.Run("turns for unknown session", func(t *testing.T) {
		_, err := store.Turns(ctx, uuid.New())
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("list orders by last active", func(t *testing.T) {
		other := uuid.New()
		require.NoError(t, store.AppendTurn(ctx, other, session.RoleUser, "hi", ""))

		sessions, err := store.ListSessions(ctx, 10)
		require.NoError(t, err)
		require.Len(t, sessions, 2)
		assert.Equal(t, other, sessions[0].ID, "most recently active first")
	})

	t.Run("append touches last active", func(t *testing.T) {
		require.NoError(t, store.AppendTurn(ctx, sessionID, session.RoleUser, "ping", ""))

		sessions, err := store.ListSessions(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, sessionID, sessions[0].ID)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.New())
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("delete cascades to turns", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, sessionID))

		_, err := store.Turns(ctx, sessionID)
		require.ErrorIs(t, err, session.ErrNotFound)

		var turnCount int
		err = db.Pool.QueryRow(ctx,
			`SELECT count(*) FROM turns WHERE session_id = $1`, sessionID).Scan(&turnCount)
		require.NoError(t, err)
		assert.Zero(t, turnCount)
	})

	t.Run("delete missing", func(t *testing.T) {
		err := store.Delete(ctx, uuid.New())
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}
