package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ashryn/docschat/internal/log"
	"github.com/ashryn/docschat/internal/session"
)

// defaultSessionListLimit caps GET /api/sessions.
const defaultSessionListLimit = 50

// SessionReader serves the conversation read API. *session.Store satisfies it.
type SessionReader interface {
	ListSessions(ctx context.Context, limit int) ([]session.Session, error)
	Turns(ctx context.Context, sessionID uuid.UUID) ([]session.Turn, error)
}

type sessionHandler struct {
	store  SessionReader
	logger log.Logger
}

// listSessions handles GET /api/sessions, most recently active first.
func (h *sessionHandler) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context(), defaultSessionListLimit)
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list sessions", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions}, h.logger)
}

// getTurns handles GET /api/sessions/{id}/turns, oldest first.
func (h *sessionHandler) getTurns(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session", "session id must be a UUID", h.logger)
		return
	}

	turns, err := h.store.Turns(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", "session does not exist", h.logger)
			return
		}
		h.logger.Error("failed to get turns", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to get turns", h.logger)
		return
	}

	if turns == nil {
		turns = []session.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns}, h.logger)
}
