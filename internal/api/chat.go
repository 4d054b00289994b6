package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ashryn/docschat/internal/chat"
	"github.com/ashryn/docschat/internal/log"
)

// maxChatBodyBytes bounds the chat request body.
const maxChatBodyBytes = 64 * 1024

// TurnHandler runs one chat turn. *chat.Pipeline satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error)
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	Augment   *bool  `json:"augment,omitempty"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Source    string `json:"source"`
}

type chatHandler struct {
	pipeline TurnHandler
	logger   log.Logger
	// augmentDefault applies when the request omits "augment".
	augmentDefault bool
}

// send handles POST /api/chat. A missing session_id starts a fresh session;
// the generated id comes back in the response.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodyBytes)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", h.logger)
		return
	}

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty", h.logger)
		return
	}

	var sessionID uuid.UUID
	if req.SessionID != "" {
		parsed, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_session", "session_id must be a UUID", h.logger)
			return
		}
		sessionID = parsed
	}

	augment := h.augmentDefault
	if req.Augment != nil {
		augment = *req.Augment
	}

	result, err := h.pipeline.HandleTurn(r.Context(), chat.TurnRequest{
		SessionID: sessionID,
		Message:   req.Message,
		Augment:   augment,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty", h.logger)
		case errors.Is(err, chat.ErrRetrieval):
			// Details stay in the logs; clients get a generic upstream failure.
			h.logger.Error("retrieval failed", "error", err)
			writeError(w, http.StatusBadGateway, "retrieval_failed", "retrieval backend unavailable", h.logger)
		case errors.Is(err, chat.ErrPersistence):
			h.logger.Error("persistence failed", "error", err)
			writeError(w, http.StatusInternalServerError, "persistence_failed", "failed to record conversation", h.logger)
		default:
			h.logger.Error("chat turn failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: result.SessionID.String(),
		Reply:     result.Reply,
		Source:    result.Source,
	}, h.logger)
}
