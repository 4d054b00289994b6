// Package chat orchestrates a query turn: retrieve, route, respond, record.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ashryn/docschat/internal/docstore"
	"github.com/ashryn/docschat/internal/log"
	"github.com/ashryn/docschat/internal/respond"
	"github.com/ashryn/docschat/internal/retrieve"
	"github.com/ashryn/docschat/internal/route"
	"github.com/ashryn/docschat/internal/session"
)

var (
	// ErrEmptyMessage indicates the turn carried no message text.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrRetrieval indicates the retrieval stage failed. The turn is aborted
	// with the user turn already on record; an outage must not masquerade as
	// an empty corpus.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrPersistence indicates the completed exchange could not be recorded.
	ErrPersistence = errors.New("persistence failed")
)

// Retriever finds corpus matches for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts ...retrieve.Option) ([]docstore.Match, error)
}

// Responder produces a labelled reply from a query and assembled context.
// Both respond.KBOnly and respond.Augmented satisfy it.
type Responder interface {
	Respond(ctx context.Context, query, contextBlock string) respond.Reply
}

// Recorder persists one turn of a conversation. An empty source marks a
// user turn.
type Recorder interface {
	AppendTurn(ctx context.Context, sessionID uuid.UUID, role, content, source string) error
}

// TurnRequest is one user query.
type TurnRequest struct {
	// SessionID may be uuid.Nil; a fresh session id is generated then.
	SessionID uuid.UUID
	Message   string
	// Augment permits the model to go beyond retrieved context.
	Augment bool
}

// TurnResult is the completed turn.
type TurnResult struct {
	SessionID uuid.UUID
	Reply     string
	Source    string
}

// Pipeline wires the stages of a turn together.
// Safe for concurrent use.
type Pipeline struct {
	retriever Retriever
	policy    route.Policy
	kbOnly    Responder
	augmented Responder
	recorder  Recorder
	logger    log.Logger
}

// New creates a Pipeline.
func New(retriever Retriever, policy route.Policy, kbOnly, augmented Responder, recorder Recorder, logger log.Logger) *Pipeline {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		retriever: retriever,
		policy:    policy,
		kbOnly:    kbOnly,
		augmented: augmented,
		recorder:  recorder,
		logger:    logger,
	}
}

// HandleTurn runs one turn end to end. The user turn is recorded before
// retrieval so the transcript keeps the question even when a later stage
// fails. Generation failures are contained inside the reply text; retrieval
// and persistence failures surface as ErrRetrieval and ErrPersistence.
func (p *Pipeline) HandleTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if req.Message == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	sessionID := req.SessionID
	if sessionID == uuid.Nil {
		sessionID = uuid.New()
	}

	if err := p.recorder.AppendTurn(ctx, sessionID, session.RoleUser, req.Message, ""); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	matches, err := p.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}

	best, found := retrieve.BestDistance(matches)
	decision := p.policy.Decide(best, found, req.Augment)
	contextBlock := retrieve.BuildContext(matches)

	p.logger.Debug("routed turn",
		"session_id", sessionID,
		"decision", decision.String(),
		"matches", len(matches),
		"best_distance", best)

	var reply respond.Reply
	switch decision {
	case route.Augmented:
		reply = p.augmented.Respond(ctx, req.Message, contextBlock)
	default:
		reply = p.kbOnly.Respond(ctx, req.Message, contextBlock)
	}

	if err := p.recorder.AppendTurn(ctx, sessionID, session.RoleAssistant, reply.Text, reply.Source); err != nil {
		return TurnResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return TurnResult{
		SessionID: sessionID,
		Reply:     reply.Text,
		Source:    reply.Source,
	}, nil
}
