package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
)

// Input is the flow request payload. SessionID may be empty; a fresh
// session is created then.
type Input struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	Augment   *bool  `json:"augment,omitempty"` // nil = augmentation off
}

// Output is the flow response payload.
type Output struct {
	Reply     string `json:"reply"`
	Source    string `json:"source"`
	SessionID string `json:"sessionId"`
}

// FlowName is the registered name of the query flow in Genkit.
const FlowName = "docschat/query"

// Flow aliases the concrete Genkit flow type for use with genkit.Handler().
type Flow = core.Flow[Input, Output, struct{}]

// genkit.DefineFlow panics on re-registration, so the flow is a
// package-level singleton.
var (
	flowOnce sync.Once
	flow     *Flow
)

// NewFlow returns the query flow singleton, defining it on first call.
// Later calls return the existing flow and ignore the parameters.
func NewFlow(g *genkit.Genkit, pipeline *Pipeline) *Flow {
	flowOnce.Do(func() {
		flow = defineFlow(g, pipeline)
	})
	return flow
}

// ResetFlowForTesting clears the singleton. Test-only, not safe for
// concurrent use.
func ResetFlowForTesting() {
	flowOnce = sync.Once{}
	flow = nil
}

func defineFlow(g *genkit.Genkit, pipeline *Pipeline) *Flow {
	return genkit.DefineFlow(g, FlowName,
		func(ctx context.Context, input Input) (Output, error) {
			var sessionID uuid.UUID
			if input.SessionID != "" {
				parsed, err := uuid.Parse(input.SessionID)
				if err != nil {
					return Output{}, fmt.Errorf("invalid session id %q: %w", input.SessionID, err)
				}
				sessionID = parsed
			}

			augment := false
			if input.Augment != nil {
				augment = *input.Augment
			}

			result, err := pipeline.HandleTurn(ctx, TurnRequest{
				SessionID: sessionID,
				Message:   input.Message,
				Augment:   augment,
			})
			if err != nil {
				return Output{}, err
			}

			return Output{
				Reply:     result.Reply,
				Source:    result.Source,
				SessionID: result.SessionID.String(),
			}, nil
		},
	)
}
