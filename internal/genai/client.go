// Package genai wraps the Genkit Google AI plugin behind the two operations
// the pipeline needs: embedding and text generation.
package genai

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/ashryn/docschat/internal/log"
)

// Embedding task types understood by the Gemini embedding models. Queries
// and corpus documents are embedded asymmetrically.
const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Client bridges Genkit to the pipeline. Safe for concurrent use.
type Client struct {
	g         *genkit.Genkit
	embedder  ai.Embedder
	modelName string
	logger    log.Logger
}

// New creates a Client. modelName is the bare Gemini model id
// (e.g. "gemini-2.5-flash"); embedderModel likewise
// (e.g. "text-embedding-004").
func New(g *genkit.Genkit, modelName, embedderModel string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		g:         g,
		embedder:  googlegenai.GoogleAIEmbedder(g, embedderModel),
		modelName: modelName,
		logger:    logger,
	}
}

// NewWithEmbedder creates a Client with an explicit embedder. Tests inject
// mock embedders through this constructor.
func NewWithEmbedder(g *genkit.Genkit, embedder ai.Embedder, modelName string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		g:         g,
		embedder:  embedder,
		modelName: modelName,
		logger:    logger,
	}
}

// EmbedQuery embeds a user query with the query task type.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskRetrievalQuery)
}

// EmbedDocument embeds corpus content with the document task type.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskRetrievalDocument)
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
		Options: &googlegenai.EmbedOptions{TaskType: taskType},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}

	return resp.Embeddings[0].Embedding, nil
}

// Generate produces a single completion for prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithPrompt(prompt),
		ai.WithModelName("googleai/"+c.modelName),
	)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}

	text := resp.Text()
	c.logger.Debug("generated completion", "prompt_length", len(prompt), "reply_length", len(text))
	return text, nil
}
