package genai_test

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashryn/docschat/internal/genai"
	"github.com/ashryn/docschat/internal/testutil"
)

func TestEmbedQuery(t *testing.T) {
	g := genkit.Init(context.Background())

	mock := testutil.NewMockEmbedder(8)
	mock.SetVector("how do I deploy?", []float32{1, 0, 0, 0, 0, 0, 0, 0})
	embedder := mock.RegisterEmbedder(g)

	client := genai.NewWithEmbedder(g, embedder, "gemini-2.5-flash", nil)

	vec, err := client.EmbedQuery(context.Background(), "how do I deploy?")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0, 0, 0, 0, 0}, vec)
}

func TestEmbedIsDeterministic(t *testing.T) {
	g := genkit.Init(context.Background())

	mock := testutil.NewMockEmbedder(8)
	embedder := mock.RegisterEmbedder(g)
	client := genai.NewWithEmbedder(g, embedder, "gemini-2.5-flash", nil)

	first, err := client.EmbedDocument(context.Background(), "some corpus text")
	require.NoError(t, err)
	second, err := client.EmbedDocument(context.Background(), "some corpus text")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 8)
}
