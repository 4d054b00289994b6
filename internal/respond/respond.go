// Package respond turns a routed query plus assembled context into a reply,
// labelling each reply with its provenance.
package respond

import (
	"context"
	"fmt"

	"github.com/ashryn/docschat/internal/log"
)

// Provenance labels recorded with every assistant turn.
const (
	// SourceKB marks replies grounded purely in retrieved documents.
	SourceKB = "KB"
	// SourceKBLLM marks replies mixing retrieved documents with model knowledge.
	SourceKBLLM = "KB+LLM"
	// SourceLLM marks replies produced without any retrieved context.
	SourceLLM = "LLM"
)

// Refusal is returned verbatim when a KB-only turn has no context to answer
// from. It must stay deterministic: no model call is made on this path.
const Refusal = "I couldn't find an answer in internal docs."

// Disclosure is the phrase the model is told to use when the retrieved
// context does not cover the question. Distinct from Refusal, which marks a
// turn where nothing was retrieved at all.
const Disclosure = "I don't know based on internal docs."

// errPrefix marks replies produced when the model call itself failed. The
// turn still completes and is recorded.
const errPrefix = "⚠️ generation error: "

// Generator produces one completion for a prompt. *genai.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Reply is a finished assistant response.
type Reply struct {
	Text   string
	Source string
}

// KBOnly answers strictly from retrieved context.
type KBOnly struct {
	gen    Generator
	logger log.Logger
}

// NewKBOnly creates the KB-only responder.
func NewKBOnly(gen Generator, logger log.Logger) *KBOnly {
	if logger == nil {
		logger = log.NewNop()
	}
	return &KBOnly{gen: gen, logger: logger}
}

// Respond answers query from contextBlock. With no context it returns the
// refusal without calling the model; either way provenance is KB.
func (r *KBOnly) Respond(ctx context.Context, query, contextBlock string) Reply {
	if contextBlock == "" {
		return Reply{Text: Refusal, Source: SourceKB}
	}

	prompt := fmt.Sprintf(
		"You are an assistant for internal documentation. Use ONLY the CONTEXT below to answer.\n"+
			"If the answer is not in the context, say %q.\n\n"+
			"CONTEXT:\n%s\n\nQUESTION: %s",
		Disclosure, contextBlock, query)

	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		r.logger.Warn("generation failed on kb-only turn", "error", err)
		return Reply{Text: errPrefix + err.Error(), Source: SourceKB}
	}
	return Reply{Text: text, Source: SourceKB}
}

// Augmented lets the model combine retrieved context with its own knowledge.
type Augmented struct {
	gen    Generator
	logger log.Logger
}

// NewAugmented creates the augmented responder.
func NewAugmented(gen Generator, logger log.Logger) *Augmented {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Augmented{gen: gen, logger: logger}
}

// Respond answers query, offering contextBlock as a hint when present.
// Provenance is KB+LLM with context, LLM without.
func (r *Augmented) Respond(ctx context.Context, query, contextBlock string) Reply {
	var prompt, source string
	if contextBlock != "" {
		source = SourceKBLLM
		prompt = fmt.Sprintf(
			"You are an assistant for internal documentation. The CONTEXT below may help, "+
				"but it was not a confident match. Use it where relevant, fall back to your "+
				"general knowledge otherwise, and note %q when the internal docs did not "+
				"cover the question.\n\nCONTEXT:\n%s\n\nQUESTION: %s",
			Disclosure, contextBlock, query)
	} else {
		source = SourceLLM
		prompt = fmt.Sprintf(
			"You are a helpful assistant. Answer the question below.\n\nQUESTION: %s",
			query)
	}

	text, err := r.gen.Generate(ctx, prompt)
	if err != nil {
		r.logger.Warn("generation failed on augmented turn", "error", err, "source", source)
		return Reply{Text: errPrefix + err.Error(), Source: source}
	}
	return Reply{Text: text, Source: source}
}
