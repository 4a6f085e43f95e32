package answer

import (
	"context"
	"errors"
	"strings"

	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/llm"
	"wine-concierge-be/pkg/vectorindex"
)

const systemPrompt = "You are the concierge of a wine business. Answer questions using only the business documents you are given."

const groundedTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}

Question: {question}
Helpful Answer:`

type Engine struct {
	provider llm.LLMProvider
	opts     []llm.Option
}

func New(provider llm.LLMProvider, opts ...llm.Option) *Engine {
	return &Engine{provider: provider, opts: opts}
}

// BuildPrompt stuffs the chunk texts, best match first, into the grounded template.
func BuildPrompt(query string, matches []vectorindex.Match) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, strings.TrimSpace(m.Chunk.Text))
	}
	return strings.NewReplacer(
		"{context}", strings.Join(parts, "\n\n"),
		"{question}", query,
	).Replace(groundedTemplate)
}

// AnswerWithContext asks the model to answer query from the retrieved chunks.
func (e *Engine) AnswerWithContext(ctx context.Context, query string, matches []vectorindex.Match) (string, error) {
	history := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: BuildPrompt(query, matches)},
	}

	out, err := e.provider.Chat(ctx, history, e.opts...)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrCompletion, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.Wrap(apperr.ErrCompletion, errors.New("model returned an empty answer"))
	}
	return out, nil
}

// AnswerFreeform passes tool output through unchanged.
func (e *Engine) AnswerFreeform(toolOutput string) string {
	return toolOutput
}
