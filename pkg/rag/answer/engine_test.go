package answer

import (
	"context"
	"errors"
	"testing"

	"wine-concierge-be/pkg/apperr"
	"wine-concierge-be/pkg/llm"
	"wine-concierge-be/pkg/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLLM struct {
	reply   string
	err     error
	history []llm.Message
	opts    llm.Options
}

func (r *recordingLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	r.history = history
	r.opts = llm.Apply(llm.Options{}, options...)
	return r.reply, r.err
}

func (r *recordingLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return r.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func matches(texts ...string) []vectorindex.Match {
	out := make([]vectorindex.Match, len(texts))
	for i, t := range texts {
		out[i] = vectorindex.Match{Chunk: vectorindex.Chunk{Text: t}}
	}
	return out
}

func TestAnswerWithContext(t *testing.T) {
	model := &recordingLLM{reply: "  We open at 10am.\n"}
	engine := New(model, llm.WithTemperature(0.3))

	out, err := engine.AnswerWithContext(context.Background(), "When do you open?",
		matches("Tasting room opens at 10am.", "Closed on Christmas."))

	require.NoError(t, err)
	assert.Equal(t, "We open at 10am.", out)

	require.Len(t, model.history, 2)
	assert.Equal(t, llm.RoleSystem, model.history[0].Role)
	prompt := model.history[1].Content
	assert.Contains(t, prompt, "Tasting room opens at 10am.\n\nClosed on Christmas.")
	assert.Contains(t, prompt, "Question: When do you open?")
	require.NotNil(t, model.opts.Temperature)
	assert.Equal(t, 0.3, *model.opts.Temperature)
}

func TestAnswerWithContext_Failures(t *testing.T) {
	tests := []struct {
		name  string
		model *recordingLLM
	}{
		{"provider error", &recordingLLM{err: errors.New("429 too many requests")}},
		{"blank answer", &recordingLLM{reply: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.model).AnswerWithContext(context.Background(), "q", matches("c"))
			assert.ErrorIs(t, err, apperr.ErrCompletion)
		})
	}
}

func TestAnswerFreeform(t *testing.T) {
	assert.Equal(t, "Weather in Napa: clear", New(&recordingLLM{}).AnswerFreeform("Weather in Napa: clear"))
}
