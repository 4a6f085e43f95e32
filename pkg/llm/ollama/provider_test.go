package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"wine-concierge-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   got.Model,
			Message: llm.Message{Role: "assistant", Content: "Try a Riesling."},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "gemma:2b", time.Second)
	out, err := p.Generate(context.Background(), "sweet wine?", llm.WithTemperature(0.2))

	require.NoError(t, err)
	assert.Equal(t, "Try a Riesling.", out)
	assert.Equal(t, "gemma:2b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "sweet wine?", got.Messages[0].Content)
	require.NotNil(t, got.Options.Temperature)
	assert.InDelta(t, 0.2, *got.Options.Temperature, 1e-9)
}

func TestOllamaProvider_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "http status", status: http.StatusNotFound, body: `model not found`, wantErr: "status 404"},
		{name: "error field", status: http.StatusOK, body: `{"error":"model is loading"}`, wantErr: "model is loading"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "unmarshal response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "gemma:2b", time.Second).Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestOllamaProvider_Live talks to a local Ollama when OLLAMA_INTEGRATION=1.
func TestOllamaProvider_Live(t *testing.T) {
	if os.Getenv("OLLAMA_INTEGRATION") != "1" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION not set")
	}
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		model = "gemma:2b"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out, err := NewOllamaProvider(baseURL, model, 0).Generate(ctx, "Name one red grape variety. Answer with one word.")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}
