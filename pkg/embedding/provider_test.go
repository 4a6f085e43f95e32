package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestOllamaProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)

		var body ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body.Model)
		assert.Equal(t, "search_query: pinot", body.Prompt)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{"embedding": []float64{3, 4}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "", time.Second)
	res, err := p.Generate(context.Background(), "pinot", TaskRetrievalQuery)

	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, res.Embedding.Values, 1e-6)
	assert.Equal(t, "ollama:nomic-embed-text", p.Fingerprint())
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing", time.Second).Generate(context.Background(), "x", TaskRetrievalDocument)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenAIProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("huggingface", "secret", srv.URL+"/v1/", "all-MiniLM-L6-v2", time.Second)
	res, err := p.Generate(context.Background(), "riesling", TaskRetrievalDocument)

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, res.Embedding.Values)
	assert.Equal(t, "huggingface:all-MiniLM-L6-v2", p.Fingerprint())
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIProvider("openai", "", srv.URL, "m", time.Second).Generate(context.Background(), "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestHashProvider(t *testing.T) {
	p := NewHashProvider(256)
	ctx := context.Background()

	a, err := p.Generate(ctx, "Our Cabernet Sauvignon is aged in French oak barrels", TaskRetrievalDocument)
	require.NoError(t, err)
	b, err := p.Generate(ctx, "Our Cabernet Sauvignon is aged in French oak barrels", TaskRetrievalQuery)
	require.NoError(t, err)
	c, err := p.Generate(ctx, "Tasting room opening hours on weekends", TaskRetrievalDocument)
	require.NoError(t, err)
	q, err := p.Generate(ctx, "which barrels age the cabernet", TaskRetrievalQuery)
	require.NoError(t, err)

	assert.Len(t, a.Embedding.Values, 256)
	assert.InDelta(t, 1.0, magnitude(a.Embedding.Values), 1e-5)
	assert.Equal(t, a.Embedding.Values, b.Embedding.Values)
	assert.Greater(t, dot(q.Embedding.Values, a.Embedding.Values), dot(q.Embedding.Values, c.Embedding.Values))
	assert.Equal(t, "hash:256", p.Fingerprint())
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(FactoryConfig{Provider: "hash", Dimensions: 64})
	require.NoError(t, err)
	assert.Equal(t, "hash:64", p.Fingerprint())

	_, err = NewProvider(FactoryConfig{Provider: "gemini"})
	assert.Error(t, err)
}
