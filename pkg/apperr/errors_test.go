package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"empty query", ErrEmptyQuery, "⚠️ Please provide a question."},
		{"no index", ErrNoIndex, "⚠️ No wine business documents uploaded yet. Please upload files via /upload."},
		{"qa failure keeps cause text", Wrap(ErrQAFailed, errors.New("llm timeout")), "⚠️ QA chain failed: llm timeout"},
		{"no results", ErrNoResults, "⚠️ No results found."},
		{"search failure", Wrap(ErrSearchFailed, errors.New("connection refused")), "⚠️ Web search failed: connection refused"},
		{"weather key", ErrWeatherNoKey, "⚠️ No OpenWeather API key set."},
		{"weather provider", New(ErrWeatherProvider, http.StatusBadGateway, "city not found"), "⚠️ Couldn’t fetch weather: city not found"},
		{"weather failure", Wrap(ErrWeatherFailed, errors.New("deadline exceeded")), "⚠️ Weather fetch failed: deadline exceeded"},
		{"unexpected", errors.New("boom"), "⚠️ boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.err))
		})
	}
}

func TestRender_OuterClassificationWins(t *testing.T) {
	inner := Wrap(ErrEmbedding, errors.New("ollama down"))
	err := Wrap(ErrQAFailed, inner)

	assert.True(t, errors.Is(err, ErrEmbedding))
	assert.Equal(t, "⚠️ QA chain failed: ollama down", Render(err))
}

func TestHTTPStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatusCode(ErrUnsupportedFile))
	assert.Equal(t, http.StatusNotFound, HTTPStatusCode(fmt.Errorf("wrapped: %w", ErrNoIndex)))
	assert.Equal(t, http.StatusTeapot, HTTPStatusCode(New(ErrInvalidInput, http.StatusTeapot, "x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusCode(errors.New("other")))
}
