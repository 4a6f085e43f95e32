package factory

import (
	"fmt"
	"time"

	"wine-concierge-be/pkg/llm"
	"wine-concierge-be/pkg/llm/ollama"
	"wine-concierge-be/pkg/llm/openai"
)

type Config struct {
	Provider      string
	Model         string
	BaseURL       string
	APIKey        string
	OllamaBaseURL string
	Timeout       time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Timeout), nil
	case "groq":
		return openai.NewProvider("groq", cfg.APIKey, orDefault(cfg.BaseURL, openai.GroqBaseURL), cfg.Model, cfg.Timeout), nil
	case "openai":
		return openai.NewProvider("openai", cfg.APIKey, orDefault(cfg.BaseURL, openai.OpenAIBaseURL), cfg.Model, cfg.Timeout), nil
	case "huggingface":
		return openai.NewProvider("huggingface", cfg.APIKey, orDefault(cfg.BaseURL, openai.HuggingFaceBaseURL), cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
