package embedding

import (
	"fmt"
	"time"
)

type FactoryConfig struct {
	Provider      string
	Model         string
	BaseURL       string
	APIKey        string
	OllamaBaseURL string
	Dimensions    int
	Timeout       time.Duration
}

func NewProvider(cfg FactoryConfig) (EmbeddingProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.Model, cfg.Timeout), nil
	case "openai":
		return NewOpenAIProvider("openai", cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "huggingface":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://router.huggingface.co/v1"
		}
		return NewOpenAIProvider("huggingface", cfg.APIKey, baseURL, cfg.Model, cfg.Timeout), nil
	case "hash", "local":
		return NewHashProvider(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
