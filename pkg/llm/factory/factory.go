package factory

import (
	"fmt"
	"time"

	"career-counselor-be/pkg/llm"
	"career-counselor-be/pkg/llm/ollama"
	"career-counselor-be/pkg/llm/openai"
)

const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
)

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case ProviderHuggingFace:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.HuggingFaceRouterURL
		}
		return openai.NewProvider(cfg.APIKey, baseURL, cfg.Model, cfg.Timeout), nil
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
