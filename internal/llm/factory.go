package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"codesmith/internal/config"
	"codesmith/internal/logging"
)

// Provider identifies a chat backend.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

// NewClient builds the configured provider's client, rate limited.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	var (
		client Client
		err    error
	)

	switch Provider(cfg.Provider) {
	case ProviderOpenRouter, "":
		orCfg := DefaultOpenRouterConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			orCfg.BaseURL = cfg.BaseURL
		}
		orCfg.Timeout = timeout
		orCfg.MaxRetries = cfg.MaxRetries
		orCfg.SiteURL = cfg.SiteURL
		if cfg.SiteName != "" {
			orCfg.SiteName = cfg.SiteName
		}
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		client = NewOpenRouterClient(orCfg)
	case ProviderOpenAI:
		client, err = NewOpenAIClient(OpenAIConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Timeout: timeout})
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logging.Boot("LLM client: provider=%s rps=%.1f", cfg.Provider, cfg.RequestsPerSecond)
	return WrapWithRateLimit(client, rate.Limit(cfg.RequestsPerSecond), 1), nil
}
