package ai

import (
	"context"
	"net/http"

	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"
)

// BuildProviders constructs the providers named in cfg.AI.Order, skipping any
// backend without an API key. The result may be empty.
func BuildProviders(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *resumescanErrors.Logger) ([]Provider, error) {
	systemPrompt := cfg.SystemPrompt()
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	var providers []Provider
	for _, backend := range cfg.AI.Order {
		switch backend {
		case config.ProviderGemini:
			geminiCfg := cfg.GetGeminiConfig()
			if geminiCfg.APIKey == "" {
				logSkipped(logger, backend)
				continue
			}
			prompt := ""
			if cfg.AI.UseSystemPrompts {
				prompt = systemPrompt
			}
			gemini, err := NewGeminiProviders(ctx, geminiCfg, prompt, httpClient, logger)
			if err != nil {
				return nil, err
			}
			for _, p := range gemini {
				providers = append(providers, p)
			}

		case config.ProviderOpenAI:
			openaiCfg := cfg.GetOpenAIConfig()
			if openaiCfg.APIKey == "" {
				logSkipped(logger, backend)
				continue
			}
			p, err := NewOpenAIProvider(openaiCfg, systemPrompt, httpClient, logger)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)

		default:
			return nil, resumescanErrors.NewConfigError(resumescanErrors.ErrCodeInvalidConfig,
				"unknown AI provider in order: "+backend, nil)
		}
	}
	return providers, nil
}

// NewChainFromConfig builds the providers and wraps them in a chain paced by the configured rate limit
func NewChainFromConfig(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *resumescanErrors.Logger) (*Chain, error) {
	providers, err := BuildProviders(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}
	return NewChain(providers,
		WithLimiter(NewRateLimiter(cfg.AI.RequestsPerMinute, cfg.AI.Burst)),
		WithRetryDelay(cfg.AI.RetryDelay),
		WithChainLogger(logger),
	), nil
}

func logSkipped(logger *resumescanErrors.Logger, backend string) {
	if logger != nil {
		logger.Debug("Skipping AI provider without API key", "provider", backend)
	}
}
