package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

const geminiBackend = "gemini"

// GeminiProvider implements Provider for a single Google Gemini model
type GeminiProvider struct {
	client       *genai.Client
	model        string
	systemPrompt string
	timeout      time.Duration
	breaker      *Breaker
	logger       *resumescanErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProviders creates one provider per configured model, sharing a single client.
// systemPrompt may be empty to send the prompt without a system instruction.
func NewGeminiProviders(ctx context.Context, cfg config.GeminiConfig, systemPrompt string, httpClient *http.Client, logger *resumescanErrors.Logger) ([]*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, resumescanErrors.NewConfigError(resumescanErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, resumescanErrors.NewAIError(resumescanErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	timeout := 60 * time.Second
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}

	providers := make([]*GeminiProvider, 0, len(cfg.Models))
	for _, model := range cfg.Models {
		name := geminiBackend + "/" + model
		providers = append(providers, &GeminiProvider{
			client:       client,
			model:        model,
			systemPrompt: systemPrompt,
			timeout:      timeout,
			breaker:      NewBreaker(name, cfg.CircuitBreaker, logger),
			logger:       logger,
		})
	}
	return providers, nil
}

func (g *GeminiProvider) Name() string {
	return geminiBackend + "/" + g.model
}

// Generate implements Provider
func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumescan.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", geminiBackend),
		attribute.String("ai.model", g.model),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (generation, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.generationConfig())
		if err != nil {
			return generation{}, err
		}
		text := resp.Text()
		if strings.TrimSpace(text) == "" {
			return generation{}, &ProviderError{
				Provider: geminiBackend,
				Model:    g.model,
				Kind:     KindEmptyResponse,
				Err:      fmt.Errorf("empty response from model %s", g.model),
			}
		}
		return generation{text: text, usage: extractTokenUsage(resp)}, nil
	})
	if err != nil {
		perr := newProviderError(geminiBackend, g.model, err)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Kind.String())
		span.SetAttributes(attribute.Bool("success", false), attribute.String("error.kind", perr.Kind.String()))
		if g.logger != nil {
			g.logger.Debug("Gemini generation failed", "model", g.model, "kind", perr.Kind.String(), "error", err.Error())
		}
		return "", nil, perr
	}

	if result.usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.usage.InputTokens),
			attribute.Int64("ai.tokens.output", result.usage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return result.text, result.usage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return g.breaker.GetStats()
}

// generationConfig returns the sampling settings for the provider's model.
// The 2.5 family is tuned for temperature 1; older models run cooler with safety filters off.
func (g *GeminiProvider) generationConfig() *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		TopP:             genai.Ptr[float32](0.95),
		MaxOutputTokens:  8192,
		ResponseMIMEType: "application/json",
	}

	if strings.HasPrefix(g.model, "gemini-2.5") {
		cfg.Temperature = genai.Ptr[float32](1.0)
		cfg.TopK = genai.Ptr[float32](64)
	} else {
		cfg.Temperature = genai.Ptr[float32](0.2)
		cfg.TopK = genai.Ptr[float32](40)
		cfg.SafetySettings = blockNoneSafetySettings()
	}

	if g.systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(g.systemPrompt, genai.RoleUser)
	}
	return cfg
}

func blockNoneSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return settings
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
