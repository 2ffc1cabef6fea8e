package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const openaiBackend = "openai"

// chatCompleter is the subset of the go-openai client the provider uses
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider using the OpenAI chat completions API
type OpenAIProvider struct {
	client       chatCompleter
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
	breaker      *Breaker
	logger       *resumescanErrors.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI provider. systemPrompt is sent as the system message.
func NewOpenAIProvider(cfg config.OpenAIConfig, systemPrompt string, httpClient *http.Client, logger *resumescanErrors.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, resumescanErrors.NewConfigError(resumescanErrors.ErrCodeMissingAPIKey,
			"OpenAI API key is not configured", nil)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	timeout := 60 * time.Second
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}

	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		breaker:      NewBreaker(openaiBackend+"/"+cfg.Model, cfg.CircuitBreaker, logger),
		logger:       logger,
	}, nil
}

func (o *OpenAIProvider) Name() string {
	return openaiBackend + "/" + o.model
}

// Generate implements Provider
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	tracer := otel.Tracer("resumescan.ai.openai")
	ctx, span := tracer.Start(ctx, "openai.generate")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", openaiBackend),
		attribute.String("ai.model", o.model),
		attribute.Float64("ai.temperature", float64(o.temperature)),
		attribute.Int("input.prompt_length", len(prompt)),
	)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	result, err := o.breaker.Execute(func() (generation, error) {
		resp, err := o.client.CreateChatCompletion(ctx, o.request(prompt))
		if err != nil {
			return generation{}, err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return generation{}, &ProviderError{
				Provider: openaiBackend,
				Model:    o.model,
				Kind:     KindEmptyResponse,
				Err:      fmt.Errorf("empty response from model %s", o.model),
			}
		}
		return generation{
			text: resp.Choices[0].Message.Content,
			usage: &TokenUsage{
				InputTokens:  int64(resp.Usage.PromptTokens),
				OutputTokens: int64(resp.Usage.CompletionTokens),
				TotalTokens:  int64(resp.Usage.TotalTokens),
			},
		}, nil
	})
	if err != nil {
		perr := newProviderError(openaiBackend, o.model, err)
		span.RecordError(perr)
		span.SetStatus(codes.Error, perr.Kind.String())
		span.SetAttributes(attribute.Bool("success", false), attribute.String("error.kind", perr.Kind.String()))
		if o.logger != nil {
			o.logger.Debug("OpenAI generation failed", "model", o.model, "kind", perr.Kind.String(), "error", err.Error())
		}
		return "", nil, perr
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int64("ai.tokens.total", result.usage.TotalTokens),
	)
	return result.text, result.usage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (o *OpenAIProvider) GetCircuitBreakerStats() map[string]any {
	return o.breaker.GetStats()
}

func (o *OpenAIProvider) request(prompt string) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	return openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
}
