package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resumescan/internal/analysis"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/observability"
	"resumescan/internal/schemas"
	"resumescan/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

// ResultCache stores finished analyses keyed by prompt. Get returns nil, nil on a miss.
type ResultCache interface {
	Get(ctx context.Context, key string) (*types.AnalyzeOutput, error)
	Set(ctx context.Context, key string, out *types.AnalyzeOutput) error
}

// Service produces normalized, enriched analyses from resume text
type Service struct {
	chain   *Chain
	cache   ResultCache
	metrics *observability.Metrics
	logger  *resumescanErrors.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

func WithCache(cache ResultCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithMetrics(metrics *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates a new analysis service over a provider chain
func NewService(chain *Chain, logger *resumescanErrors.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		chain:  chain,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers returns the provider names in fallback order
func (s *Service) Providers() []string {
	return s.chain.Providers()
}

// Analyze runs the full pipeline: prompt, cache, provider chain, repair, normalize, enrich.
func (s *Service) Analyze(ctx context.Context, input types.AnalyzeInput) (types.AnalyzeOutput, *TokenUsage, error) {
	input.ResumeText = strings.TrimSpace(input.ResumeText)
	if input.Tier == "" {
		input.Tier = types.TierFree
	}
	if err := input.Validate(); err != nil {
		return types.AnalyzeOutput{}, nil, resumescanErrors.NewValidationError(resumescanErrors.ErrCodeInvalidInput,
			"Invalid analysis input", err)
	}

	prompt := BuildAnalysisPrompt(input.ResumeText, input.JobDescription, input.Tier)
	key := CacheKey(prompt)

	if cached := s.lookup(ctx, key); cached != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricCacheHit, true)
		cached.Cached = true
		return *cached, nil, nil
	}

	var result ChainResult
	err := s.metrics.TrackAIOperation(ctx, "analyze_resume", func(ctx context.Context) *observability.AIOperationResult {
		var runErr error
		result, runErr = s.chain.Run(ctx, prompt)
		return &observability.AIOperationResult{
			Error:      runErr,
			Provider:   result.Provider,
			TokenUsage: toObservabilityUsage(result.Usage),
		}
	})
	for _, attempt := range result.Attempts {
		s.metrics.RecordProviderFallback(ctx, attempt.Provider, attempt.Kind.String())
	}
	for _, name := range result.Retried {
		s.metrics.RecordRateLimitRetry(ctx, name)
	}
	if err != nil {
		s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, false)
		return types.AnalyzeOutput{}, nil, wrapChainError(err)
	}

	if verr := schemas.ValidateAnalysis(result.Parsed); verr != nil && s.logger != nil {
		s.logger.Warn("Model response does not match analysis schema, normalizing anyway",
			"provider", result.Provider, "details", verr.Error())
	}

	result.Parsed["apiSource"] = SourceName(result.Provider)
	record := analysis.Enrich(analysis.Normalize(result.Parsed, input.ResumeText), input.ResumeText)

	out := types.AnalyzeOutput{
		Provider: result.Provider,
		Analysis: record,
	}
	s.store(ctx, key, &out)

	s.metrics.RecordBusinessMetric(ctx, observability.MetricResumeAnalyzed, true,
		attribute.String("provider", result.Provider),
		attribute.String("industry", record.Industry),
		attribute.String("tier", input.Tier))

	if s.logger != nil {
		s.logger.Info("Resume analyzed",
			"provider", result.Provider,
			"score", record.Score,
			"industry", record.Industry,
			"fallbacks", len(result.Attempts))
	}
	return out, result.Usage, nil
}

// Normalize repairs and enriches a raw model response without calling any provider
func (s *Service) Normalize(input types.NormalizeInput) (types.AnalyzeOutput, error) {
	return NormalizeRaw(input)
}

// NormalizeRaw repairs and enriches a raw model response
func NormalizeRaw(input types.NormalizeInput) (types.AnalyzeOutput, error) {
	if err := input.Validate(); err != nil {
		return types.AnalyzeOutput{}, resumescanErrors.NewValidationError(resumescanErrors.ErrCodeInvalidInput,
			"Invalid normalize input", err)
	}

	parsed, err := analysis.Repair(input.RawResponse)
	if err != nil {
		return types.AnalyzeOutput{}, resumescanErrors.NewAIError(resumescanErrors.ErrCodeMalformedResponse,
			"Model response could not be repaired", err)
	}

	record := analysis.Enrich(analysis.Normalize(parsed, input.ResumeText), input.ResumeText)
	return types.AnalyzeOutput{Analysis: record}, nil
}

// CacheKey derives the cache key for a rendered prompt
func CacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "analysis:" + hex.EncodeToString(sum[:])
}

func (s *Service) lookup(ctx context.Context, key string) *types.AnalyzeOutput {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Result cache lookup failed", "error", err.Error())
		}
		return nil
	}
	return cached
}

func (s *Service) store(ctx context.Context, key string, out *types.AnalyzeOutput) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, out); err != nil && s.logger != nil {
		s.logger.Warn("Result cache store failed", "error", err.Error())
	}
}

func wrapChainError(err error) error {
	var aggregate *AggregateError
	switch {
	case errors.Is(err, ErrNoProviders):
		return resumescanErrors.NewConfigError(resumescanErrors.ErrCodeNoProviders, "No AI providers are configured", err)
	case errors.As(err, &aggregate):
		return resumescanErrors.NewAIError(resumescanErrors.ErrCodeAllProvidersFailed, "Resume analysis failed", err).
			WithContext("providers_tried", len(aggregate.Failures))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return resumescanErrors.NewAIError(resumescanErrors.ErrCodeAIServiceFailed, "Resume analysis failed", err)
	}
}

func toObservabilityUsage(usage *TokenUsage) *observability.TokenUsage {
	if usage == nil {
		return nil
	}
	return &observability.TokenUsage{
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalTokens:  usage.TotalTokens,
	}
}
