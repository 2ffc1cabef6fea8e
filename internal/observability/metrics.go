package observability

import (
	"context"
	"fmt"
	"time"

	"resumescan/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricResumeAnalyzed = "resume_analyzed"
	MetricCacheHit       = "cache_hit"
	MetricAnalysisStored = "analysis_stored"
	MetricQuotaExceeded  = "quota_exceeded"
)

// Metrics holds all custom metrics for resumescan. Every method is safe on a nil receiver.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime  metric.Float64Histogram
	AIRequestCount    metric.Int64Counter
	AIErrorCount      metric.Int64Counter
	AITokenUsage      metric.Int64Histogram
	ProviderFallbacks metric.Int64Counter
	RateLimitRetries  metric.Int64Counter

	// Business metrics
	ResumesAnalyzed metric.Int64Counter
	CacheHits       metric.Int64Counter
	AnalysesStored  metric.Int64Counter
	QuotaExceeded   metric.Int64Counter

	settings config.CustomMetricsConfig
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	Provider   string
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// newMetrics creates every instrument on meter
func newMetrics(meter metric.Meter, settings config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"resumescan_ai_processing_duration_seconds",
		metric.WithDescription("Time spent producing an analysis through the provider chain"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.AIRequestCount, "resumescan_ai_requests_total", "Total number of analysis requests sent to the provider chain"},
		{&m.AIErrorCount, "resumescan_ai_errors_total", "Total number of analysis requests where every provider failed"},
		{&m.ProviderFallbacks, "resumescan_provider_fallbacks_total", "Provider failures that moved the chain to the next provider"},
		{&m.RateLimitRetries, "resumescan_rate_limit_retries_total", "Retries after a provider rate-limit signal"},
		{&m.ResumesAnalyzed, "resumescan_resumes_analyzed_total", "Total number of resumes analyzed"},
		{&m.CacheHits, "resumescan_cache_hits_total", "Analyses served from the result cache"},
		{&m.AnalysesStored, "resumescan_analyses_stored_total", "Analyses persisted to history"},
		{&m.QuotaExceeded, "resumescan_quota_exceeded_total", "Analyses refused because the free quota was used up"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	if m.AITokenUsage, err = meter.Int64Histogram(
		"resumescan_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	return m, nil
}

// TrackAIOperation instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperation(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	if m == nil {
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	tracer := otel.Tracer("resumescan.ai")
	ctx, span := tracer.Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if m.settings.AIOperations.Enabled {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}
		if result != nil && result.Provider != "" {
			attrs = append(attrs, attribute.String("provider", result.Provider))
		}

		if m.settings.AIOperations.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if result != nil && result.TokenUsage != nil && m.settings.AIOperations.TrackTokenUsage {
			m.recordTokenMetrics(ctx, result.TokenUsage, attrs)
		}
		span.SetAttributes(attrs...)
	}

	if result != nil && result.TokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", result.TokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", result.TokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", result.TokenUsage.TotalTokens),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}

	for _, tt := range tokenTypes {
		tokenAttrs := append(append([]attribute.KeyValue{}, attrs...), attribute.String("token_type", tt.tokenType))
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordProviderFallback counts a provider failure that moved the chain on
func (m *Metrics) RecordProviderFallback(ctx context.Context, provider, kind string) {
	if m == nil || !m.settings.AIOperations.Enabled {
		return
	}
	m.ProviderFallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", kind),
	))
}

// RecordRateLimitRetry counts a retry after a rate-limit signal
func (m *Metrics) RecordRateLimitRetry(ctx context.Context, provider string) {
	if m == nil || !m.settings.AIOperations.Enabled {
		return
	}
	m.RateLimitRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	if m == nil || !m.settings.BusinessMetrics.Enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)

	var counter metric.Int64Counter
	switch metricType {
	case MetricResumeAnalyzed:
		counter = m.ResumesAnalyzed
	case MetricCacheHit:
		counter = m.CacheHits
	case MetricAnalysisStored:
		counter = m.AnalysesStored
	case MetricQuotaExceeded:
		counter = m.QuotaExceeded
	default:
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}
