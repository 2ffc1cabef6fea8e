package cli

import (
	"context"
	"strings"
	"sync"
	"time"

	"resumescan/internal/ai"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/observability"
	"resumescan/internal/store"
	"resumescan/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type analyzer interface {
	Analyze(ctx context.Context, input types.AnalyzeInput) (types.AnalyzeOutput, *ai.TokenUsage, error)
}

type quotaStore interface {
	CheckQuota(ctx context.Context, email string) (*store.User, error)
	SaveAnalysis(ctx context.Context, doc *store.AnalysisDocument) error
	FreeLimit() int
}

// analysisRequest is one resume to analyze. Save records it in the store, when there is one.
type analysisRequest struct {
	Input    types.AnalyzeInput
	FileSize int64
	Save     bool
}

// pipeline wraps the analysis service with quota checks and history persistence
type pipeline struct {
	service analyzer
	store   quotaStore
	metrics *observability.Metrics
	tracer  oteltrace.Tracer
	logger  *resumescanErrors.Logger
	now     func() time.Time

	// quota check and save run under one lock per account
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func newPipeline(service analyzer, logger *resumescanErrors.Logger) *pipeline {
	return &pipeline{
		service:   service,
		tracer:    noop.NewTracerProvider().Tracer("resumescan/cli"),
		logger:    logger,
		now:       time.Now,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// lockUser serializes quota-consuming runs for one account and returns the unlock func
func (p *pipeline) lockUser(email string) func() {
	key := strings.ToLower(strings.TrimSpace(email))
	p.mu.Lock()
	l, ok := p.userLocks[key]
	if !ok {
		l = &sync.Mutex{}
		p.userLocks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	var once sync.Once
	return func() { once.Do(l.Unlock) }
}

// Run checks the owner's quota, analyzes the resume and records the result.
// A known user's stored tier replaces the requested one. Saved runs for a free
// account hold that account's lock from the quota check until the save, so
// concurrent runs cannot overshoot the free limit.
func (p *pipeline) Run(ctx context.Context, req analysisRequest) (types.AnalyzeOutput, *ai.TokenUsage, error) {
	ctx, span := p.tracer.Start(ctx, "resumescan.analyze",
		oteltrace.WithAttributes(attribute.String("file", req.Input.FileName)))
	defer span.End()

	input := req.Input
	var user *store.User
	if p.store != nil && input.UserEmail != "" {
		unlock := func() {}
		if req.Save {
			unlock = p.lockUser(input.UserEmail)
		}
		defer unlock()

		u, err := p.store.CheckQuota(ctx, input.UserEmail)
		if err != nil {
			if resumescanErrors.HasCode(err, resumescanErrors.ErrCodeQuotaExceeded) {
				p.metrics.RecordBusinessMetric(ctx, observability.MetricQuotaExceeded, false)
			}
			return types.AnalyzeOutput{}, nil, failSpan(span, err)
		}
		user = u
		input.Tier = user.Tier()
		if types.IsPaidTier(input.Tier) {
			unlock()
		}
	}
	span.SetAttributes(attribute.String("tier", input.Tier))

	out, usage, err := p.service.Analyze(ctx, input)
	if err != nil {
		return types.AnalyzeOutput{}, nil, failSpan(span, err)
	}
	span.SetAttributes(
		attribute.String("provider", out.Provider),
		attribute.Bool("cached", out.Cached),
		attribute.Int("score", out.Analysis.Score))

	if p.store == nil || !req.Save {
		return out, usage, nil
	}

	doc := store.NewAnalysisDocument(input.FileName, req.FileSize, input.UserEmail, out.Analysis, p.now())
	if err := p.store.SaveAnalysis(ctx, doc); err != nil {
		p.metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisStored, false)
		if p.logger != nil {
			p.logger.LogError(err, "Failed to save analysis", "file", input.FileName)
		}
		return out, usage, nil
	}
	p.metrics.RecordBusinessMetric(ctx, observability.MetricAnalysisStored, true)
	out.ID = doc.ID
	out.Usage = store.UsageAfterAnalysis(user, p.store.FreeLimit())
	return out, usage, nil
}

func failSpan(span oteltrace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
