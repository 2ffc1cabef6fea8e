package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resumescan/internal/analysis"
	resumescanErrors "resumescan/internal/errors"

	"golang.org/x/time/rate"
)

// DefaultRetryDelay is the fixed wait before retrying a rate-limited provider
const DefaultRetryDelay = 10 * time.Second

// ErrNoProviders is returned when the chain has nothing to call
var ErrNoProviders = errors.New("no AI providers configured: set RESUMESCAN_AI_GEMINI_APIKEY or RESUMESCAN_AI_OPENAI_APIKEY (or GEMINI_API_KEY / OPENAI_API_KEY)")

// Limiter paces outbound provider calls
type Limiter interface {
	Wait(ctx context.Context) error
}

type noLimit struct{}

func (noLimit) Wait(context.Context) error { return nil }

// NoLimit is a Limiter that never waits
var NoLimit Limiter = noLimit{}

// NewRateLimiter returns a token bucket allowing requestsPerMinute calls, or NoLimit when it is zero
func NewRateLimiter(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return NoLimit
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), max(burst, 1))
}

// Attempt records one provider's failure within a chain run
type Attempt struct {
	Provider string
	Kind     ErrorKind
	Err      error
	Retried  bool
}

// Reason is the human-readable failure for diagnostics
func (a Attempt) Reason() string {
	if a.Retried {
		return fmt.Sprintf("%v (after one retry)", a.Err)
	}
	return a.Err.Error()
}

// AggregateError lists every provider failure when the whole chain is exhausted
type AggregateError struct {
	Failures []Attempt
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("all providers failed")
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %s", f.Provider, f.Reason())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// ChainResult is the first successfully parsed provider response
type ChainResult struct {
	Parsed   map[string]any
	Provider string
	Usage    *TokenUsage
	Attempts []Attempt // failures before the successful provider
	Retried  []string  // providers that were retried after a rate limit
}

// Chain tries providers strictly in order until one returns a parseable object
type Chain struct {
	providers  []Provider
	limiter    Limiter
	retryDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *resumescanErrors.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

func WithLimiter(l Limiter) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.limiter = l
		}
	}
}

func WithRetryDelay(d time.Duration) ChainOption {
	return func(c *Chain) { c.retryDelay = d }
}

// WithSleep replaces the retry wait, mainly for tests
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ChainOption {
	return func(c *Chain) { c.sleep = sleep }
}

func WithChainLogger(logger *resumescanErrors.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

// NewChain creates a fallback chain over providers in preference order
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers:  providers,
		limiter:    NoLimit,
		retryDelay: DefaultRetryDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the provider names in call order
func (c *Chain) Providers() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Run calls each provider in turn. A rate-limited provider is retried once after
// the fixed retry delay; any other failure, including an unparseable response,
// moves on to the next provider.
func (c *Chain) Run(ctx context.Context, prompt string) (ChainResult, error) {
	if len(c.providers) == 0 {
		return ChainResult{}, ErrNoProviders
	}

	var failures []Attempt
	var retriedNames []string
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return ChainResult{}, err
		}

		text, usage, err := c.call(ctx, p, prompt)
		retried := false
		if err != nil && IsRateLimited(err) && ctx.Err() == nil {
			c.debug("Provider rate limited, retrying once", "provider", p.Name(), "delay", c.retryDelay.String())
			if serr := c.sleep(ctx, c.retryDelay); serr != nil {
				return ChainResult{}, serr
			}
			retried = true
			retriedNames = append(retriedNames, p.Name())
			text, usage, err = c.call(ctx, p, prompt)
		}

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ChainResult{}, ctxErr
			}
			failures = append(failures, Attempt{Provider: p.Name(), Kind: kindOf(err), Err: err, Retried: retried})
			c.warn("Provider failed, falling back", "provider", p.Name(), "kind", kindOf(err).String(), "error", err.Error())
			continue
		}

		parsed, err := analysis.Repair(text)
		if err != nil {
			failures = append(failures, Attempt{Provider: p.Name(), Kind: KindMalformed, Err: err, Retried: retried})
			c.warn("Provider returned malformed response, falling back", "provider", p.Name(), "error", err.Error())
			continue
		}

		return ChainResult{Parsed: parsed, Provider: p.Name(), Usage: usage, Attempts: failures, Retried: retriedNames}, nil
	}

	return ChainResult{Attempts: failures, Retried: retriedNames}, &AggregateError{Failures: failures}
}

func (c *Chain) call(ctx context.Context, p Provider, prompt string) (string, *TokenUsage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", nil, err
	}
	return p.Generate(ctx, prompt)
}

func (c *Chain) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Chain) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func kindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
