package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReply struct {
	text string
	err  error
}

// fakeProvider replays scripted replies; the last reply repeats once the script runs out.
type fakeProvider struct {
	name    string
	replies []fakeReply

	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, *TokenUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := f.replies[min(f.calls, len(f.replies)-1)]
	f.calls++
	if reply.err != nil {
		return "", nil, reply.err
	}
	return reply.text, &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func rateLimited(provider string) error {
	return &ProviderError{Provider: provider, Kind: KindRateLimited, Err: errors.New("429 Too Many Requests")}
}

func unavailable(provider string) error {
	return &ProviderError{Provider: provider, Kind: KindUnavailable, Err: errors.New("503 Service Unavailable")}
}

// recordingSleep captures retry waits without sleeping
type recordingSleep struct {
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func TestChainFirstProviderSucceeds(t *testing.T) {
	first := &fakeProvider{name: "gemini/a", replies: []fakeReply{{text: `{"score": 80}`}}}
	second := &fakeProvider{name: "openai/b", replies: []fakeReply{{text: `{"score": 10}`}}}

	result, err := NewChain([]Provider{first, second}).Run(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "gemini/a", result.Provider)
	assert.Equal(t, float64(80), result.Parsed["score"])
	assert.Empty(t, result.Attempts)
	assert.Equal(t, int64(15), result.Usage.TotalTokens)
	assert.Equal(t, 0, second.Calls())
}

func TestChainRetriesRateLimitOnce(t *testing.T) {
	sleeper := &recordingSleep{}
	p := &fakeProvider{name: "gemini/a", replies: []fakeReply{
		{err: rateLimited("gemini/a")},
		{text: "```json\n{\"score\": 70}\n```"},
	}}

	result, err := NewChain([]Provider{p},
		WithRetryDelay(10*time.Second),
		WithSleep(sleeper.sleep),
	).Run(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, 2, p.Calls())
	assert.Equal(t, []time.Duration{10 * time.Second}, sleeper.waits)
	assert.Equal(t, []string{"gemini/a"}, result.Retried)
	assert.Empty(t, result.Attempts)
}

func TestChainFallsBackAfterSecondRateLimit(t *testing.T) {
	sleeper := &recordingSleep{}
	limited := &fakeProvider{name: "gemini/a", replies: []fakeReply{{err: rateLimited("gemini/a")}}}
	next := &fakeProvider{name: "openai/b", replies: []fakeReply{{text: `{"score": 55}`}}}

	result, err := NewChain([]Provider{limited, next}, WithSleep(sleeper.sleep)).Run(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, 2, limited.Calls(), "exactly one retry")
	assert.Len(t, sleeper.waits, 1)
	assert.Equal(t, DefaultRetryDelay, sleeper.waits[0])

	assert.Equal(t, "openai/b", result.Provider)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "gemini/a", result.Attempts[0].Provider)
	assert.Equal(t, KindRateLimited, result.Attempts[0].Kind)
	assert.True(t, result.Attempts[0].Retried)
	assert.Contains(t, result.Attempts[0].Reason(), "after one retry")
}

func TestChainDoesNotRetryOtherFailures(t *testing.T) {
	sleeper := &recordingSleep{}
	down := &fakeProvider{name: "gemini/a", replies: []fakeReply{{err: unavailable("gemini/a")}}}
	next := &fakeProvider{name: "openai/b", replies: []fakeReply{{text: `{"score": 55}`}}}

	result, err := NewChain([]Provider{down, next}, WithSleep(sleeper.sleep)).Run(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, 1, down.Calls())
	assert.Empty(t, sleeper.waits)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, KindUnavailable, result.Attempts[0].Kind)
	assert.False(t, result.Attempts[0].Retried)
}

func TestChainTreatsMalformedResponseAsFailure(t *testing.T) {
	prose := &fakeProvider{name: "gemini/a", replies: []fakeReply{{text: "I'm sorry, I cannot analyze this resume."}}}
	broken := &fakeProvider{name: "gemini/b", replies: []fakeReply{{text: `{"score": 80,,}`}}}
	good := &fakeProvider{name: "openai/c", replies: []fakeReply{{text: `Here you go: {"score": 61}`}}}

	result, err := NewChain([]Provider{prose, broken, good}).Run(context.Background(), "prompt")
	require.NoError(t, err)

	assert.Equal(t, "openai/c", result.Provider)
	assert.Equal(t, float64(61), result.Parsed["score"])
	require.Len(t, result.Attempts, 2)
	for _, a := range result.Attempts {
		assert.Equal(t, KindMalformed, a.Kind)
	}
}

func TestChainAggregateError(t *testing.T) {
	a := &fakeProvider{name: "gemini/a", replies: []fakeReply{{err: unavailable("gemini/a")}}}
	b := &fakeProvider{name: "openai/b", replies: []fakeReply{{text: "no json here"}}}

	_, err := NewChain([]Provider{a, b}).Run(context.Background(), "prompt")
	require.Error(t, err)

	var aggregate *AggregateError
	require.ErrorAs(t, err, &aggregate)
	require.Len(t, aggregate.Failures, 2)

	lines := strings.Split(err.Error(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "all providers failed", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  gemini/a: "))
	assert.True(t, strings.HasPrefix(lines[2], "  openai/b: "))
	assert.Contains(t, lines[2], "no JSON object found")

	assert.Len(t, aggregate.Unwrap(), 2)
}

func TestChainWithoutProviders(t *testing.T) {
	_, err := NewChain(nil).Run(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoProviders)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestChainStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{name: "gemini/a", replies: []fakeReply{{text: `{"score": 1}`}}}
	_, err := NewChain([]Provider{p}).Run(ctx, "prompt")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Calls())
}

func TestChainCancelledDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	limited := &fakeProvider{name: "gemini/a", replies: []fakeReply{{err: rateLimited("gemini/a")}}}
	next := &fakeProvider{name: "openai/b", replies: []fakeReply{{text: `{"score": 1}`}}}

	cancelling := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := NewChain([]Provider{limited, next}, WithSleep(cancelling)).Run(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, limited.Calls())
	assert.Equal(t, 0, next.Calls())
}

type countingLimiter struct {
	waits int
	err   error
}

func (l *countingLimiter) Wait(context.Context) error {
	l.waits++
	return l.err
}

func TestChainWaitsOnLimiter(t *testing.T) {
	limiter := &countingLimiter{}
	limited := &fakeProvider{name: "gemini/a", replies: []fakeReply{{err: rateLimited("gemini/a")}, {text: `{"score": 1}`}}}

	_, err := NewChain([]Provider{limited},
		WithLimiter(limiter),
		WithSleep((&recordingSleep{}).sleep),
	).Run(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, 2, limiter.waits, "the retry is paced too")
}

func TestChainLimiterFailureFallsBack(t *testing.T) {
	limiter := &countingLimiter{err: errors.New("rate: Wait(n=1) exceeds limiter's burst 0")}
	p := &fakeProvider{name: "gemini/a", replies: []fakeReply{{text: `{"score": 1}`}}}

	_, err := NewChain([]Provider{p}, WithLimiter(limiter)).Run(context.Background(), "prompt")

	var aggregate *AggregateError
	require.ErrorAs(t, err, &aggregate)
	assert.Equal(t, 0, p.Calls())
}

func TestNewRateLimiter(t *testing.T) {
	assert.Equal(t, NoLimit, NewRateLimiter(0, 5))

	limiter := NewRateLimiter(600, 1)
	require.NotEqual(t, NoLimit, limiter)
	assert.NoError(t, limiter.Wait(context.Background()))
}
