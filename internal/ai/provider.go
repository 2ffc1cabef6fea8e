package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// Provider is a single text-generation backend in the fallback chain
type Provider interface {
	// Name identifies the provider in logs and aggregate errors, e.g. "gemini/gemini-2.5-flash".
	Name() string
	Generate(ctx context.Context, prompt string) (string, *TokenUsage, error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ErrorKind classifies provider failures for the chain's retry policy
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRateLimited
	KindUnavailable
	KindEmptyResponse
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformed:
		return "malformed"
	default:
		return "other"
	}
}

// ProviderError is returned by every Provider implementation on failure
type ProviderError struct {
	Provider string
	Model    string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// newProviderError wraps err, classifying it unless it is already a ProviderError
func newProviderError(provider, model string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return &ProviderError{Provider: provider, Model: model, Kind: classify(err), Err: err}
}

// IsRateLimited reports whether err is a provider rate-limit signal
func IsRateLimited(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == KindRateLimited
	}
	return classify(err) == KindRateLimited
}

// classify maps SDK and transport errors onto an ErrorKind
func classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return KindUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}

	var googleErr *googleapi.Error
	if errors.As(err, &googleErr) {
		return statusKind(googleErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		if kind := statusKind(genaiErr.Code); kind != KindOther {
			return kind
		}
		if strings.EqualFold(genaiErr.Status, "RESOURCE_EXHAUSTED") {
			return KindRateLimited
		}
		return KindOther
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return statusKind(openaiErr.HTTPStatusCode)
	}

	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return statusKind(requestErr.HTTPStatusCode)
	}

	// Network errors (timeouts, connection refused) mean the backend is unreachable.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}

	return KindOther
}

func statusKind(code int) ErrorKind {
	switch code {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return KindUnavailable
	default:
		return KindOther
	}
}

// SourceName returns the display name of the backend behind a provider name
func SourceName(providerName string) string {
	backend, _, _ := strings.Cut(providerName, "/")
	switch backend {
	case "gemini":
		return "Gemini"
	case "openai":
		return "OpenAI"
	default:
		return providerName
	}
}
