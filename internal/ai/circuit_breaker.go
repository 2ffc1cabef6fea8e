package ai

import (
	"resumescan/internal/config"
	"resumescan/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// generation is the value carried through the breaker for one provider call
type generation struct {
	text  string
	usage *TokenUsage
}

// Breaker wraps provider calls with the circuit breaker pattern.
// A nil *Breaker passes calls straight through.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[generation]
}

// NewBreaker creates a circuit breaker for one provider, or nil when disabled
func NewBreaker(name string, cfg *config.CircuitBreakerConfig, logger *errors.Logger) *Breaker {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[generation](settings)}
}

// Execute executes fn with circuit breaker protection
func (b *Breaker) Execute(fn func() (generation, error)) (generation, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *Breaker) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state
func (b *Breaker) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
