package ai

import (
	"hrassist/internal/config"
	"hrassist/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// Model lookups trip on their own fixed ratio; they only back health checks.
const (
	modelTripRequests = 5
	modelTripRatio    = 0.8
)

// Breaker wraps a gobreaker circuit for calls returning T. A nil Breaker
// runs every call directly and always reports healthy.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

type (
	generateBreaker = Breaker[*genai.GenerateContentResponse]
	modelBreaker    = Breaker[*genai.Model]
)

// newBreaker returns nil when the operation has its breaker disabled.
func newBreaker[T any](name, operation string, cfg *config.OperationAIConfig, minRequests uint32, ratio float64, logger *errors.Logger) *Breaker[T] {
	settings := cfg.CircuitBreaker
	if !settings.Enabled {
		return nil
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("AI circuit breaker changed state",
				"breaker", name,
				"operation", operation,
				"from", from.String(),
				"to", to.String())
		},
	})}
}

func newGenerateBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *generateBreaker {
	return newBreaker[*genai.GenerateContentResponse]("ai-"+operation, operation, cfg,
		cfg.CircuitBreaker.MinRequests, cfg.CircuitBreaker.FailureThreshold, logger)
}

func newModelBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *modelBreaker {
	return newBreaker[*genai.Model]("ai-model-"+operation, operation, cfg,
		modelTripRequests, modelTripRatio, logger)
}

func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Healthy reports whether the circuit is closed.
func (b *Breaker[T]) Healthy() bool {
	return b == nil || b.cb.State() == gobreaker.StateClosed
}

func (b *Breaker[T]) Stats() map[string]any {
	if b == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
	}
}
