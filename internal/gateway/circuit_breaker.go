package gateway

import (
	"fmt"

	"rezzy/internal/config"
	"rezzy/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// APICircuitBreaker wraps backend API calls with circuit breaker protection.
// One breaker guards the whole gateway: the backend is a single upstream, so
// a failing endpoint usually means a failing service.
type APICircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[[]byte]
}

// NewAPICircuitBreaker creates a circuit breaker from configuration. Returns
// nil when the breaker is disabled; a nil breaker executes calls directly.
func NewAPICircuitBreaker(cfg *config.CircuitBreakerConfig, logger *errors.Logger) *APICircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "rezzy-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests &&
				failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &APICircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Execute runs fn with circuit breaker protection.
func (cb *APICircuitBreaker) Execute(fn func() ([]byte, error)) ([]byte, error) {
	if cb == nil || cb.cb == nil {
		// If breaker is disabled/nil, just execute the function directly
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics.
func (cb *APICircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	return map[string]any{
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy returns true if the circuit breaker is in closed state.
func (cb *APICircuitBreaker) IsHealthy() bool {
	if cb == nil || cb.cb == nil {
		return true // If no circuit breaker, consider it healthy
	}
	return cb.cb.State() == gobreaker.StateClosed
}

// IsOpen reports whether calls are currently being short-circuited.
func (cb *APICircuitBreaker) IsOpen() bool {
	if cb == nil || cb.cb == nil {
		return false
	}
	return cb.cb.State() == gobreaker.StateOpen
}

// wrapBreakerError maps gobreaker sentinel errors onto the error taxonomy so
// callers see a backend-unavailable condition, not a library internal.
func wrapBreakerError(err error) error {
	switch err {
	case gobreaker.ErrOpenState:
		return errors.NewBackendUnavailableError(errors.ErrCodeBackendUnreachable,
			"Backend calls suspended after repeated failures", err)
	case gobreaker.ErrTooManyRequests:
		return errors.NewBackendUnavailableError(errors.ErrCodeBackendUnreachable,
			fmt.Sprintf("Backend probe limit reached: %v", err), err)
	}
	return err
}
