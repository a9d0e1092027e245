package gateway

import (
	"testing"
	"time"

	"rezzy/internal/config"
	"rezzy/internal/errors"
)

func breakerConfig() *config.CircuitBreakerConfig {
	return &config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewAPICircuitBreaker(&config.CircuitBreakerConfig{Enabled: false}, testLogger(t))
	if cb != nil {
		t.Fatal("disabled breaker should be nil")
	}

	// A nil breaker executes calls directly.
	result, err := cb.Execute(func() ([]byte, error) {
		return []byte("ok"), nil
	})
	if err != nil {
		t.Fatalf("Execute() through nil breaker returned error: %v", err)
	}
	if string(result) != "ok" {
		t.Errorf("Execute() = %q, want ok", result)
	}

	if !cb.IsHealthy() {
		t.Error("nil breaker should report healthy")
	}
	if cb.IsOpen() {
		t.Error("nil breaker should never be open")
	}

	stats := cb.GetStats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("nil breaker stats should report enabled=false")
	}
}

func TestCircuitBreakerInitialState(t *testing.T) {
	cb := NewAPICircuitBreaker(breakerConfig(), testLogger(t))
	if cb == nil {
		t.Fatal("enabled breaker should not be nil")
	}

	stats := cb.GetStats()
	name, ok := stats["name"].(string)
	if !ok || name != "rezzy-api" {
		t.Errorf("breaker name = %v, want rezzy-api", stats["name"])
	}
	state, ok := stats["state"].(string)
	if !ok || state != "closed" {
		t.Errorf("initial state = %v, want closed", stats["state"])
	}
	if !cb.IsHealthy() {
		t.Error("breaker should start healthy")
	}
}

func TestCircuitBreakerTripsAfterFailures(t *testing.T) {
	cb := NewAPICircuitBreaker(breakerConfig(), testLogger(t))

	failure := errors.NewBackendUnavailableError(errors.ErrCodeBackendUnreachable, "down", nil)
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() ([]byte, error) {
			return nil, failure
		})
		if err == nil {
			t.Fatal("Execute() should propagate the failure")
		}
	}

	if !cb.IsOpen() {
		t.Error("breaker should open after failures exceed the threshold")
	}

	// Calls are now short-circuited and mapped onto the taxonomy.
	_, err := cb.Execute(func() ([]byte, error) {
		t.Error("fn should not run while the breaker is open")
		return nil, nil
	})
	err = wrapBreakerError(err)
	if errors.KindOf(err) != errors.KindBackendUnavailable {
		t.Errorf("open breaker error kind = %v, want backend unavailable", errors.KindOf(err))
	}
}

func TestCircuitBreakerSuccessesKeepItClosed(t *testing.T) {
	cb := NewAPICircuitBreaker(breakerConfig(), testLogger(t))

	for i := 0; i < 10; i++ {
		if _, err := cb.Execute(func() ([]byte, error) {
			return []byte("ok"), nil
		}); err != nil {
			t.Fatalf("Execute() returned error: %v", err)
		}
	}

	if !cb.IsHealthy() {
		t.Error("breaker should stay closed on a success streak")
	}
}

// The breaker sits inside the gateway; verify the wiring end to end by
// checking client diagnostics after construction.
func TestClientBreakerStats(t *testing.T) {
	cfg := &config.APIConfig{
		BaseURL:        "http://127.0.0.1:9",
		ShortTimeout:   time.Second,
		LongTimeout:    time.Second,
		CircuitBreaker: *breakerConfig(),
	}
	client, err := New(cfg, nil, testLogger(t))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer client.Close()

	stats := client.GetCircuitBreakerStats()
	if enabled, _ := stats["enabled"].(bool); !enabled {
		t.Error("client breaker should be enabled")
	}
}
