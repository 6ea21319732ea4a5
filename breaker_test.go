package stratacache

import (
	"context"
	goerrors "errors"
	"testing"
	"time"
)

func testBreakerConfig() Config {
	return Config{
		RetryAttempts:           3,
		RetryDelay:              time.Millisecond,
		BreakerFailureThreshold: 2,
		BreakerCooldown:         10 * time.Millisecond,
		TimeProvider:            &fakeTimeProvider{},
		Logger:                  NoOpLogger{},
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := testBreakerConfig()
	b := newCircuitBreaker("disk", cfg)

	b.onFailure()
	if b.currentState() != breakerClosed {
		t.Fatalf("state after 1 failure = %v, want closed", b.currentState())
	}
	b.onFailure()
	if b.currentState() != breakerOpen {
		t.Fatalf("state after 2 failures = %v, want open", b.currentState())
	}
	if b.allow() {
		t.Error("allow() should be false while open and before cooldown elapses")
	}
}

func TestCircuitBreakerHalfOpenAfterCooldown(t *testing.T) {
	cfg := testBreakerConfig()
	clock := cfg.TimeProvider.(*fakeTimeProvider)
	b := newCircuitBreaker("disk", cfg)

	b.onFailure()
	b.onFailure()
	if b.currentState() != breakerOpen {
		t.Fatalf("expected open state")
	}

	clock.now += int64(cfg.BreakerCooldown)
	if !b.allow() {
		t.Fatal("expected a single probe to be allowed once cooldown elapses")
	}
	if b.currentState() != breakerHalfOpen {
		t.Fatalf("state = %v, want half-open", b.currentState())
	}
	if b.allow() {
		t.Error("a second concurrent probe should not be allowed while one is in flight")
	}
}

func TestCircuitBreakerClosesOnSuccessfulProbe(t *testing.T) {
	cfg := testBreakerConfig()
	clock := cfg.TimeProvider.(*fakeTimeProvider)
	b := newCircuitBreaker("disk", cfg)

	b.onFailure()
	b.onFailure()
	clock.now += int64(cfg.BreakerCooldown)
	b.allow()
	b.onSuccess()

	if b.currentState() != breakerClosed {
		t.Fatalf("state after successful probe = %v, want closed", b.currentState())
	}
	if !b.allow() {
		t.Error("expected calls to be allowed again once closed")
	}
}

func TestCircuitBreakerReopensOnFailedProbe(t *testing.T) {
	cfg := testBreakerConfig()
	clock := cfg.TimeProvider.(*fakeTimeProvider)
	b := newCircuitBreaker("disk", cfg)

	b.onFailure()
	b.onFailure()
	clock.now += int64(cfg.BreakerCooldown)
	b.allow()
	b.onFailure()

	if b.currentState() != breakerOpen {
		t.Fatalf("state after failed probe = %v, want open", b.currentState())
	}
}

func TestGuardedCallRetriesRetryableErrors(t *testing.T) {
	cfg := testBreakerConfig()
	b := newCircuitBreaker("memory", cfg)

	attempts := 0
	err := guardedCall(context.Background(), b, cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return NewErrCircuitOpen("memory") // retryable
		}
		return nil
	})
	if err != nil {
		t.Fatalf("guardedCall() error = %v, want nil after retry succeeds", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if b.currentState() != breakerClosed {
		t.Errorf("breaker state = %v, want closed after eventual success", b.currentState())
	}
}

func TestGuardedCallStopsOnNonRetryableError(t *testing.T) {
	cfg := testBreakerConfig()
	b := newCircuitBreaker("memory", cfg)

	attempts := 0
	wantErr := goerrors.New("fatal")
	err := guardedCall(context.Background(), b, cfg, func(ctx context.Context) error {
		attempts++
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("guardedCall() error = %v, want %v", err, wantErr)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (non-retryable error must not retry)", attempts)
	}
}

func TestGuardedCallShortCircuitsWhenOpen(t *testing.T) {
	cfg := testBreakerConfig()
	b := newCircuitBreaker("memory", cfg)
	b.onFailure()
	b.onFailure() // now open

	called := false
	err := guardedCall(context.Background(), b, cfg, func(ctx context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Error("guardedCall should not invoke the call while the breaker is open")
	}
	if !IsTierUnavailable(err) {
		t.Errorf("expected a tier-unavailable error, got %v", err)
	}
}
