// breaker.go: the failure guard (§4.8) — a per-tier circuit breaker
// wrapping retry-with-backoff, grounded on the three-state design
// (EnterpriseCache's CacheCircuitBreaker in the retrieval pack) but
// adapted to this engine's Tier contract and go-errors taxonomy.
package stratacache

import (
	"context"
	"sync"
	"time"
)

// breakerState is one of closed, open, half-open.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// circuitBreaker protects a single tier from repeated calls once it
// starts failing consistently.
type circuitBreaker struct {
	tierName string
	cfg      Config
	clock    TimeProvider
	log      Logger

	mu              sync.Mutex
	state           breakerState
	consecutiveFail int
	openedAt        int64
	probeInFlight   bool
}

func newCircuitBreaker(tierName string, cfg Config) *circuitBreaker {
	return &circuitBreaker{
		tierName: tierName,
		cfg:      cfg,
		clock:    cfg.TimeProvider,
		log:      cfg.Logger,
		state:    breakerClosed,
	}
}

// allow reports whether a call may proceed, transitioning open->half-open
// after the cooldown elapses. At most one probe is allowed in flight
// while half-open.
func (b *circuitBreaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerOpen:
		if b.clock.Now()-b.openedAt >= int64(b.cfg.BreakerCooldown) {
			b.state = breakerHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case breakerHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return true
	}
}

// onSuccess closes the breaker and resets the failure count.
func (b *circuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != breakerClosed {
		b.log.Info("circuit breaker closed", "tier", b.tierName)
	}
	b.state = breakerClosed
	b.consecutiveFail = 0
	b.probeInFlight = false
}

// onFailure counts a failure, opening the breaker once the threshold is
// reached, and re-opening immediately on a failed half-open probe.
func (b *circuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false

	if b.state == breakerHalfOpen {
		b.trip()
		return
	}

	b.consecutiveFail++
	if b.consecutiveFail >= b.cfg.BreakerFailureThreshold {
		b.trip()
	}
}

// trip opens the breaker. Caller must hold b.mu.
func (b *circuitBreaker) trip() {
	b.state = breakerOpen
	b.openedAt = b.clock.Now()
	b.consecutiveFail = 0
	b.log.Warn("circuit breaker opened", "tier", b.tierName)
}

func (b *circuitBreaker) currentState() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// guardedCall wraps a single tier call with the circuit breaker and
// retry-with-backoff described in §4.8: up to RetryAttempts, base
// RetryDelay, exponential growth.
func guardedCall(ctx context.Context, breaker *circuitBreaker, cfg Config, call func(context.Context) error) error {
	if !breaker.allow() {
		return NewErrCircuitOpen(breaker.tierName)
	}

	var lastErr error
	delay := cfg.RetryDelay
	for attempt := 0; attempt < cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		err := call(ctx)
		if err == nil {
			breaker.onSuccess()
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			breaker.onFailure()
			return err
		}
	}

	breaker.onFailure()
	return NewErrTierRejected(breaker.tierName, lastErr)
}
