// Package circuitbreaker guards the aggregator: after enough failures in a
// window, swap attempts are refused outright until the reset timeout passes.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/warehouse13/agi-solver/pkg/logger"
)

// CircuitBreaker trips open after failThreshold failures, each within
// failureWindow of the one before, and closes again once resetTimeout has
// elapsed.
type CircuitBreaker struct {
	enabled       bool
	failureCount  int
	failureWindow time.Duration
	failThreshold int
	resetTimeout  time.Duration
	lastFailure   time.Time
	tripped       bool
	tripTime      time.Time
	logger        logger.Logger
	mu            sync.Mutex
}

// NewCircuitBreaker creates a circuit breaker. A disabled breaker never
// trips and never refuses.
func NewCircuitBreaker(enabled bool, threshold int, window time.Duration, resetTimeout time.Duration, lg logger.Logger) *CircuitBreaker {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}
	return &CircuitBreaker{
		enabled:       enabled,
		failThreshold: threshold,
		failureWindow: window,
		resetTimeout:  resetTimeout,
		logger:        lg,
	}
}

// RecordFailure counts an aggregator failure and reports whether the circuit
// is open afterwards. The count restarts when more than the window has passed
// since the previous failure.
func (cb *CircuitBreaker) RecordFailure() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := time.Now()

	if cb.tripped {
		if time.Since(cb.tripTime) > cb.resetTimeout {
			cb.logger.NoticeWith(logger.Swap, "circuit breaker reset after timeout")
			cb.tripped = false
			cb.failureCount = 0
		} else {
			return true
		}
	}

	if time.Since(cb.lastFailure) > cb.failureWindow {
		cb.failureCount = 0
	}

	cb.failureCount++
	cb.lastFailure = now

	if cb.failureCount >= cb.failThreshold {
		cb.tripped = true
		cb.tripTime = now
		cb.logger.ErrorWith(logger.Swap, "circuit breaker tripped: %d aggregator failures in window", cb.failureCount)
		return true
	}

	return false
}

// IsOpen reports whether the circuit is currently refusing swap attempts.
func (cb *CircuitBreaker) IsOpen() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.tripped && time.Since(cb.tripTime) > cb.resetTimeout {
		cb.tripped = false
		cb.failureCount = 0
		return false
	}

	return cb.tripped
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.tripped = false
	cb.failureCount = 0
}

// GetState returns the failure count, last failure time, window and threshold.
func (cb *CircuitBreaker) GetState() (failureCount int, lastFailure time.Time, failureWindow time.Duration, failThreshold int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount, cb.lastFailure, cb.failureWindow, cb.failThreshold
}

// GetTripTime returns when the circuit last tripped.
func (cb *CircuitBreaker) GetTripTime() time.Time {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.tripTime
}

// IsEnabled reports whether the breaker is enabled.
func (cb *CircuitBreaker) IsEnabled() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.enabled
}
