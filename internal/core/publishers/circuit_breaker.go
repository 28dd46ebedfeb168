package publishers

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned while a platform's circuit is open
var ErrCircuitOpen = errors.New("circuit breaker open")

// circuitState represents the state of a circuit breaker
type circuitState int

const (
	stateClosed   circuitState = iota // Normal operation
	stateOpen                         // Platform failing, calls rejected
	stateHalfOpen                     // Testing if platform recovered
)

func (s circuitState) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// CircuitBreaker tracks consecutive transient failures per platform and
// stops calling a platform that keeps failing. Rejected calls surface as
// TransientError so the poller's retry policy still applies.
type CircuitBreaker struct {
	failures         map[Platform]int
	lastFailure      map[Platform]time.Time
	state            map[Platform]circuitState
	log              *zap.SugaredLogger
	clock            func() time.Time
	failureThreshold int
	openDuration     time.Duration
	mu               sync.RWMutex
}

// NewCircuitBreaker creates a breaker that opens after failureThreshold
// consecutive transient failures and stays open for openDuration
func NewCircuitBreaker(failureThreshold int, openDuration time.Duration, log *zap.SugaredLogger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	if openDuration <= 0 {
		openDuration = 5 * time.Minute
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openDuration:     openDuration,
		failures:         make(map[Platform]int),
		lastFailure:      make(map[Platform]time.Time),
		state:            make(map[Platform]circuitState),
		log:              log,
		clock:            time.Now,
	}
}

// Guard wraps a publisher so every call goes through the breaker
func (cb *CircuitBreaker) Guard(platform Platform, next Publisher) Publisher {
	return &guardedPublisher{platform: platform, next: next, cb: cb}
}

// canAttempt checks whether a call to the platform should be made
func (cb *CircuitBreaker) canAttempt(platform Platform) error {
	now := cb.clock()

	// First check under read lock if we need to transition
	cb.mu.RLock()
	state := cb.getState(platform)
	lastFail := cb.lastFailure[platform]
	cb.mu.RUnlock()

	if state != stateOpen {
		return nil
	}

	if now.Sub(lastFail) > cb.openDuration {
		cb.mu.Lock()
		// Re-check in case another goroutine already transitioned
		if cb.getState(platform) == stateOpen {
			cb.state[platform] = stateHalfOpen
			cb.log.Infow("circuit half-open", "platform", platform)
		}
		cb.mu.Unlock()
		return nil
	}

	cb.mu.RLock()
	failCount := cb.failures[platform]
	cb.mu.RUnlock()

	return errors.Wrapf(ErrCircuitOpen, "%s (failures: %d, next retry: %s)",
		platform, failCount, lastFail.Add(cb.openDuration).Format(time.RFC3339))
}

// recordSuccess resets failure tracking for the platform
func (cb *CircuitBreaker) recordSuccess(platform Platform) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	oldState := cb.getState(platform)

	delete(cb.failures, platform)
	delete(cb.lastFailure, platform)
	cb.state[platform] = stateClosed

	if oldState != stateClosed {
		cb.log.Infow("circuit closed, platform recovered", "platform", platform)
	}
}

// recordFailure counts a transient failure and opens the circuit at the threshold
func (cb *CircuitBreaker) recordFailure(platform Platform, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures[platform]++
	cb.lastFailure[platform] = cb.clock()
	failCount := cb.failures[platform]

	// A failed probe in half-open goes straight back to open
	if failCount >= cb.failureThreshold || cb.getState(platform) == stateHalfOpen {
		if cb.getState(platform) != stateOpen {
			cb.log.Warnw("opening circuit",
				"platform", platform, "failures", failCount, "error", err)
		}
		cb.state[platform] = stateOpen
		return
	}

	cb.log.Debugw("platform failure",
		"platform", platform, "failures", failCount, "threshold", cb.failureThreshold, "error", err)
}

// getState returns the current state (must be called with lock held)
func (cb *CircuitBreaker) getState(platform Platform) circuitState {
	if state, exists := cb.state[platform]; exists {
		return state
	}
	return stateClosed
}

// Stats returns the breaker state per platform with recorded activity
func (cb *CircuitBreaker) Stats() map[Platform]map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	stats := make(map[Platform]map[string]interface{})
	for platform := range cb.state {
		stats[platform] = map[string]interface{}{
			"state":        cb.getState(platform).String(),
			"failures":     cb.failures[platform],
			"last_failure": cb.lastFailure[platform],
		}
	}
	return stats
}

// observe feeds a call result into the breaker. Only transient errors mean
// the platform is unhealthy; a duplicate rejection proves it is reachable.
func (cb *CircuitBreaker) observe(platform Platform, err error) {
	if err == nil || !IsTransient(err) {
		cb.recordSuccess(platform)
		return
	}
	cb.recordFailure(platform, err)
}

type guardedPublisher struct {
	next     Publisher
	cb       *CircuitBreaker
	platform Platform
}

func (g *guardedPublisher) Publish(ctx context.Context, content string, media *Media) (string, error) {
	if err := g.cb.canAttempt(g.platform); err != nil {
		return "", NewTransientError(g.platform, 0, err)
	}
	id, err := g.next.Publish(ctx, content, media)
	g.cb.observe(g.platform, err)
	return id, err
}

func (g *guardedPublisher) DeleteByPlatformID(ctx context.Context, platformPostID string) error {
	if err := g.cb.canAttempt(g.platform); err != nil {
		return NewTransientError(g.platform, 0, err)
	}
	err := g.next.DeleteByPlatformID(ctx, platformPostID)
	g.cb.observe(g.platform, err)
	return err
}
