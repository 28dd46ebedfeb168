package poller

import "time"

// RetryPolicy decides what happens after a retryable publish failure
type RetryPolicy struct {
	// MaxAttempts is the total number of publish attempts before a job fails permanently
	MaxAttempts int
	// BaseBackoff is the wait after the first failed attempt
	BaseBackoff time.Duration
	// Multiplier grows the wait for each further attempt
	Multiplier float64
}

// DefaultRetryPolicy makes 3 attempts spaced 5 and 10 minutes apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 5 * time.Minute,
		Multiplier:  2,
	}
}

// Exhausted reports whether a job that has made attempts tries may not be retried
func (p RetryPolicy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// Backoff returns how long to wait after the given (1-based) failed attempt.
// It never returns less than BaseBackoff.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(p.BaseBackoff)
	for i := 1; i < attempts; i++ {
		wait *= mult
	}
	return time.Duration(wait)
}
