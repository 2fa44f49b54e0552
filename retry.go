package ecs

import "time"

// BackoffKind selects how RetryPolicy spaces out retry attempts.
type BackoffKind uint8

const (
	BackoffNone BackoffKind = iota
	BackoffLinear
	BackoffExponential
)

// ExhaustedAction selects what happens once a system's attempts are exhausted.
type ExhaustedAction uint8

const (
	// OnExhaustedFail surfaces the last error as a tick failure.
	OnExhaustedFail ExhaustedAction = iota
	// OnExhaustedSkip treats the system as having produced an empty result
	// for this tick, without failing the tick.
	OnExhaustedSkip
)

// RetryPolicy controls how a scheduler re-runs a system whose Run call
// returned an error. The zero value is exactly one attempt, no backoff,
// failing the tick on error.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffKind
	Base        time.Duration
	OnExhausted ExhaustedAction
}

// DefaultRetryPolicy never retries: one attempt, fail the tick on error.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 1}
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// delay returns how long to wait before the given 1-based attempt number
// (attempt 2 is the first retry).
func (p RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	switch p.Backoff {
	case BackoffLinear:
		return p.Base * time.Duration(attempt-1)
	case BackoffExponential:
		return p.Base * time.Duration(uint64(1)<<uint(attempt-2))
	default:
		return 0
	}
}
