package mediawiki

import "time"

// RetryPolicy bounds the backoff applied when the API throttles us.
// MaxAttempts counts the initial request too, so MaxAttempts=1 never retries.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// retryState tracks attempts for a single logical fetch.
type retryState struct {
	policy   RetryPolicy
	failures int
}

func (p RetryPolicy) newState() *retryState {
	return &retryState{policy: p}
}

// Next records a failed attempt and returns the delay to wait before the
// next one. ok is false when the attempt budget is spent. The delay doubles
// with each failure and is capped at MaxDelay.
func (s *retryState) Next() (delay time.Duration, ok bool) {
	s.failures++
	if s.failures >= s.policy.MaxAttempts {
		return 0, false
	}
	delay = s.policy.BaseDelay
	for i := 1; i < s.failures; i++ {
		next := delay << 1
		if next <= delay { // doubling overflowed
			break
		}
		delay = next
		if s.policy.MaxDelay > 0 && delay >= s.policy.MaxDelay {
			break
		}
	}
	if s.policy.MaxDelay > 0 && delay > s.policy.MaxDelay {
		delay = s.policy.MaxDelay
	}
	return delay, true
}

// Attempts returns how many attempts have been made so far.
func (s *retryState) Attempts() int { return s.failures }
