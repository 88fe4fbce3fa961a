package llm

import "time"

// RetryConfig controls how a completion request is retried on transient
// failures before the client falls back to the next endpoint.
type RetryConfig struct {
	// MaxAttempts bounds attempts against a single endpoint.
	MaxAttempts int

	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration

	// BackoffMultiplier grows the delay on each subsequent retry.
	BackoffMultiplier float64

	// MaxBackoff caps the grown delay.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns retry defaults sized for loop-role
// completions, which run on a budget of roughly 10-20 seconds per call.
// Short backoffs (0.5s, 1s) leave most of that budget for the fallback
// chain instead of burning it waiting on a struggling endpoint.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       500 * time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        4 * time.Second,
	}
}
