package backoff

import (
	"math"
	"time"
)

// Strategy defines the interface for backoff calculation algorithms.
type Strategy interface {
	// Base returns the unjittered delay before the given retry (1-based).
	Base(retry int, minDelay, maxDelay time.Duration) time.Duration
}

// ExponentialStrategy doubles the delay on every retry starting from
// minDelay, capped at maxDelay: min(maxDelay, minDelay * 2^(retry-1)).
type ExponentialStrategy struct{}

// Base implements the Strategy interface.
func (ExponentialStrategy) Base(retry int, minDelay, maxDelay time.Duration) time.Duration {
	if retry < 1 {
		retry = 1
	}
	// Prevent overflow by limiting the exponent
	if retry > 62 {
		retry = 62
	}

	delay := float64(minDelay) * Pow(2, retry-1)
	if delay > float64(maxDelay) || delay > math.MaxInt64 {
		return maxDelay
	}
	return time.Duration(delay)
}

// Pow calculates base^exponent using integer exponentiation.
func Pow(base float64, exponent int) float64 {
	result := 1.0
	for i := 0; i < exponent; i++ {
		result *= base
	}
	return result
}
