package core

import (
	"fmt"
	"slices"
	"time"
)

// Default retry settings.
const (
	DefaultMaxRetries = 3
	DefaultMinDelay   = time.Second
	DefaultMaxDelay   = 30 * time.Second
)

// CallPolicy controls how a single call is retried. A CallPolicy is a plain
// value; it is never mutated during a send and may be shared between
// concurrent calls.
type CallPolicy struct {
	// RetryOnStatusCodes enables retries on the codes in RetryableStatusCodes.
	// Transport failures are retried regardless.
	RetryOnStatusCodes bool

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// MinDelay is the first retry delay and the floor of every delay.
	MinDelay time.Duration

	// MaxDelay caps the unjittered delay.
	MaxDelay time.Duration

	// RetryableStatusCodes lists the status codes retried when RetryOnStatusCodes is set.
	RetryableStatusCodes []int
}

// DefaultCallPolicy returns the policy used when a call supplies none: three
// retries on transport failures, one to thirty seconds apart, and no status
// code retries.
func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		RetryOnStatusCodes: false,
		MaxRetries:         DefaultMaxRetries,
		MinDelay:           DefaultMinDelay,
		MaxDelay:           DefaultMaxDelay,
	}
}

// Validate reports every out-of-range value in a single *ClientError.
func (p CallPolicy) Validate() error {
	var problems []string

	if p.MaxRetries < 0 {
		problems = append(problems, "maxRetries must be non-negative")
	}
	if p.MinDelay < 0 {
		problems = append(problems, "minDelay must be non-negative")
	}
	if p.MaxDelay < p.MinDelay {
		problems = append(problems, "maxDelay must be greater than or equal to minDelay")
	}
	for _, code := range p.RetryableStatusCodes {
		if code < 100 || code > 599 {
			problems = append(problems, fmt.Sprintf("retryable status code %d is not a valid HTTP status", code))
		}
	}

	if len(problems) > 0 {
		return newClientError("call policy validation failed", fmt.Errorf("%w: %v", ErrInvalidPolicy, problems))
	}
	return nil
}

// retryableStatus reports whether code is nominated for retry by the policy.
func (p CallPolicy) retryableStatus(code int) bool {
	return p.RetryOnStatusCodes && slices.Contains(p.RetryableStatusCodes, code)
}

// clone returns a copy that does not share the status code slice.
func (p CallPolicy) clone() CallPolicy {
	p.RetryableStatusCodes = slices.Clone(p.RetryableStatusCodes)
	return p
}

// outcome classifies one attempt for the retry state machine.
type outcome int

const (
	outcomeResponse outcome = iota
	outcomeTransportFailure
	outcomeCanceled
)

func (o outcome) String() string {
	switch o {
	case outcomeTransportFailure:
		return "transport"
	case outcomeCanceled:
		return "canceled"
	default:
		return "response"
	}
}

// shouldRetry decides whether another attempt follows. retriesMade counts
// the retries already performed.
func (p CallPolicy) shouldRetry(retriesMade int, kind outcome, statusCode int) bool {
	if retriesMade >= p.MaxRetries {
		return false
	}

	switch kind {
	case outcomeCanceled:
		return false
	case outcomeTransportFailure:
		return true
	default:
		return p.retryableStatus(statusCode)
	}
}
