package core

import (
	"net/http"
)

// Middleware wraps a single HTTP attempt. It runs once per attempt, so a
// retried call passes through the chain again.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Option represents a configuration option
type Option func(*Client)

// CallOption adjusts a single call.
type CallOption func(*callConfig)

// DefaultExpectedStatus is the status accepted as success when a call names none.
const DefaultExpectedStatus = http.StatusOK

type callConfig struct {
	policy   CallPolicy
	expected []int
}
