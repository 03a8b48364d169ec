package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coinbase-samples/core-go/internal/backoff"
)

// errNoResponse is the failure recorded when a middleware returns neither a
// response nor an error.
var errNoResponse = errors.New("middleware returned no response")

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Transport sends signed requests, retrying transport failures and
// policy-nominated status codes with jittered exponential backoff. A
// Transport is safe for concurrent use; the only state shared between calls
// is the jitter source.
type Transport struct {
	doer       Doer
	middleware []Middleware
	calculator *backoff.Calculator
	sleep      func(context.Context, time.Duration) error

	logger  Logger
	debug   *DebugConfig
	metrics *MetricsCollector
}

// NewTransport creates a Transport sending through doer. A nil doer uses
// http.DefaultClient.
func NewTransport(doer Doer, middleware ...Middleware) *Transport {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Transport{
		doer:       doer,
		middleware: middleware,
		calculator: backoff.GetExponentialCalculator(),
		sleep:      sleepContext,
		logger:     nopLogger{},
	}
}

// Send performs req, retrying per policy. It returns the last response
// received, whatever its status, unless the final attempt failed at the
// transport level or the caller cancelled ctx; both yield a *TransportError.
func (t *Transport) Send(ctx context.Context, req *SignedRequest, policy CallPolicy) (*RawResponse, error) {
	if req == nil {
		return nil, newClientError("a signed request is required", ErrInvalidRequest)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	requestID := t.debug.newRequestID()

	if t.debug.requests() {
		t.logger.Debug("Starting request", "requestID", requestID, "method", req.method, "path", req.path, "endpoint", req.endpoint)
	}

	t.metrics.RecordRequestStart(req.method, req.endpoint)
	defer t.metrics.RecordRequestEnd(req.method, req.endpoint)

	var (
		lastResp *RawResponse
		lastErr  error
		attempts int
	)

	for retriesMade := 0; ; retriesMade++ {
		attempts = retriesMade + 1

		httpReq, err := req.newHTTPRequest(ctx)
		if err != nil {
			return nil, newClientError("failed to create HTTP request", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		}

		resp, err := t.attempt(httpReq)
		kind := classify(ctx, err)
		t.metrics.RecordAttempt(req.method, req.endpoint, kind.String())

		statusCode := 0
		switch kind {
		case outcomeCanceled:
			return nil, t.fail(req, requestID, attempts, start, outcomeCanceled, ctx.Err())
		case outcomeTransportFailure:
			lastResp, lastErr = nil, err
		default:
			lastResp, lastErr = resp, nil
			statusCode = resp.StatusCode
		}

		if !policy.shouldRetry(retriesMade, kind, statusCode) {
			break
		}

		delay := t.calculator.Delay(retriesMade+1, policy.MinDelay, policy.MaxDelay)
		if t.debug.retries() {
			t.logger.Info("Scheduling retry", "requestID", requestID, "attempt", retriesMade+1, "maxRetries", policy.MaxRetries,
				"backoff", delay, "reason", retryReason(kind, statusCode, lastErr), "endpoint", req.endpoint)
		}
		t.metrics.RecordRetry(req.method, req.endpoint, retriesMade+1, delay)

		if err := t.sleep(ctx, delay); err != nil {
			return nil, t.fail(req, requestID, attempts, start, outcomeCanceled, err)
		}
	}

	if lastErr != nil {
		if t.debug.retries() && attempts > 1 {
			t.logger.Warn("Retries exhausted", "requestID", requestID, "attempts", attempts, "endpoint", req.endpoint)
		}
		return nil, t.fail(req, requestID, attempts, start, outcomeTransportFailure, lastErr)
	}

	duration := time.Since(start)
	t.metrics.RecordRequest(req.method, req.endpoint, lastResp.StatusCode, duration)
	if t.debug.requests() {
		t.logger.Debug("Request completed", "requestID", requestID, "statusCode", lastResp.StatusCode, "attempts", attempts, "duration", duration)
	}

	return lastResp, nil
}

// attempt performs one round trip and reads the whole body. A failure to
// read the body is a transport failure.
func (t *Transport) attempt(req *http.Request) (*RawResponse, error) {
	resp, err := t.executeMiddleware(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errNoResponse
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (t *Transport) executeMiddleware(req *http.Request) (*http.Response, error) {
	if len(t.middleware) == 0 {
		return t.doer.Do(req)
	}

	current := RoundTripperFunc(t.doer.Do)

	for i := len(t.middleware) - 1; i >= 0; i-- {
		middleware := t.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

// fail ends a call that produced no response. kind is outcomeCanceled when
// the caller's context stopped the call and outcomeTransportFailure when
// retries ran out.
func (t *Transport) fail(req *SignedRequest, requestID string, attempts int, start time.Time, kind outcome, cause error) *TransportError {
	duration := time.Since(start)

	t.metrics.RecordError(kind.String(), req.method, req.endpoint)
	t.metrics.RecordRequest(req.method, req.endpoint, 0, duration)

	if t.debug.requests() {
		t.logger.Warn("Request failed", "requestID", requestID, "attempts", attempts, "reason", kind.String(), "error", cause)
	}

	return &TransportError{
		Method:   req.method,
		URL:      req.uri,
		Attempts: attempts,
		Duration: duration,
		Cause:    cause,
		canceled: kind == outcomeCanceled,
	}
}

// classify maps the result of one attempt to an outcome. An error while the
// caller's context is done is a cancellation; any other error, including a
// per-attempt timeout of the HTTP client, is a transport failure.
func classify(ctx context.Context, err error) outcome {
	switch {
	case err == nil:
		return outcomeResponse
	case ctx.Err() != nil:
		return outcomeCanceled
	default:
		return outcomeTransportFailure
	}
}

func retryReason(kind outcome, statusCode int, err error) string {
	if kind == outcomeTransportFailure && err != nil {
		return err.Error()
	}
	return fmt.Sprintf("status %d", statusCode)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
