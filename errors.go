package core

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for local failures. They are wrapped by *ClientError and
// match with errors.Is.
var (
	// ErrInvalidCredentials is returned when an access key, passphrase or signing key is missing.
	ErrInvalidCredentials = errors.New("core: invalid credentials")

	// ErrInvalidRequest is returned when a request cannot be turned into a valid URI or payload.
	ErrInvalidRequest = errors.New("core: invalid request")

	// ErrInvalidPolicy is returned when a CallPolicy has out-of-range values.
	ErrInvalidPolicy = errors.New("core: invalid call policy")

	// ErrUnexpectedResponse is returned when an expected response body does not match the target type.
	ErrUnexpectedResponse = errors.New("core: unexpected response")
)

// ErrorKind classifies every error returned by a Client.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindClient
	KindTransport
	KindHTTP
	KindService
)

func (k ErrorKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindTransport:
		return "transport"
	case KindHTTP:
		return "http"
	case KindService:
		return "service"
	default:
		return "unknown"
	}
}

// ClientError represents a local failure: bad credentials, an unbuildable
// request, a signing failure or a response that does not fit the target type.
// It is never retried.
type ClientError struct {
	Message string
	Cause   error
}

func newClientError(message string, cause error) *ClientError {
	return &ClientError{Message: message, Cause: cause}
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("client error: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("client error: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// TransportError is returned when no attempt produced a response: the
// network failed on every attempt, or the caller cancelled the call.
type TransportError struct {
	Method   string
	URL      string
	Attempts int
	Duration time.Duration
	Cause    error

	canceled bool
}

// Error implements error interface.
func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("transport error: %s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Canceled reports whether the call ended because the caller's context was
// cancelled or its deadline passed. A per-attempt timeout of the HTTP client
// is not a cancellation even though its cause matches
// context.DeadlineExceeded.
func (e *TransportError) Canceled() bool {
	return e != nil && e.canceled
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *TransportError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := "Error Type: transport\n"
	info += fmt.Sprintf("Method: %s\n", e.Method)
	info += fmt.Sprintf("URL: %s\n", e.URL)
	info += fmt.Sprintf("Attempts: %d\n", e.Attempts)
	if e.canceled {
		info += "Canceled: true\n"
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// HTTPError is returned when the server answered with an unexpected status
// and a body that is not a structured error payload.
type HTTPError struct {
	StatusCode int
	Body       string
}

// Error implements error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Body == "" {
		return fmt.Sprintf("http error: server responded with a %d status code", e.StatusCode)
	}
	return fmt.Sprintf("http error: server responded with a %d status code: %s", e.StatusCode, truncate(e.Body, 256))
}

// ServiceError is returned when the server answered with an unexpected status
// and a structured error payload carrying a message.
type ServiceError struct {
	StatusCode int
	Message    string
}

// Error implements error interface.
func (e *ServiceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("service error: %d %s", e.StatusCode, e.Message)
}

// KindOf classifies err. Wrapped errors are unwrapped.
func KindOf(err error) ErrorKind {
	var (
		clientErr    *ClientError
		transportErr *TransportError
		httpErr      *HTTPError
		serviceErr   *ServiceError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &serviceErr):
		return KindService
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &clientErr):
		return KindClient
	default:
		return KindUnknown
	}
}

// StatusCode extracts the HTTP status code carried by an HTTPError or ServiceError.
func StatusCode(err error) (int, bool) {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.StatusCode, true
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsTransient reports whether err is a failure that might succeed if the
// caller issues the call again later: transport failures that were not
// caused by cancellation, 429 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return !transportErr.Canceled()
	}

	if code, ok := StatusCode(err); ok {
		return code == 429 || code >= 500
	}

	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
