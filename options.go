package core

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
		// Update timeout if it was set
		if client != nil && c.timeout != 0 {
			c.httpClient.Timeout = c.timeout
		}
	}
}

// WithTimeout sets the per-attempt timeout of the HTTP client. A timed out
// attempt is a transport failure and is retried.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithCallPolicy sets the default policy for every call.
func WithCallPolicy(policy CallPolicy) Option {
	return func(c *Client) {
		c.policy = policy.clone()
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.policy.MaxRetries = n
	}
}

// WithRetryDelays sets the minimum and maximum backoff delays
func WithRetryDelays(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.policy.MinDelay = minDelay
		c.policy.MaxDelay = maxDelay
	}
}

// WithRetryableStatusCodes enables retries on the given status codes.
func WithRetryableStatusCodes(codes ...int) Option {
	return func(c *Client) {
		c.policy.RetryOnStatusCodes = len(codes) > 0
		c.policy.RetryableStatusCodes = slices.Clone(codes)
	}
}

// WithSerializer sets the serializer for request bodies and responses
func WithSerializer(s Serializer) Option {
	return func(c *Client) {
		c.serializer = s
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithClock sets the time source used for request timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithJitterSeed seeds the backoff jitter source for reproducible delays
func WithJitterSeed(seed int64) Option {
	return func(c *Client) {
		c.jitterSeed = &seed
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsRegistry enables metrics registered on the given registerer
func WithMetricsRegistry(registerer prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollectorWithRegistry(registerer)
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		if c.logger == nil {
			c.logger = NewSimpleLogger()
		}
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateEndpointConfig()...)
	errors = append(errors, c.validatePolicyConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)
	errors = append(errors, c.validateHTTPClientConfig()...)
	errors = append(errors, c.validateExtremeValues()...)

	if len(errors) > 0 {
		return newClientError("configuration validation failed", fmt.Errorf("validation errors: %v", errors))
	}

	return nil
}

func (c *Client) validateEndpointConfig() []string {
	var errors []string

	if err := validateBaseURL(c.baseURL); err != nil {
		errors = append(errors, err.Error())
	}
	if c.signer == nil {
		errors = append(errors, "signer cannot be nil")
	}
	if c.serializer == nil {
		errors = append(errors, "serializer cannot be nil")
	}
	if c.now == nil {
		errors = append(errors, "clock cannot be nil")
	}

	return errors
}

func (c *Client) validatePolicyConfig() []string {
	var errors []string

	if c.policy.MaxRetries < 0 {
		errors = append(errors, "maxRetries must be non-negative")
	}
	if c.policy.MinDelay < 0 {
		errors = append(errors, "minDelay must be non-negative")
	}
	if c.policy.MaxDelay < c.policy.MinDelay {
		errors = append(errors, "maxDelay must be greater than or equal to minDelay")
	}
	for _, code := range c.policy.RetryableStatusCodes {
		if code < 100 || code > 599 {
			errors = append(errors, fmt.Sprintf("retryable status code %d is not a valid HTTP status", code))
		}
	}
	if c.timeout <= 0 {
		errors = append(errors, "timeout must be positive")
	}

	return errors
}

func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}

func (c *Client) validateHTTPClientConfig() []string {
	var errors []string

	if c.httpClient == nil {
		errors = append(errors, "HTTP client cannot be nil")
	}

	return errors
}

// validateExtremeValues validates that configuration values are within reasonable bounds
func (c *Client) validateExtremeValues() []string {
	var errors []string

	if c.policy.MaxRetries > 100 {
		errors = append(errors, "maxRetries > 100 may cause excessive resource usage")
	}
	if c.policy.MaxDelay > time.Hour {
		errors = append(errors, "maxDelay > 1h may cause extremely long delays")
	}
	if c.timeout > 10*time.Minute {
		errors = append(errors, "timeout > 10m may cause requests to hang for too long")
	}

	return errors
}
