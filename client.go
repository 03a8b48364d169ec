package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/coinbase-samples/core-go/internal/backoff"
)

// Client issues authenticated calls against one API base URL. It holds the
// signer, the serializer and the transport; everything else is per call. It
// is safe for concurrent use.
type Client struct {
	baseURL    string
	signer     Signer
	serializer Serializer
	transport  *Transport

	httpClient *http.Client
	timeout    time.Duration
	middleware []Middleware
	policy     CallPolicy
	userAgent  string
	now        func() time.Time
	jitterSeed *int64

	metrics *MetricsCollector
	debug   *DebugConfig
	logger  Logger
}

// New constructs a Client for baseURL signing with signer. baseURL must be an
// absolute http or https URL. Options are applied in order and the result is
// validated; New fails with a *ClientError when validation fails.
func New(baseURL string, signer Signer, options ...Option) (*Client, error) {
	client := &Client{
		baseURL:    baseURL,
		signer:     signer,
		serializer: JSONSerializer{},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		timeout:   30 * time.Second,
		policy:    DefaultCallPolicy(),
		userAgent: UserAgent(),
		now:       time.Now,
		debug:     DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		return nil, err
	}

	client.transport = client.newTransport()
	return client, nil
}

func (c *Client) newTransport() *Transport {
	t := NewTransport(c.httpClient, c.middleware...)
	if c.jitterSeed != nil {
		t.calculator = backoff.NewCalculator(backoff.ExponentialStrategy{}, *c.jitterSeed)
	}
	if c.logger != nil {
		t.logger = c.logger
	}
	t.debug = c.debug
	t.metrics = c.metrics
	return t
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Policy returns a copy of the default call policy.
func (c *Client) Policy() CallPolicy {
	return c.policy.clone()
}

// Serializer returns the serializer used for bodies and responses.
func (c *Client) Serializer() Serializer {
	return c.serializer
}

// Build turns req into a signed request without sending it.
func (c *Client) Build(req Request) (*SignedRequest, error) {
	b := &builder{
		baseURL:    c.baseURL,
		signer:     c.signer,
		serializer: c.serializer,
		userAgent:  c.userAgent,
		now:        c.now,
	}
	return b.build(req)
}

// Send builds, signs and sends req. The final response is returned whatever
// its status; use Call or Do to classify it.
func (c *Client) Send(ctx context.Context, req Request, opts ...CallOption) (*RawResponse, error) {
	_, resp, err := c.send(ctx, req, c.callConfig(opts))
	return resp, err
}

// Do sends req and decodes the response into out, which must be a pointer or
// nil. It returns an error unless the status is one of the expected codes.
func (c *Client) Do(ctx context.Context, req Request, out any, opts ...CallOption) error {
	cfg := c.callConfig(opts)

	signed, resp, err := c.send(ctx, req, cfg)
	if err != nil {
		return err
	}
	return c.resolve(signed, resp, cfg, out)
}

// Call sends req through client and resolves the response into T.
func Call[T any](ctx context.Context, client *Client, req Request, opts ...CallOption) (T, error) {
	var out T
	if err := client.Do(ctx, req, &out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, req Request, cfg callConfig) (*SignedRequest, *RawResponse, error) {
	signed, err := c.Build(req)
	if err != nil {
		c.metrics.RecordError(KindClient.String(), req.Method, "unknown")
		return nil, nil, err
	}
	resp, err := c.transport.Send(ctx, signed, cfg.policy)
	return signed, resp, err
}

func (c *Client) resolve(req *SignedRequest, resp *RawResponse, cfg callConfig, out any) error {
	err := resolveInto(resp, cfg.expected, c.serializer, out)
	if err != nil {
		kind := KindOf(err)
		c.metrics.RecordError(kind.String(), req.method, req.endpoint)
		if c.debug.requests() && c.logger != nil {
			c.logger.Debug("Call failed", "method", req.method, "path", req.path, "kind", kind.String(), "error", err)
		}
	}
	return err
}

func (c *Client) callConfig(opts []CallOption) callConfig {
	cfg := callConfig{
		policy:   c.policy.clone(),
		expected: []int{DefaultExpectedStatus},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithPolicy replaces the client's default policy for one call.
func WithPolicy(policy CallPolicy) CallOption {
	return func(cfg *callConfig) {
		cfg.policy = policy.clone()
	}
}

// WithExpectedStatus sets the status codes treated as success for one call.
func WithExpectedStatus(codes ...int) CallOption {
	return func(cfg *callConfig) {
		if len(codes) > 0 {
			cfg.expected = slices.Clone(codes)
		}
	}
}

// validateBaseURL checks that raw is an absolute http(s) URL with a host and
// no query or fragment.
func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("baseURL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("baseURL is invalid: %v", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("baseURL must be an absolute http(s) URL: %q", raw)
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return fmt.Errorf("baseURL must not contain a query or fragment: %q", raw)
	}
	return nil
}
