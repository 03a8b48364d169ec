package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Authentication header names.
const (
	HeaderAccessKey  = "CB-ACCESS-KEY"
	HeaderSignature  = "CB-ACCESS-SIGN"
	HeaderTimestamp  = "CB-ACCESS-TIMESTAMP"
	HeaderPassphrase = "CB-ACCESS-PASSPHRASE"
)

const contentTypeJSON = "application/json"

// Request describes one logical API call.
type Request struct {
	// Method is the HTTP verb. It is upper-cased before use.
	Method string

	// Path is appended to the client's base URL. It may contain a query
	// string of its own; flattened Params are appended to it.
	Path string

	// Params is the structured payload: the JSON body for POST, PUT and
	// PATCH, the query string for everything else. Nil means no payload.
	Params any

	// InBody sends Params as a JSON body for methods that would otherwise
	// encode them in the query string, such as DELETE.
	InBody bool
}

// SignedRequest is a fully built, authenticated request. It is immutable and
// is resent unchanged on every retry.
type SignedRequest struct {
	method   string
	uri      string
	path     string
	endpoint string
	header   http.Header
	body     string
}

// Method returns the HTTP verb.
func (r *SignedRequest) Method() string { return r.method }

// URI returns the absolute request URI.
func (r *SignedRequest) URI() string { return r.uri }

// Path returns the request path including the query string, as signed.
func (r *SignedRequest) Path() string { return r.path }

// Body returns the serialized body, empty for read requests.
func (r *SignedRequest) Body() string { return r.body }

// Header returns a copy of the request headers.
func (r *SignedRequest) Header() http.Header { return r.header.Clone() }

// Timestamp returns the value of the timestamp header.
func (r *SignedRequest) Timestamp() string { return r.header.Get(HeaderTimestamp) }

// newHTTPRequest creates a fresh *http.Request for one attempt. The body
// reader and the header map are new on every call; their contents are not.
func (r *SignedRequest) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if r.body != "" {
		body = strings.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.uri, body)
	if err != nil {
		return nil, err
	}
	req.Header = r.header.Clone()
	return req, nil
}

// hasBody reports whether Params travel in the body for this method.
func (r Request) hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	case http.MethodDelete:
		return r.InBody
	default:
		return false
	}
}

// builder turns a Request into a SignedRequest.
type builder struct {
	baseURL    string
	signer     Signer
	serializer Serializer
	userAgent  string
	now        func() time.Time
}

// BuildRequest builds and signs req against baseURL using the default JSON
// serializer and the current time.
func BuildRequest(baseURL string, req Request, signer Signer) (*SignedRequest, error) {
	b := &builder{
		baseURL:    baseURL,
		signer:     signer,
		serializer: JSONSerializer{},
		userAgent:  UserAgent(),
		now:        time.Now,
	}
	return b.build(req)
}

func (b *builder) build(req Request) (*SignedRequest, error) {
	if b.signer == nil {
		return nil, newClientError("a signer is required", ErrInvalidCredentials)
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body, query string
	if req.hasBody(method) {
		if req.Params != nil {
			data, err := b.serializer.Marshal(req.Params)
			if err != nil {
				return nil, newClientError("failed to serialize request body", err)
			}
			if string(data) != "null" {
				body = string(data)
			}
		}
	} else {
		q, err := EncodeQuery(req.Params)
		if err != nil {
			return nil, newClientError("failed to encode query parameters", err)
		}
		query = q
	}

	u, err := joinURL(b.baseURL, req.Path, query)
	if err != nil {
		return nil, err
	}

	path := u.RequestURI()
	timestamp := strconv.FormatInt(b.now().Unix(), 10)

	signature, err := b.signer.Sign(timestamp, method, path, body)
	if err != nil {
		var clientErr *ClientError
		if errors.As(err, &clientErr) {
			return nil, err
		}
		return nil, newClientError("failed to sign request", err)
	}
	if signature == "" {
		return nil, newClientError("signer returned an empty signature", ErrInvalidCredentials)
	}

	header := make(http.Header)
	header.Set("Accept", contentTypeJSON)
	if b.userAgent != "" {
		header.Set("User-Agent", b.userAgent)
	}
	if body != "" {
		header.Set("Content-Type", contentTypeJSON)
	}
	header.Set(HeaderAccessKey, b.signer.AccessKey())
	header.Set(HeaderSignature, signature)
	header.Set(HeaderTimestamp, timestamp)
	header.Set(HeaderPassphrase, b.signer.Passphrase())

	return &SignedRequest{
		method:   method,
		uri:      u.String(),
		path:     path,
		endpoint: endpointOf(u),
		header:   header,
		body:     body,
	}, nil
}

// joinURL appends path and the encoded query to base and validates the result.
// base must not carry a query or fragment; path may.
func joinURL(base, path, query string) (*url.URL, error) {
	if strings.ContainsAny(base, "?#") {
		return nil, newClientError("base URL must not contain a query or fragment: "+base, ErrInvalidRequest)
	}
	raw := strings.TrimRight(base, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		raw += "/"
	}
	raw += path

	u, err := url.Parse(raw)
	if err != nil {
		return nil, newClientError("invalid request URI "+raw, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, newClientError("request URI must be an absolute http(s) URL: "+raw, ErrInvalidRequest)
	}

	if query != "" {
		if u.RawQuery != "" {
			u.RawQuery += "&" + query
		} else {
			u.RawQuery = query
		}
	}
	return u, nil
}

// endpointOf returns the host and path used to label metrics.
func endpointOf(u *url.URL) string {
	if u == nil {
		return "unknown"
	}

	var b strings.Builder
	b.WriteString(u.Host)
	if u.Path != "" && u.Path != "/" {
		b.WriteString(u.Path)
	} else {
		b.WriteByte('/')
	}
	return b.String()
}
