package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Service is the base for per-endpoint API wrappers. It prefixes every path
// with basePath and sends through one shared Client.
type Service struct {
	client   *Client
	basePath string
}

// NewService returns a Service rooted at basePath.
func NewService(client *Client, basePath string) *Service {
	return &Service{
		client:   client,
		basePath: strings.TrimRight(basePath, "/"),
	}
}

// Client returns the underlying client.
func (s *Service) Client() *Client {
	return s.client
}

// Path expands template and prefixes it with the base path.
func (s *Service) Path(template string, params map[string]string) (string, error) {
	expanded, err := ExpandPath(template, params)
	if err != nil {
		return "", err
	}
	return s.basePath + expanded, nil
}

// ServiceCall expands req.Path with params, prefixes the service base path
// and performs the call.
func ServiceCall[T any](ctx context.Context, s *Service, req Request, params map[string]string, opts ...CallOption) (T, error) {
	path, err := s.Path(req.Path, params)
	if err != nil {
		var zero T
		return zero, err
	}
	req.Path = path
	return Call[T](ctx, s.client, req, opts...)
}

// ExpandPath replaces every {name} segment in template with the
// path-escaped value of params[name]. A placeholder without a non-empty
// value is a *ClientError.
func ExpandPath(template string, params map[string]string) (string, error) {
	var b strings.Builder
	rest := template

	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", newClientError("unterminated placeholder in path "+template, ErrInvalidRequest)
		}
		end += open

		name := rest[open+1 : end]
		value, ok := params[name]
		if !ok || value == "" {
			return "", newClientError(fmt.Sprintf("missing path parameter %q for %s", name, template), ErrInvalidRequest)
		}

		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		rest = rest[end+1:]
	}

	return b.String(), nil
}
