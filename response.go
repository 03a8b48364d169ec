package core

import (
	"bytes"
	"fmt"
	"net/http"
	"slices"
)

// RawResponse is the final response of a call, read fully into memory.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// errorPayload is the structured error body returned by the API.
type errorPayload struct {
	Message string `json:"message"`
}

// Resolve decodes resp into T when its status is one of expected, and
// otherwise classifies it as a *ServiceError or *HTTPError. An empty expected
// list accepts only 200. An empty body on an expected status yields the zero
// value of T. A nil serializer uses JSONSerializer.
func Resolve[T any](resp *RawResponse, expected []int, s Serializer) (T, error) {
	var out T
	if err := resolveInto(resp, expected, s, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// resolveInto is Resolve for a caller-supplied destination. A nil out skips
// decoding.
func resolveInto(resp *RawResponse, expected []int, s Serializer, out any) error {
	if resp == nil {
		return newClientError("no response to resolve", ErrUnexpectedResponse)
	}
	if s == nil {
		s = JSONSerializer{}
	}
	if len(expected) == 0 {
		expected = []int{DefaultExpectedStatus}
	}

	if !slices.Contains(expected, resp.StatusCode) {
		return classifyFailure(resp, s)
	}

	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := s.Unmarshal(resp.Body, out); err != nil {
		return newClientError(
			fmt.Sprintf("failed to decode %d response body", resp.StatusCode),
			fmt.Errorf("%w: %v", ErrUnexpectedResponse, err),
		)
	}
	return nil
}

// classifyFailure turns an unexpected status into a *ServiceError when the
// body carries a non-empty message, and into a *HTTPError otherwise.
func classifyFailure(resp *RawResponse, s Serializer) error {
	var payload errorPayload
	if len(bytes.TrimSpace(resp.Body)) > 0 {
		if err := s.Unmarshal(resp.Body, &payload); err == nil && payload.Message != "" {
			return &ServiceError{StatusCode: resp.StatusCode, Message: payload.Message}
		}
	}
	return &HTTPError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
}
