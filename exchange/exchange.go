// Package exchange wraps a handful of Exchange REST endpoints on top of the
// core request pipeline. Each method supplies a path, a payload and a result
// type; signing, retries and error classification are done by core.
package exchange

import (
	"net/http"

	core "github.com/coinbase-samples/core-go"
)

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.exchange.coinbase.com"

// Service groups the endpoint wrappers.
type Service struct {
	base *core.Service
}

// NewService returns a Service sending through client.
func NewService(client *core.Client) *Service {
	return &Service{base: core.NewService(client, "")}
}

func get(path string, params any) core.Request {
	return core.Request{Method: http.MethodGet, Path: path, Params: params}
}
