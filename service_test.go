package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
	}{
		{"no placeholders", "/products", nil, "/products"},
		{"one placeholder", "/orders/{order_id}", map[string]string{"order_id": "abc"}, "/orders/abc"},
		{"two placeholders", "/products/{product_id}/candles/{granularity}", map[string]string{"product_id": "BTC-USD", "granularity": "60"}, "/products/BTC-USD/candles/60"},
		{"escaped value", "/accounts/{id}", map[string]string{"id": "a/b c"}, "/accounts/a%2Fb%20c"},
		{"unused params", "/time", map[string]string{"id": "1"}, "/time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.template, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPathErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
		params   map[string]string
	}{
		{"missing value", "/orders/{order_id}", nil},
		{"empty value", "/orders/{order_id}", map[string]string{"order_id": ""}},
		{"unterminated", "/orders/{order_id", map[string]string{"order_id": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExpandPath(tt.template, tt.params)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, KindClient, KindOf(err))
		})
	}
}

func TestServicePathPrefixesBase(t *testing.T) {
	client := newTestClient(t, "https://api.example.com")
	svc := NewService(client, "/api/v3/")

	got, err := svc.Path("/orders/{id}", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v3/orders/7", got)
	assert.Same(t, client, svc.Client())
}

func TestServiceCall(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"7"}`))
	}))
	defer server.Close()

	svc := NewService(newTestClient(t, server.URL), "/v2")

	got, err := ServiceCall[resolvedID](context.Background(), svc, Request{Path: "/orders/{id}"}, map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, "/v2/orders/7", gotPath)
}

func TestServiceCallMissingParamIsNotSent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	svc := NewService(newTestClient(t, server.URL), "")

	_, err := ServiceCall[resolvedID](context.Background(), svc, Request{Path: "/orders/{id}"}, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, calls)
}
