package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)

	if collector == nil {
		t.Fatal("NewMetricsCollectorWithRegistry() returned nil")
	}
	if collector.requestsTotal == nil || collector.requestDuration == nil || collector.requestsInFlight == nil {
		t.Error("request metrics not initialized")
	}
	if collector.attemptsTotal == nil || collector.retriesTotal == nil || collector.retryDelay == nil {
		t.Error("retry metrics not initialized")
	}
	if collector.errorsTotal == nil {
		t.Error("errorsTotal metric not initialized")
	}
}

func TestNilMetricsCollector(t *testing.T) {
	var collector *MetricsCollector

	collector.RecordRequest("GET", "/", 200, time.Second)
	collector.RecordRequestStart("GET", "/")
	collector.RecordRequestEnd("GET", "/")
	collector.RecordAttempt("GET", "/", "response")
	collector.RecordRetry("GET", "/", 1, time.Second)
	collector.RecordError("transport", "GET", "/")

	if collector.Registerer() != nil {
		t.Error("Expected nil registerer")
	}
}

func TestMetricsRecordRequest(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())

	collector.RecordRequest("GET", "api.example.com/products", 200, 150*time.Millisecond)
	collector.RecordRequest("GET", "api.example.com/products", 200, 50*time.Millisecond)

	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", "api.example.com/products")); got != 2 {
		t.Errorf("Expected 2 requests, got %v", got)
	}
	if got := testutil.CollectAndCount(collector.requestDuration); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}
}

func TestMetricsInFlight(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	gauge := collector.requestsInFlight.WithLabelValues("POST", "api.example.com/orders")

	collector.RecordRequestStart("POST", "api.example.com/orders")
	collector.RecordRequestStart("POST", "api.example.com/orders")
	if got := testutil.ToFloat64(gauge); got != 2 {
		t.Errorf("Expected 2 in flight, got %v", got)
	}

	collector.RecordRequestEnd("POST", "api.example.com/orders")
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("Expected 1 in flight, got %v", got)
	}
}

func TestMetricsRetriesAndErrors(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())

	collector.RecordRetry("GET", "e", 1, time.Second)
	collector.RecordRetry("GET", "e", 2, 2*time.Second)
	collector.RecordError("transport", "GET", "e")

	if got := testutil.CollectAndCount(collector.retriesTotal); got != 2 {
		t.Errorf("Expected 2 retry series, got %d", got)
	}
	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues("transport", "GET", "e")); got != 1 {
		t.Errorf("Expected 1 error, got %v", got)
	}
}

func TestMetricsExposition(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry(registry)
	collector.RecordError("service", "GET", "api.example.com/orders/1")

	expected := `
# HELP coinbase_errors_total Total number of failed API calls, by error kind
# TYPE coinbase_errors_total counter
coinbase_errors_total{endpoint="api.example.com/orders/1",kind="service",method="GET"} 1
`
	if err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "coinbase_errors_total"); err != nil {
		t.Error(err)
	}
}

func TestMetricsThroughTransport(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	client, err := New(server.URL, &recordingSigner{},
		WithMetricsCollector(collector),
		WithRetryableStatusCodes(http.StatusServiceUnavailable),
		WithRetryDelays(time.Millisecond, time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if err := client.Do(context.Background(), Request{Path: "/products"}, nil); err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	endpoint := strings.TrimPrefix(server.URL, "http://") + "/products"
	if got := testutil.ToFloat64(collector.attemptsTotal.WithLabelValues("GET", endpoint, "response")); got != 2 {
		t.Errorf("Expected 2 attempts, got %v", got)
	}
	if got := testutil.ToFloat64(collector.retriesTotal.WithLabelValues("GET", endpoint, "1")); got != 1 {
		t.Errorf("Expected 1 retry, got %v", got)
	}
	if got := testutil.ToFloat64(collector.requestsTotal.WithLabelValues("GET", "200", endpoint)); got != 1 {
		t.Errorf("Expected 1 completed request, got %v", got)
	}
	if got := testutil.ToFloat64(collector.requestsInFlight.WithLabelValues("GET", endpoint)); got != 0 {
		t.Errorf("Expected nothing in flight, got %v", got)
	}
}

func TestMetricsTransportFailure(t *testing.T) {
	collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
	transport := NewTransport(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	transport.metrics = collector

	_, err := transport.Send(context.Background(), signedTestRequest(t, "https://api.example.com", Request{Path: "/products"}), CallPolicy{})
	if KindOf(err) != KindTransport {
		t.Fatalf("Expected transport error, got %v", err)
	}

	if got := testutil.ToFloat64(collector.errorsTotal.WithLabelValues("transport", "GET", "api.example.com/products")); got != 1 {
		t.Errorf("Expected 1 transport error, got %v", got)
	}
}

func TestMetricsRegistryConflict(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetricsCollectorWithRegistry(registry)

	defer func() {
		if recover() == nil {
			t.Error("Expected duplicate registration to panic")
		}
	}()
	NewMetricsCollectorWithRegistry(registry)
}
