package core

import (
	"errors"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestDefaultCallPolicy(t *testing.T) {
	p := DefaultCallPolicy()

	if p.RetryOnStatusCodes {
		t.Error("Expected status code retries to be disabled by default")
	}
	if p.MaxRetries != 3 || p.MinDelay != time.Second || p.MaxDelay != 30*time.Second {
		t.Errorf("Unexpected defaults: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Default policy should be valid: %v", err)
	}
}

func TestCallPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		policy CallPolicy
	}{
		{"negative retries", CallPolicy{MaxRetries: -1, MaxDelay: time.Second}},
		{"negative min delay", CallPolicy{MinDelay: -time.Second}},
		{"max below min", CallPolicy{MinDelay: 2 * time.Second, MaxDelay: time.Second}},
		{"invalid status", CallPolicy{RetryableStatusCodes: []int{503, 42}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Fatalf("Expected ErrInvalidPolicy, got %v", err)
			}
			if KindOf(err) != KindClient {
				t.Errorf("Expected client error, got %s", KindOf(err))
			}
		})
	}

	if err := (CallPolicy{}).Validate(); err != nil {
		t.Errorf("Zero policy should be valid: %v", err)
	}
}

func TestShouldRetry(t *testing.T) {
	policy := CallPolicy{
		RetryOnStatusCodes:   true,
		MaxRetries:           2,
		RetryableStatusCodes: []int{429, 503},
	}

	tests := []struct {
		name        string
		policy      CallPolicy
		retriesMade int
		kind        outcome
		status      int
		want        bool
	}{
		{"transport failure", policy, 0, outcomeTransportFailure, 0, true},
		{"transport failure with status retries off", CallPolicy{MaxRetries: 2}, 1, outcomeTransportFailure, 0, true},
		{"retryable status", policy, 1, outcomeResponse, 503, true},
		{"unlisted status", policy, 0, outcomeResponse, 500, false},
		{"success", policy, 0, outcomeResponse, 200, false},
		{"status retries disabled", CallPolicy{MaxRetries: 2, RetryableStatusCodes: []int{503}}, 0, outcomeResponse, 503, false},
		{"exhausted", policy, 2, outcomeTransportFailure, 0, false},
		{"canceled", policy, 0, outcomeCanceled, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.shouldRetry(tt.retriesMade, tt.kind, tt.status); got != tt.want {
				t.Errorf("shouldRetry() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRetryNeverExceedsMaxRetries(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxRetries := rapid.IntRange(0, 10).Draw(t, "maxRetries")
		policy := CallPolicy{
			RetryOnStatusCodes:   true,
			MaxRetries:           maxRetries,
			RetryableStatusCodes: []int{500},
		}

		attempts := 0
		for retriesMade := 0; ; retriesMade++ {
			attempts++
			kind := rapid.SampledFrom([]outcome{outcomeResponse, outcomeTransportFailure}).Draw(t, "kind")
			if !policy.shouldRetry(retriesMade, kind, 500) {
				break
			}
		}

		if attempts != maxRetries+1 {
			t.Fatalf("attempts = %d, want %d", attempts, maxRetries+1)
		}
	})
}

func TestCallPolicyCloneDoesNotShareCodes(t *testing.T) {
	p := CallPolicy{RetryableStatusCodes: []int{503}}
	c := p.clone()
	c.RetryableStatusCodes[0] = 429

	if p.RetryableStatusCodes[0] != 503 {
		t.Error("clone shares the status code slice")
	}
}

func TestOutcomeString(t *testing.T) {
	if outcomeResponse.String() != "response" || outcomeTransportFailure.String() != "transport" || outcomeCanceled.String() != "canceled" {
		t.Error("unexpected outcome names")
	}
}
