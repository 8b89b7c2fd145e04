package saavn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"music-gateway-go/circuitbreaker"
)

func newTestClient(baseURL string, retries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:        baseURL,
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		BackoffBase:    time.Millisecond,
		BackoffCap:     5 * time.Millisecond,
		RequestsPerSec: 1000,
		BurstLimit:     100,
	})
}

func TestGetUnwrapsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("Expected User-Agent %q, got %q", userAgent, ua)
		}
		w.Write([]byte(`{"success": true, "data": {"id": "abc123"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	data, err := client.Get(context.Background(), "/songs/abc123", nil)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if string(data) != `{"id": "abc123"}` {
		t.Errorf("Expected unwrapped data payload, got %s", data)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	if _, err := client.Get(context.Background(), "/search/songs", nil); err != nil {
		t.Fatalf("Expected recovery after retries, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	_, err := client.Get(context.Background(), "/songs/x1", nil)
	if !errors.Is(err, ErrUpstreamTransient) {
		t.Fatalf("Expected transient error, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts (1 + 2 retries), got %d", got)
	}
}

func TestGetNotFoundDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.Get(context.Background(), "/songs/missing", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected single attempt for 404, got %d", got)
	}
}

func TestGetPermanentFailureDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.Get(context.Background(), "/search/songs", nil)
	if !errors.Is(err, ErrUpstreamPermanent) {
		t.Fatalf("Expected permanent error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected single attempt for 400, got %d", got)
	}
}

func TestGetFailedEnvelopeIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "data": null}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	_, err := client.Get(context.Background(), "/songs/gone", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for success=false envelope, got %v", err)
	}
}

func TestGetRefusedWhileCircuitOpen(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "upstream", Threshold: 1, Cooldown: time.Hour})
	breaker.RecordFailure()

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		MaxRetries:     0,
		BackoffBase:    time.Millisecond,
		RequestsPerSec: 1000,
		BurstLimit:     100,
		Breaker:        breaker,
	})

	_, err := client.Get(context.Background(), "/songs/x1", nil)
	if !errors.Is(err, ErrUpstreamTransient) {
		t.Fatalf("Expected transient error while circuit open, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("Expected no upstream call while circuit open")
	}
}

func TestGetCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(server.URL, 3)
	if _, err := client.Get(ctx, "/songs/x1", nil); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
