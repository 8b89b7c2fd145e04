package saavn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	"music-gateway-go/circuitbreaker"
	"music-gateway-go/logcolors"
	"music-gateway-go/stats"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Sentinel errors for classifying upstream outcomes. Handlers map these
// onto HTTP status codes.
var (
	ErrInvalidID         = errors.New("invalid identifier")
	ErrNotFound          = errors.New("not found upstream")
	ErrUpstreamTransient = errors.New("upstream temporarily unavailable")
	ErrUpstreamPermanent = errors.New("upstream rejected request")
	ErrUpstreamTimeout   = errors.New("upstream timed out")
)

const userAgent = "music-gateway/1.0"

// transient status codes are retried; everything else 4xx/5xx fails fast.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	}
	return false
}

// ClientConfig holds upstream client settings.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int           // extra attempts after the first
	BackoffBase    time.Duration // doubled per retry
	BackoffCap     time.Duration
	RequestsPerSec float64 // outbound politeness throttle
	BurstLimit     int
	Breaker        *circuitbreaker.CircuitBreaker
}

// Client is a pooled, retrying HTTP client for the upstream JSON API.
// A single Client is shared by all requests; the underlying transport
// reuses connections.
type Client struct {
	baseURL     string
	http        *http.Client
	limiter     *rate.Limiter
	breaker     *circuitbreaker.CircuitBreaker
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
}

// NewClient creates an upstream client with pooled connections.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 5 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 8
	}
	if cfg.BurstLimit <= 0 {
		cfg.BurstLimit = 4
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		baseURL: cfg.BaseURL,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.BurstLimit),
		breaker:     cfg.Breaker,
		maxRetries:  cfg.MaxRetries,
		backoffBase: cfg.BackoffBase,
		backoffCap:  cfg.BackoffCap,
	}
}

// Get fetches path with query from the upstream, unwraps the success
// envelope and returns the raw data payload. Transient failures (5xx,
// 429, timeouts, transport errors) are retried with exponential backoff;
// 404 and other 4xx fail immediately.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		log.Warnf("%s Circuit open, refusing call to %s", logcolors.LogUpstream, path)
		return nil, fmt.Errorf("%w: %s", ErrUpstreamTransient, circuitbreaker.ErrCircuitOpen)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	attempts := c.maxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			stats.Get().RecordUpstreamRetry()
			if err := c.sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
			log.Infof("%s Retry %d/%d for %s", logcolors.LogUpstream, attempt, c.maxRetries, path)
		}

		data, err := c.doOnce(ctx, reqURL)
		if err == nil {
			if c.breaker != nil {
				c.breaker.RecordSuccess()
			}
			return data, nil
		}

		// Permanent failures and 404s are not the upstream's health
		// failing, so they neither retry nor trip the breaker.
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstreamPermanent) {
			return nil, err
		}
		lastErr = err
	}

	stats.Get().RecordUpstreamError()
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
	log.Errorf("%s Giving up on %s after %d attempts: %v", logcolors.LogUpstream, path, attempts, lastErr)
	return nil, lastErr
}

// doOnce performs a single upstream request attempt.
func (c *Client) doOnce(ctx context.Context, reqURL string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamPermanent, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	stats.Get().RecordUpstreamCall()
	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case isTransientStatus(resp.StatusCode):
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", ErrUpstreamPermanent, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrUpstreamTransient, err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUpstreamPermanent, err)
	}
	if !envelope.Success {
		return nil, ErrNotFound
	}
	return envelope.Data, nil
}

// sleepBackoff waits base*2^(attempt-1) capped, with light jitter, or
// returns early when the context is cancelled.
func (c *Client) sleepBackoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase << (attempt - 1)
	if delay > c.backoffCap {
		delay = c.backoffCap
	}
	delay += time.Duration(rand.Int63n(int64(delay) / 4))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
