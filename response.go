package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIResponse handles consistent header setting and JSON responses.
// It centralizes X-Cache-Status, Cache-Control and rate limit headers
// based on request context.
type APIResponse struct {
	w           http.ResponseWriter
	r           *http.Request
	cacheStatus string
	cacheTTL    time.Duration
}

// Respond creates a response helper from request context
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheStatus sets the X-Cache-Status header value
func (a *APIResponse) SetCacheStatus(status string) *APIResponse {
	a.cacheStatus = status
	return a
}

// SetCacheTTL sets the Cache-Control max-age to mirror the response's
// cache TTL class.
func (a *APIResponse) SetCacheTTL(ttl time.Duration) *APIResponse {
	a.cacheTTL = ttl
	return a
}

// writeHeaders sets all standard headers based on context
func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.cacheStatus != "" {
		a.w.Header().Set("X-Cache-Status", a.cacheStatus)
	}
	if a.cacheTTL > 0 {
		a.w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(a.cacheTTL.Seconds())))
	}

	if bypass, ok := a.r.Context().Value(apiKeyBypassKey).(bool); ok && bypass {
		a.w.Header().Set("X-RateLimit-Bypass", "true")
	}
	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		a.w.Header().Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes error response
func (a *APIResponse) Error(statusCode int, message string) error {
	a.cacheTTL = 0 // errors are never cacheable
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(errorResponse{Error: message})
}
