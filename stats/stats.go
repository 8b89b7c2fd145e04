package stats

import (
	"sync/atomic"
	"time"
)

// Stats holds all gateway statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests    atomic.Int64
	SearchRequests   atomic.Int64
	SongRequests     atomic.Int64
	StreamRequests   atomic.Int64
	LyricsRequests   atomic.Int64
	RelatedRequests  atomic.Int64
	BrowseRequests   atomic.Int64 // album/artist/trending/charts
	AdminRequests    atomic.Int64
	OtherRequests    atomic.Int64

	// Cache performance
	CacheHits   atomic.Int64
	CacheMisses atomic.Int64

	// Upstream
	UpstreamCalls   atomic.Int64
	UpstreamRetries atomic.Int64
	UpstreamErrors  atomic.Int64

	// Admission control
	RateLimitAdmitted atomic.Int64
	RateLimitRejected atomic.Int64
	RateLimitBypassed atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64
}

// Global stats instance
var global = newStats()

func newStats() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(int64(^uint64(0) >> 1)) // Max int64
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// RecordRequest records a request to an endpoint class
func (s *Stats) RecordRequest(endpoint string) {
	s.TotalRequests.Add(1)
	switch endpoint {
	case "search":
		s.SearchRequests.Add(1)
	case "song":
		s.SongRequests.Add(1)
	case "stream":
		s.StreamRequests.Add(1)
	case "lyrics":
		s.LyricsRequests.Add(1)
	case "related":
		s.RelatedRequests.Add(1)
	case "browse":
		s.BrowseRequests.Add(1)
	case "admin":
		s.AdminRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheHit records a cache hit
func (s *Stats) RecordCacheHit() {
	s.CacheHits.Add(1)
}

// RecordCacheMiss records a cache miss
func (s *Stats) RecordCacheMiss() {
	s.CacheMisses.Add(1)
}

// RecordUpstreamCall records an outbound upstream request
func (s *Stats) RecordUpstreamCall() {
	s.UpstreamCalls.Add(1)
}

// RecordUpstreamRetry records a retried upstream request
func (s *Stats) RecordUpstreamRetry() {
	s.UpstreamRetries.Add(1)
}

// RecordUpstreamError records a failed upstream request (after retries)
func (s *Stats) RecordUpstreamError() {
	s.UpstreamErrors.Add(1)
}

// RecordRateLimit records an admission control outcome
func (s *Stats) RecordRateLimit(outcome string) {
	switch outcome {
	case "admitted":
		s.RateLimitAdmitted.Add(1)
	case "rejected":
		s.RateLimitRejected.Add(1)
	case "bypassed":
		s.RateLimitBypassed.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the cache hit rate as a percentage
func (s *Stats) CacheHitRate() float64 {
	hits := s.CacheHits.Load()
	misses := s.CacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == int64(^uint64(0)>>1) {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":   s.TotalRequests.Load(),
			"search":  s.SearchRequests.Load(),
			"song":    s.SongRequests.Load(),
			"stream":  s.StreamRequests.Load(),
			"lyrics":  s.LyricsRequests.Load(),
			"related": s.RelatedRequests.Load(),
			"browse":  s.BrowseRequests.Load(),
			"admin":   s.AdminRequests.Load(),
			"other":   s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":     s.CacheHits.Load(),
			"misses":   s.CacheMisses.Load(),
			"hit_rate": s.CacheHitRate(),
		},
		"upstream": map[string]interface{}{
			"calls":   s.UpstreamCalls.Load(),
			"retries": s.UpstreamRetries.Load(),
			"errors":  s.UpstreamErrors.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"admitted": s.RateLimitAdmitted.Load(),
			"rejected": s.RateLimitRejected.Load(),
			"bypassed": s.RateLimitBypassed.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg": s.AvgResponseTime().String(),
			"min": s.MinResponseTime().String(),
			"max": s.MaxResponseTime().String(),
		},
	}
}
