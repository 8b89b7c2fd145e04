package stats

import (
	"testing"
	"time"
)

func TestRecordRequestClasses(t *testing.T) {
	s := newStats()

	s.RecordRequest("search")
	s.RecordRequest("song")
	s.RecordRequest("stream")
	s.RecordRequest("lyrics")
	s.RecordRequest("related")
	s.RecordRequest("browse")
	s.RecordRequest("admin")
	s.RecordRequest("something-else")

	if s.TotalRequests.Load() != 8 {
		t.Errorf("Expected 8 total requests, got %d", s.TotalRequests.Load())
	}
	if s.SearchRequests.Load() != 1 || s.StreamRequests.Load() != 1 || s.OtherRequests.Load() != 1 {
		t.Error("Expected per-class counters to increment")
	}
}

func TestCacheHitRate(t *testing.T) {
	s := newStats()

	if rate := s.CacheHitRate(); rate != 0 {
		t.Errorf("Expected 0%% with no lookups, got %f", rate)
	}

	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheHit()
	s.RecordCacheMiss()

	if rate := s.CacheHitRate(); rate != 75 {
		t.Errorf("Expected 75%%, got %f", rate)
	}
}

func TestRecordRateLimit(t *testing.T) {
	s := newStats()

	s.RecordRateLimit("admitted")
	s.RecordRateLimit("admitted")
	s.RecordRateLimit("rejected")
	s.RecordRateLimit("bypassed")
	s.RecordRateLimit("unknown")

	if s.RateLimitAdmitted.Load() != 2 || s.RateLimitRejected.Load() != 1 || s.RateLimitBypassed.Load() != 1 {
		t.Errorf("Unexpected rate limit counters: %d/%d/%d",
			s.RateLimitAdmitted.Load(), s.RateLimitRejected.Load(), s.RateLimitBypassed.Load())
	}
}

func TestRecordStatusCode(t *testing.T) {
	s := newStats()

	s.RecordStatusCode(200)
	s.RecordStatusCode(206)
	s.RecordStatusCode(404)
	s.RecordStatusCode(502)

	if s.Status2xx.Load() != 2 || s.Status4xx.Load() != 1 || s.Status5xx.Load() != 1 {
		t.Errorf("Unexpected status counters: %d/%d/%d",
			s.Status2xx.Load(), s.Status4xx.Load(), s.Status5xx.Load())
	}
}

func TestResponseTimeTracking(t *testing.T) {
	s := newStats()

	if s.MinResponseTime() != 0 || s.MaxResponseTime() != 0 || s.AvgResponseTime() != 0 {
		t.Error("Expected zero response times before any samples")
	}

	s.RecordResponseTime(10 * time.Millisecond)
	s.RecordResponseTime(30 * time.Millisecond)
	s.RecordResponseTime(20 * time.Millisecond)

	if got := s.MinResponseTime(); got != 10*time.Millisecond {
		t.Errorf("Expected min 10ms, got %v", got)
	}
	if got := s.MaxResponseTime(); got != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", got)
	}
	if got := s.AvgResponseTime(); got != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", got)
	}
}

func TestSnapshotShape(t *testing.T) {
	s := newStats()
	s.RecordRequest("search")
	s.RecordCacheHit()
	s.RecordUpstreamCall()

	snap := s.Snapshot()
	for _, section := range []string{"server", "requests", "cache", "upstream", "rate_limiting", "responses", "response_times"} {
		if _, ok := snap[section]; !ok {
			t.Errorf("Expected snapshot section %q", section)
		}
	}

	requests := snap["requests"].(map[string]interface{})
	if requests["search"].(int64) != 1 {
		t.Errorf("Expected search count in snapshot, got %v", requests["search"])
	}
}
