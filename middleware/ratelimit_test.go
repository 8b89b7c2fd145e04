package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewSlidingWindowLimiter tests the creation of a limiter.
func TestNewSlidingWindowLimiter(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 10, Window: time.Minute})
	if l == nil {
		t.Fatal("Expected limiter to be created, got nil")
	}
	if l.Policy().Limit != 10 {
		t.Errorf("Expected limit 10, got %d", l.Policy().Limit)
	}
	if l.Policy().Window != time.Minute {
		t.Errorf("Expected window 1m, got %v", l.Policy().Window)
	}
}

// TestAllowUpToLimit tests that exactly Limit requests are admitted
// within one window and the next is rejected.
func TestAllowUpToLimit(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 5, Window: time.Minute})
	identity := "192.168.1.1"

	for i := 0; i < 5; i++ {
		if !l.Allow(identity) {
			t.Fatalf("Expected request %d to be admitted", i+1)
		}
	}

	if l.Allow(identity) {
		t.Error("Expected request over the limit to be rejected")
	}
}

// TestWindowSlides tests that requests are admitted again once the
// earliest timestamps age out of the window.
func TestWindowSlides(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 2, Window: time.Minute})
	identity := "192.168.1.1"

	base := time.Now()
	if !l.allowAt(identity, base) {
		t.Fatal("Expected first request to be admitted")
	}
	if !l.allowAt(identity, base.Add(time.Second)) {
		t.Fatal("Expected second request to be admitted")
	}
	if l.allowAt(identity, base.Add(2*time.Second)) {
		t.Fatal("Expected third request within window to be rejected")
	}

	// Past the window from the earliest request, a slot frees up
	if !l.allowAt(identity, base.Add(time.Minute+time.Second)) {
		t.Error("Expected request to be admitted after window slid past the earliest timestamp")
	}
}

// TestIdentitiesAreIndependent tests that one identity exhausting its
// window does not affect another.
func TestIdentitiesAreIndependent(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 1, Window: time.Minute})

	if !l.Allow("10.0.0.1") {
		t.Fatal("Expected first identity to be admitted")
	}
	if l.Allow("10.0.0.1") {
		t.Error("Expected first identity to be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("Expected second identity to be admitted independently")
	}
}

// TestRemaining tests the remaining-request count.
func TestRemaining(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 3, Window: time.Minute})
	identity := "10.0.0.9"

	if got := l.Remaining(identity); got != 3 {
		t.Errorf("Expected 3 remaining initially, got %d", got)
	}
	l.Allow(identity)
	l.Allow(identity)
	if got := l.Remaining(identity); got != 1 {
		t.Errorf("Expected 1 remaining after two requests, got %d", got)
	}
	l.Allow(identity)
	l.Allow(identity) // rejected, not recorded
	if got := l.Remaining(identity); got != 0 {
		t.Errorf("Expected 0 remaining at limit, got %d", got)
	}
}

// TestRejectedRequestsAreNotRecorded tests that denials do not extend
// the penalty: only admitted requests occupy window slots.
func TestRejectedRequestsAreNotRecorded(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 1, Window: time.Minute})
	identity := "10.0.0.3"

	base := time.Now()
	l.allowAt(identity, base)
	for i := 0; i < 10; i++ {
		l.allowAt(identity, base.Add(time.Duration(i)*time.Second))
	}

	if !l.allowAt(identity, base.Add(time.Minute+time.Second)) {
		t.Error("Expected admission once the single recorded timestamp aged out")
	}
}

// TestPrune tests that idle identities are dropped.
func TestPrune(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 5, Window: 10 * time.Millisecond})

	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")
	time.Sleep(20 * time.Millisecond)
	l.Allow("10.0.0.3")

	if pruned := l.Prune(); pruned != 2 {
		t.Errorf("Expected 2 identities pruned, got %d", pruned)
	}
}

// TestConcurrentBurstDoesNotOvershoot tests that a concurrent burst for
// one identity never admits more than the limit.
func TestConcurrentBurstDoesNotOvershoot(t *testing.T) {
	l := NewSlidingWindowLimiter(Policy{Limit: 50, Window: time.Minute})
	identity := "10.0.0.7"

	admitted := make(chan bool, 200)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			for j := 0; j < 50; j++ {
				admitted <- l.Allow(identity)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("Expected exactly 50 admissions under concurrent burst, got %d", count)
	}
}

// TestClientIP tests identity derivation from forwarded headers.
func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{"Direct peer", "203.0.113.5:4312", "", "203.0.113.5"},
		{"Forwarded single", "10.0.0.1:80", "198.51.100.7", "198.51.100.7"},
		{"Forwarded chain takes first", "10.0.0.1:80", "198.51.100.7, 10.0.0.2, 10.0.0.3", "198.51.100.7"},
		{"Forwarded with spaces", "10.0.0.1:80", "  198.51.100.7 ,10.0.0.2", "198.51.100.7"},
		{"Peer without port", "203.0.113.5", "", "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/search", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(r); got != tt.expected {
				t.Errorf("Expected identity %q, got %q", tt.expected, got)
			}
		})
	}
}
