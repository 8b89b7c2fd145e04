package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Policy defines a sliding-window admission policy.
type Policy struct {
	Limit  int           // maximum requests per window
	Window time.Duration // trailing window length
}

// window holds the request timestamps for one client identity. Updates
// are serialized per identity so concurrent bursts cannot undercount.
type window struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// SlidingWindowLimiter admits or rejects requests by counting the
// timestamps a client identity accumulated within the trailing window.
type SlidingWindowLimiter struct {
	mu      sync.RWMutex
	clients map[string]*window
	policy  Policy
}

// NewSlidingWindowLimiter creates a limiter for the given policy.
func NewSlidingWindowLimiter(policy Policy) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		clients: make(map[string]*window),
		policy:  policy,
	}
}

// Policy returns the limiter's policy.
func (l *SlidingWindowLimiter) Policy() Policy {
	return l.policy
}

func (l *SlidingWindowLimiter) getWindow(identity string) *window {
	l.mu.RLock()
	w, ok := l.clients[identity]
	l.mu.RUnlock()
	if ok {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok = l.clients[identity]; ok {
		return w
	}
	w = &window{}
	l.clients[identity] = w
	return w
}

// Allow records a request for identity and reports whether it is
// admitted under the policy.
func (l *SlidingWindowLimiter) Allow(identity string) bool {
	return l.allowAt(identity, time.Now())
}

func (l *SlidingWindowLimiter) allowAt(identity string, now time.Time) bool {
	w := l.getWindow(identity)

	w.mu.Lock()
	defer w.mu.Unlock()

	// Drop timestamps that fell out of the trailing window
	cutoff := now.Add(-l.policy.Window)
	live := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}
	w.timestamps = live

	if len(w.timestamps) >= l.policy.Limit {
		return false
	}

	w.timestamps = append(w.timestamps, now)
	return true
}

// Remaining returns how many requests identity has left in the current
// window.
func (l *SlidingWindowLimiter) Remaining(identity string) int {
	w := l.getWindow(identity)

	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-l.policy.Window)
	count := 0
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	remaining := l.policy.Limit - count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Prune drops identities whose newest timestamp is older than the
// window, bounding memory on long-running processes.
func (l *SlidingWindowLimiter) Prune() int {
	cutoff := time.Now().Add(-l.policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	pruned := 0
	for identity, w := range l.clients {
		w.mu.Lock()
		idle := len(w.timestamps) == 0 || !w.timestamps[len(w.timestamps)-1].After(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.clients, identity)
			pruned++
		}
	}
	return pruned
}

// ClientIP derives the client network identity from a request: the
// first entry of X-Forwarded-For when present, else the peer address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
