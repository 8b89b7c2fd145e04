package circuitbreaker

import (
	"testing"
	"time"
)

func TestStartsClosed(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 3, Cooldown: time.Minute})

	if cb.State() != StateClosed {
		t.Errorf("Expected initial state CLOSED, got %v", cb.State())
	}
	if !cb.Allow() {
		t.Error("Expected requests to be allowed while closed")
	}
}

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 3, Cooldown: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Fatalf("Expected state CLOSED below threshold, got %v", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("Expected state OPEN at threshold, got %v", cb.State())
	}
	if cb.Allow() {
		t.Error("Expected requests to be blocked while open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 3, Cooldown: time.Minute})

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.State() != StateClosed {
		t.Errorf("Expected state CLOSED after intervening success, got %v", cb.State())
	}
}

func TestHalfOpenProbeAfterCooldown(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 1, Cooldown: 20 * time.Millisecond})

	cb.RecordFailure()
	if cb.Allow() {
		t.Fatal("Expected block immediately after opening")
	}

	time.Sleep(30 * time.Millisecond)

	// First request after cooldown is the probe
	if !cb.Allow() {
		t.Fatal("Expected probe request to be allowed after cooldown")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("Expected state HALF-OPEN, got %v", cb.State())
	}

	// Concurrent requests are blocked while the probe is in flight
	if cb.Allow() {
		t.Error("Expected second request to be blocked in half-open state")
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("Expected state CLOSED after probe success, got %v", cb.State())
	}
}

func TestHalfOpenProbeFailureReopens(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 1, Cooldown: 20 * time.Millisecond})

	cb.RecordFailure()
	time.Sleep(30 * time.Millisecond)

	if !cb.Allow() {
		t.Fatal("Expected probe to be allowed")
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Errorf("Expected state OPEN after probe failure, got %v", cb.State())
	}
}

func TestReset(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 1, Cooldown: time.Hour})

	cb.RecordFailure()
	if !cb.IsOpen() {
		t.Fatal("Expected circuit to be open")
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("Expected state CLOSED after reset, got %v", cb.State())
	}
	if !cb.Allow() {
		t.Error("Expected requests to be allowed after reset")
	}
}

func TestTimeUntilRetry(t *testing.T) {
	cb := New(Config{Name: "upstream", Threshold: 1, Cooldown: time.Hour})

	if cb.TimeUntilRetry() != 0 {
		t.Error("Expected 0 retry delay while closed")
	}

	cb.RecordFailure()
	if cb.TimeUntilRetry() <= 0 {
		t.Error("Expected positive retry delay while open")
	}
}

func TestDefaults(t *testing.T) {
	cb := New(Config{})

	if cb.Threshold() != 5 {
		t.Errorf("Expected default threshold 5, got %d", cb.Threshold())
	}
	state, failures, _ := cb.Stats()
	if state != StateClosed || failures != 0 {
		t.Errorf("Expected fresh stats, got state=%v failures=%d", state, failures)
	}
}
