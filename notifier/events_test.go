package notifier

import (
	"sync"
	"testing"
	"time"
)

func TestNewEventWithData(t *testing.T) {
	event := NewEvent(EventCircuitBreakerOpen, SeverityCritical, "breaker opened").
		WithData("name", "upstream").
		WithData("failures", 5)

	if event.Type != EventCircuitBreakerOpen || event.Severity != SeverityCritical {
		t.Errorf("Unexpected event: %+v", event)
	}
	if event.Data["name"] != "upstream" || event.Data["failures"] != 5 {
		t.Errorf("Unexpected event data: %v", event.Data)
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestEventBusSubscribe(t *testing.T) {
	bus := &EventBus{handlers: make(map[EventType][]EventHandler)}

	var mu sync.Mutex
	var received []*Event
	done := make(chan struct{}, 2)

	bus.Subscribe(EventCacheCleared, func(e *Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
		done <- struct{}{}
	})

	bus.Publish(NewEvent(EventCacheCleared, SeverityInfo, "cleared"))
	bus.Publish(NewEvent(EventServerStarted, SeverityInfo, "started")) // not subscribed

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for handler")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 || received[0].Type != EventCacheCleared {
		t.Errorf("Expected exactly the subscribed event, got %+v", received)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := &EventBus{handlers: make(map[EventType][]EventHandler)}

	done := make(chan EventType, 2)
	bus.SubscribeAll(func(e *Event) {
		done <- e.Type
	})

	bus.Publish(NewEvent(EventCacheCleared, SeverityInfo, "cleared"))
	bus.Publish(NewEvent(EventHighFailureRate, SeverityWarning, "failures"))

	got := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case et := <-done:
			got[et] = true
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for handlers")
		}
	}
	if !got[EventCacheCleared] || !got[EventHighFailureRate] {
		t.Errorf("Expected both events, got %v", got)
	}
}
