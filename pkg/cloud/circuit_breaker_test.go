package cloud

import (
	"testing"
	"time"
)

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
	}
	if cb.State() != CircuitClosed {
		t.Fatalf("state = %s before threshold, want closed", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s after threshold, want open", cb.State())
	}

	allowed, err := cb.Allow()
	if allowed || err == nil {
		t.Error("open breaker must reject requests with an error")
	}
}

func TestCircuitBreakerSuccessResets(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Minute})

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()

	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want closed (success resets the count)", cb.State())
	}
}

func TestCircuitBreakerHalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: time.Millisecond})

	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	time.Sleep(5 * time.Millisecond)

	allowed, err := cb.Allow()
	if !allowed || err != nil {
		t.Fatalf("Allow() after reset window = (%v, %v), want probe allowed", allowed, err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.State())
	}

	// A second caller during the probe is rejected.
	if allowed, _ := cb.Allow(); allowed {
		t.Error("half-open breaker must allow only one probe")
	}

	// Probe failure re-opens; probe success closes.
	cb.RecordFailure()
	if cb.State() != CircuitOpen {
		t.Errorf("state after failed probe = %s, want open", cb.State())
	}

	cb.RecordSuccess()
	if cb.State() != CircuitClosed {
		t.Errorf("state after successful probe = %s, want closed", cb.State())
	}
}
