package session

import (
	"testing"
	"time"
)

func TestReconnectPolicy_BackoffGrowth(t *testing.T) {
	p := NewReconnectPolicy(time.Second, 30*time.Second, 0)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}

	for i, expected := range want {
		delay, ok := p.Fail()
		if !ok {
			t.Fatalf("attempt %d: unexpectedly exhausted", i+1)
		}
		if delay != expected {
			t.Errorf("attempt %d: delay = %s, want %s", i+1, delay, expected)
		}
	}
}

func TestReconnectPolicy_Exhaustion(t *testing.T) {
	p := NewReconnectPolicy(time.Millisecond, 10*time.Millisecond, 5)

	for i := 1; i <= 4; i++ {
		if _, ok := p.Fail(); !ok {
			t.Fatalf("failure %d should still allow a retry", i)
		}
	}

	// Fifth consecutive failure exhausts the policy.
	if _, ok := p.Fail(); ok {
		t.Error("failure 5 with maxAttempts=5 should exhaust")
	}
	if p.Attempt() != 5 {
		t.Errorf("Attempt = %d, want 5", p.Attempt())
	}
}

func TestReconnectPolicy_Reset(t *testing.T) {
	p := NewReconnectPolicy(time.Second, 30*time.Second, 5)

	p.Fail()
	p.Fail()
	p.Fail()
	p.Reset()

	if p.Attempt() != 0 {
		t.Errorf("Attempt = %d after Reset, want 0", p.Attempt())
	}
	delay, ok := p.Fail()
	if !ok || delay != time.Second {
		t.Errorf("first delay after Reset = %s (ok=%v), want 1s", delay, ok)
	}
}

func TestReconnectPolicy_UnlimitedAttempts(t *testing.T) {
	p := NewReconnectPolicy(time.Millisecond, 4*time.Millisecond, 0)

	for i := 0; i < 100; i++ {
		if _, ok := p.Fail(); !ok {
			t.Fatalf("maxAttempts=0 should never exhaust (failed at %d)", i+1)
		}
	}
}
