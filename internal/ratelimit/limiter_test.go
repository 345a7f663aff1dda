package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	limiter := NewKeyedLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("call past the limit should be rejected")
	}
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter := NewKeyedLimiter(1, time.Minute)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first caller should be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("first caller should be exhausted")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Error("a different caller has its own budget")
	}
}

func TestAllowWindowResets(t *testing.T) {
	limiter := NewKeyedLimiter(1, 20*time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first call should be allowed")
	}
	if limiter.Allow("10.0.0.1") {
		t.Error("second call in the window should be rejected")
	}

	time.Sleep(30 * time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Error("budget should reset after the window passes")
	}
}
