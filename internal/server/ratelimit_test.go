package server

import (
	"net/http"
	"testing"
	"time"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)

	for i := 0; i < 5; i++ {
		if !rl.allow("203.0.113.1") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		rl.allow("203.0.113.2")
	}
	if rl.allow("203.0.113.2") {
		t.Error("Fourth request should be blocked")
	}
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	if !rl.allow("203.0.113.3") {
		t.Fatal("First IP should be allowed")
	}
	if !rl.allow("203.0.113.4") {
		t.Error("Different IP must have its own budget")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	rl := newRateLimiter(1, 50*time.Millisecond)

	if !rl.allow("203.0.113.5") {
		t.Fatal("First request should be allowed")
	}
	if rl.allow("203.0.113.5") {
		t.Fatal("Second request inside window should be blocked")
	}

	time.Sleep(80 * time.Millisecond)

	if !rl.allow("203.0.113.5") {
		t.Error("Request after window expiry should be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"remote addr", "192.0.2.1:5000", "", "", "192.0.2.1"},
		{"forwarded for", "192.0.2.1:5000", "203.0.113.9", "", "203.0.113.9"},
		{"forwarded list", "192.0.2.1:5000", "203.0.113.9, 10.0.0.1", "", "203.0.113.9"},
		{"real ip", "192.0.2.1:5000", "", "203.0.113.10", "203.0.113.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}

			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
