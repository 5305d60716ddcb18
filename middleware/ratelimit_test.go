// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func doRequest(h http.HandlerFunc, ip string) int {
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	h(w, req)
	return w.Code
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, "salt")
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Limit(okHandler)

	for i := 0; i < 3; i++ {
		if code := doRequest(h, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := doRequest(h, "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 after burst, got %d", code)
	}
	if code := doRequest(h, "10.0.0.2"); code != http.StatusOK {
		t.Errorf("Other clients are limited separately, got %d", code)
	}

	// one token refills every 20 seconds at 3 per minute
	now = now.Add(21 * time.Second)
	if code := doRequest(h, "10.0.0.1"); code != http.StatusOK {
		t.Errorf("Expected a refilled token, got %d", code)
	}

	if rl.Clients() != 2 {
		t.Errorf("Expected 2 tracked clients, got %d", rl.Clients())
	}
	now = now.Add(time.Hour)
	doRequest(h, "10.0.0.3")
	if rl.Clients() != 1 {
		t.Errorf("Idle clients should be dropped, got %d", rl.Clients())
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	h := NewRateLimiter(0, "salt").Limit(okHandler)
	for i := 0; i < 100; i++ {
		if code := doRequest(h, "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("Disabled limiter rejected request %d", i)
		}
	}
}

func TestRateLimiterRetryAfter(t *testing.T) {
	rl := NewRateLimiter(1, "salt")
	h := rl.Limit(okHandler)
	doRequest(h, "10.0.0.9")

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:1"
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", w.Header().Get("Retry-After"))
	}
}
