// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(2)
	defer l.Close()

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method, addr string) int {
		req := httptest.NewRequest(method, "/users/register", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(http.MethodPost, "10.0.0.1:5000"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, code)
		}
	}
	if code := do(http.MethodPost, "10.0.0.1:5001"); code != http.StatusTooManyRequests {
		t.Errorf("over limit: status = %d, want 429", code)
	}
	if code := do(http.MethodGet, "10.0.0.1:5002"); code != http.StatusOK {
		t.Errorf("GET is not limited: status = %d", code)
	}
	if code := do(http.MethodPost, "10.0.0.2:5000"); code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", code)
	}
}

func TestLimiterCache_ClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	lc.get("a")
	lc.get("b")
	if lc.clearIfExceeds(2) {
		t.Error("cleared at the limit")
	}
	lc.get("c")
	if !lc.clearIfExceeds(2) {
		t.Error("not cleared above the limit")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("limiters = %d after clear", len(lc.limiters))
	}
}

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"192.0.2.1:1234": "192.0.2.1",
		"[::1]:80":       "::1",
		"192.0.2.9":      "192.0.2.9",
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		if got := ClientIP(req); got != want {
			t.Errorf("ClientIP(%q) = %q, want %q", addr, got, want)
		}
	}
}
