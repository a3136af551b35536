// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSecurityHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("production", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(DefaultSecurityHeadersConfig(false, "https://media.example.com"))(ok).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		h := rr.Header()
		if got := h.Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
			t.Errorf("HSTS = %q", got)
		}
		if got := h.Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("X-Content-Type-Options = %q", got)
		}
		if got := h.Get("X-Frame-Options"); got != "SAMEORIGIN" {
			t.Errorf("X-Frame-Options = %q", got)
		}
		csp := h.Get("Content-Security-Policy")
		if !strings.HasPrefix(csp, "default-src 'self'; ") {
			t.Errorf("CSP order: %q", csp)
		}
		for _, want := range []string{"img-src 'self' data: https://media.example.com", "https://www.youtube-nocookie.com", "object-src 'none'"} {
			if !strings.Contains(csp, want) {
				t.Errorf("CSP missing %q: %q", want, csp)
			}
		}
	})

	t.Run("development has no HSTS", func(t *testing.T) {
		rr := httptest.NewRecorder()
		SecurityHeaders(DefaultSecurityHeadersConfig(true, ""))(ok).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
			t.Errorf("HSTS in development = %q", got)
		}
		if !strings.Contains(rr.Header().Get("Content-Security-Policy"), "img-src 'self' data:;") {
			t.Errorf("CSP = %q", rr.Header().Get("Content-Security-Policy"))
		}
	})
}

func TestStaticCache(t *testing.T) {
	rr := httptest.NewRecorder()
	StaticCache(24*time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/site.css", nil))
	if got := rr.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestStripTrailingSlash(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		method   string
		target   string
		wantCode int
		wantLoc  string
	}{
		{http.MethodGet, "/", http.StatusOK, ""},
		{http.MethodGet, "/news", http.StatusOK, ""},
		{http.MethodGet, "/news/", http.StatusMovedPermanently, "/news"},
		{http.MethodGet, "/news/?page=2", http.StatusMovedPermanently, "/news?page=2"},
		{http.MethodGet, "//evil.example.com/", http.StatusMovedPermanently, "/evil.example.com"},
		{http.MethodPost, "/users/login/", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := httptest.NewRecorder()
			StripTrailingSlash(ok).ServeHTTP(rr, httptest.NewRequest(tt.method, tt.target, nil))
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if got := rr.Header().Get("Location"); got != tt.wantLoc {
				t.Errorf("Location = %q, want %q", got, tt.wantLoc)
			}
		})
	}
}
