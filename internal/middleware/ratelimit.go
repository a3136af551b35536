// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/olegiv/ocms-community/internal/i18n"
)

// limiterCache is a generic rate limiter cache with double-check locking.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](limit rate.Limit, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     limit,
		burst:    burst,
	}
}

// get returns the rate limiter for a specific key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// clearIfExceeds clears all entries if the cache exceeds maxSize.
func (lc *limiterCache[K]) clearIfExceeds(maxSize int) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if len(lc.limiters) > maxSize {
		lc.limiters = make(map[K]*rate.Limiter)
		return true
	}
	return false
}

// maxTrackedIPs bounds the limiter map between resets.
const maxTrackedIPs = 10000

// IPRateLimiter throttles POST requests per client IP.
type IPRateLimiter struct {
	cache *limiterCache[string]
	stop  chan struct{}
	once  sync.Once
}

// NewIPRateLimiter allows perMinute POSTs per IP with a burst of the same size.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	l := &IPRateLimiter{
		cache: newLimiterCache[string](rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		stop:  make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Close stops the background cleanup.
func (l *IPRateLimiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *IPRateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if l.cache.clearIfExceeds(maxTrackedIPs) {
				slog.Info("cleared IP rate limiters due to size")
			}
		case <-l.stop:
			return
		}
	}
}

// Allow reports whether a request from ip may proceed.
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.cache.get(ip).Allow()
}

// Middleware rejects POSTs over the limit with 429. Other methods pass.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		ip := ClientIP(r)
		if !l.Allow(ip) {
			slog.Warn("form rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, i18n.T(GetLanguage(r), "error.rate_limited"), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware
// has already applied X-Forwarded-For when the site runs behind a proxy.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
