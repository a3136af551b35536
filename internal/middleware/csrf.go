package middleware

import (
	"log/slog"
	"net/http"

	"filippo.io/csrf/gorilla"
)

// CSRFConfig holds configuration for CSRF protection.
// filippo.io/csrf/gorilla checks Fetch metadata headers rather than a
// cookie token, so only the key, error handler and trusted origins matter.
type CSRFConfig struct {
	// AuthKey is a 32-byte key. The session secret is reused.
	AuthKey []byte

	// ErrorHandler is called when CSRF validation fails.
	ErrorHandler http.Handler

	// TrustedOrigins are host[:port] values allowed to post cross-origin.
	TrustedOrigins []string
}

// DefaultCSRFConfig trusts the listen address in development so forms work
// when the site is opened by IP or through a port forward.
func DefaultCSRFConfig(authKey []byte, isDev bool, addr string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev && addr != "" {
		cfg.TrustedOrigins = []string{addr}
	}
	return cfg
}

// CSRF returns a middleware that rejects cross-site form posts.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	handler := cfg.ErrorHandler
	if handler == nil {
		handler = http.HandlerFunc(csrfErrorHandler)
	}
	opts := []csrf.Option{csrf.ErrorHandler(logCSRFFailure(handler))}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func logCSRFFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reason := "unknown"
		if err := csrf.FailureReason(r); err != nil {
			reason = err.Error()
		}
		slog.Warn("CSRF validation failed",
			"reason", reason,
			"method", r.Method,
			"path", r.URL.Path,
			"origin", r.Header.Get("Origin"),
			"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
		)
		next.ServeHTTP(w, r)
	})
}

func csrfErrorHandler(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Forbidden - CSRF validation failed", http.StatusForbidden)
}
