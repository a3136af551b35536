package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultCSRFConfig(t *testing.T) {
	key := []byte("12345678901234567890123456789012")

	dev := DefaultCSRFConfig(key, true, "localhost:8080")
	if len(dev.TrustedOrigins) != 1 || dev.TrustedOrigins[0] != "localhost:8080" {
		t.Errorf("dev TrustedOrigins = %v", dev.TrustedOrigins)
	}

	prod := DefaultCSRFConfig(key, false, "localhost:8080")
	if len(prod.TrustedOrigins) != 0 {
		t.Errorf("prod TrustedOrigins = %v, want none", prod.TrustedOrigins)
	}
}

func TestCSRF(t *testing.T) {
	key := []byte("12345678901234567890123456789012")
	h := CSRF(DefaultCSRFConfig(key, false, ""))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		site   string
		want   int
	}{
		{"safe method", http.MethodGet, "cross-site", http.StatusOK},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/users/login", nil)
			req.Header.Set("Sec-Fetch-Site", tt.site)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
