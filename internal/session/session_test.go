// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/olegiv/ocms-community/internal/store"
)

func TestNew_Cookie(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "session-*.db")
	if err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	db, err := store.NewDB(f.Name())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	tests := []struct {
		name   string
		isDev  bool
		secure bool
	}{
		{"development", true, false},
		{"production", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := New(db, tt.isDev)
			if sm.Cookie.Secure != tt.secure {
				t.Errorf("Cookie.Secure = %v, want %v", sm.Cookie.Secure, tt.secure)
			}
			if !sm.Cookie.HttpOnly {
				t.Error("Cookie.HttpOnly = false")
			}
			if sm.Cookie.SameSite != http.SameSiteLaxMode {
				t.Errorf("Cookie.SameSite = %v, want Lax", sm.Cookie.SameSite)
			}
			if sm.Cookie.Name != CookieName {
				t.Errorf("Cookie.Name = %q, want %q", sm.Cookie.Name, CookieName)
			}
			if sm.Lifetime != Lifetime {
				t.Errorf("Lifetime = %v, want %v", sm.Lifetime, Lifetime)
			}
		})
	}

	// Round trip through the SQLite store.
	sm := New(db, true)
	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), "user_id", int64(42))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	ctx, err := sm.Load(context.Background(), cookies[0].Value)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := sm.GetInt64(ctx, "user_id"); got != 42 {
		t.Errorf("user_id = %d, want 42", got)
	}
}
