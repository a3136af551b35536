// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager backed by SQLite.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// CookieName is the session cookie name.
const CookieName = "site_session"

// Lifetime is the absolute lifetime of a session.
const Lifetime = 14 * 24 * time.Hour

// New creates a session manager that stores sessions in the sessions table.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)
	configure(sm, isDev)
	return sm
}

func configure(sm *scs.SessionManager, isDev bool) {
	sm.Lifetime = Lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev // Secure cookies in production only
}
