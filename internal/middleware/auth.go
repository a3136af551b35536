// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyUser     ContextKey = "user"
	ContextKeyLanguage ContextKey = "language"
)

// SessionKeyUserID holds the id of the logged-in user.
const SessionKeyUserID = "user_id"

// LoginPath is where RequireUser sends anonymous visitors.
const LoginPath = "/users/login"

// LoadUser puts the session's user into the request context. A session
// pointing at a missing or deactivated user is dropped.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), SessionKeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserByID(r.Context(), userID)
			switch {
			case err == nil && user.IsActive:
				ctx := context.WithValue(r.Context(), ContextKeyUser, user)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			case err == nil, errors.Is(err, sql.ErrNoRows):
				sm.Remove(r.Context(), SessionKeyUserID)
			default:
				slog.Error("failed to load session user", "user_id", userID, "error", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// RequireUser redirects anonymous visitors to the login page, passing the
// requested URL in ?next=.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r) == nil {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL builds the login URL with a return path.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local path, otherwise "/".
func SafeNext(next string) string {
	if next == "" || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}

// RequireStaff allows only staff users. Anonymous visitors go to the login
// page; logged-in non-staff users get 403. The warning reaches the event
// log through the logging handler.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r)
		if user == nil {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		if !user.IsStaff {
			slog.Warn("access denied",
				"status", http.StatusForbidden,
				"method", r.Method,
				"path", r.URL.Path,
				"user_id", user.ID,
				"remote_addr", r.RemoteAddr,
				"category", model.EventCategoryAuth,
			)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
