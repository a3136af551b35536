// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the site packages.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/olegiv/ocms-community/internal/auth"
	"github.com/olegiv/ocms-community/internal/store"
)

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestDB creates a migrated SQLite database in a temporary directory.
// It is closed when the test finishes.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "site-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

// SeededDB returns a TestDB with the default page skeleton.
func SeededDB(t *testing.T) *sql.DB {
	t.Helper()
	db := TestDB(t)
	if err := store.Seed(context.Background(), db, nil); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return db
}

// UserOptions tweaks a user created by CreateUser.
type UserOptions struct {
	Password string
	Inactive bool
	Staff    bool
}

// CreateUser inserts a user directly, bypassing form validation.
func CreateUser(t *testing.T, db *sql.DB, email, phone, iin string, opts UserOptions) store.User {
	t.Helper()

	password := opts.Password
	if password == "" {
		password = "correct-horse-battery"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	now := time.Now().UTC()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		City:         "Almaty",
		Phone:        phone,
		Iin:          iin,
		WorkPlace:    "Clinic",
		Specialty:    "Surgery",
		IsActive:     !opts.Inactive,
		IsStaff:      opts.Staff,
		IsSuperuser:  opts.Staff,
		DateJoined:   now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// PageByType returns the first page of the given type.
func PageByType(t *testing.T, db *sql.DB, pageType string) store.Page {
	t.Helper()
	var id int64
	if err := db.QueryRow("SELECT id FROM pages WHERE page_type = ? ORDER BY id LIMIT 1", pageType).Scan(&id); err != nil {
		t.Fatalf("no %s page: %v", pageType, err)
	}
	p, err := store.New(db).GetPageByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPageByID: %v", err)
	}
	return p
}

// CreateLivePage inserts a published page under parent with the given
// publish time.
func CreateLivePage(t *testing.T, db *sql.DB, parent store.Page, pageType, title, slug string, publishedAt time.Time) store.Page {
	t.Helper()
	publishedAt = publishedAt.UTC().Truncate(time.Second)
	p, err := store.New(db).CreatePage(context.Background(), store.CreatePageParams{
		ParentID:         sql.NullInt64{Int64: parent.ID, Valid: true},
		PageType:         pageType,
		Title:            title,
		Slug:             slug,
		Body:             "[]",
		Live:             true,
		FirstPublishedAt: sql.NullTime{Time: publishedAt, Valid: true},
		LastPublishedAt:  sql.NullTime{Time: publishedAt, Valid: true},
		CreatedAt:        publishedAt,
		UpdatedAt:        publishedAt,
	})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	return p
}
