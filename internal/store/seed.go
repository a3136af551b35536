// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-community/internal/auth"
	"github.com/olegiv/ocms-community/internal/model"
)

// SeedAdmin holds the superuser created by Seed when set.
type SeedAdmin struct {
	Email    string
	Password string
	Phone    string
	Iin      string
}

type seedPage struct {
	pageType model.PageType
	title    string
	slug     string
}

// skeleton is the page tree every site starts with.
var skeleton = []seedPage{
	{model.PageTypeAbout, "О нас", "about"},
	{model.PageTypeEventIndex, "Мероприятия", "events"},
	{model.PageTypeNewsIndex, "Новости", "news"},
	{model.PageTypePodcastIndex, "Подкасты", "podcasts"},
	{model.PageTypeCourseIndex, "Курсы", "courses"},
}

// Seed creates the live home page with its singleton children and, when
// admin is non-nil, a superuser. Existing rows are left alone.
func Seed(ctx context.Context, db *sql.DB, admin *SeedAdmin) error {
	if err := seedPages(ctx, db); err != nil {
		return err
	}
	if admin != nil {
		if err := seedAdmin(ctx, New(db), *admin); err != nil {
			return err
		}
	}
	return nil
}

func seedPages(ctx context.Context, db *sql.DB) error {
	queries := New(db)
	if _, err := queries.GetRootPage(ctx); err == nil {
		slog.Info("home page already exists, skipping page seed")
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for home page: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	published := sql.NullTime{Time: now, Valid: true}

	return InTx(ctx, db, func(q *Queries) error {
		home, err := q.CreatePage(ctx, CreatePageParams{
			PageType:         string(model.PageTypeHome),
			Title:            "Главная",
			Slug:             "home",
			Body:             "[]",
			Live:             true,
			FirstPublishedAt: published,
			LastPublishedAt:  published,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return fmt.Errorf("creating home page: %w", err)
		}

		for _, sp := range skeleton {
			if _, err := q.CreatePage(ctx, CreatePageParams{
				ParentID:         sql.NullInt64{Int64: home.ID, Valid: true},
				PageType:         string(sp.pageType),
				Title:            sp.title,
				Slug:             sp.slug,
				Body:             "[]",
				Live:             true,
				FirstPublishedAt: published,
				LastPublishedAt:  published,
				CreatedAt:        now,
				UpdatedAt:        now,
			}); err != nil {
				return fmt.Errorf("creating %s page: %w", sp.pageType, err)
			}
		}

		slog.Info("seeded page tree", "home_id", home.ID, "children", len(skeleton))
		return nil
	})
}

func seedAdmin(ctx context.Context, queries *Queries, admin SeedAdmin) error {
	email := auth.NormalizeEmail(admin.Email)
	if email == "" {
		return errors.New("seeding superuser: email must be set")
	}

	_, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		slog.Info("superuser already exists, skipping seed", "email", email)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for superuser: %w", err)
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Admin",
		LastName:     "Admin",
		City:         "-",
		Phone:        admin.Phone,
		Iin:          admin.Iin,
		WorkPlace:    "-",
		Specialty:    "-",
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
		DateJoined:   now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating superuser: %w", err)
	}

	slog.Info("created superuser", "id", user.ID, "email", user.Email)
	return nil
}
