// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// UsersHandler handles the user admin.
type UsersHandler struct {
	accounts *service.AccountService
	renderer *render.Renderer
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(accounts *service.AccountService, renderer *render.Renderer) *UsersHandler {
	return &UsersHandler{
		accounts: accounts,
		renderer: renderer,
	}
}

// UsersListData is the template data of the user list.
type UsersListData struct {
	Users      []store.User
	Pagination Pagination
}

// List renders all accounts, newest first.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, pagination, err := listAdminPage(r, func(limit, offset int) ([]store.User, int64, error) {
		return h.accounts.ListUsers(r.Context(), limit, offset)
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list users", "error", err)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminUsers, render.TemplateData{
		Title: tr(r, "admin.users"),
		Data:  UsersListData{Users: users, Pagination: pagination},
	})
}

// SetActive activates or deactivates an account from the "active" form field.
// Staff cannot deactivate themselves.
func (h *UsersHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminUsers, "error.not_found")
		return
	}
	active := r.PostFormValue("active") == "1"
	if !active && id == middleware.GetUserID(r) {
		flashError(w, r, h.renderer, RouteAdminUsers, "admin.user.error.self")
		return
	}

	if err := h.accounts.SetActive(r.Context(), id, active); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			flashError(w, r, h.renderer, RouteAdminUsers, "error.not_found")
			return
		}
		logAndInternalError(w, r, "failed to update user", "user_id", id, "error", err)
		return
	}

	slog.Info("user activation changed", "target_user_id", id, "active", active,
		"user_id", middleware.GetUserID(r), "category", model.EventCategoryUser)
	flashSuccess(w, r, h.renderer, RouteAdminUsers, "admin.user.updated")
}
