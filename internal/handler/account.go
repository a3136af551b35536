// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// AccountHandler serves the logged-in user's own profile and account pages.
// All routes sit behind middleware.RequireUser.
type AccountHandler struct {
	accounts *service.AccountService
	renderer *render.Renderer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, renderer *render.Renderer) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		renderer: renderer,
	}
}

// currentUser re-reads the logged-in user from the store.
func (h *AccountHandler) currentUser(w http.ResponseWriter, r *http.Request) (store.User, bool) {
	user, err := h.accounts.GetUser(r.Context(), middleware.GetUserID(r))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			http.Redirect(w, r, middleware.LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return store.User{}, false
		}
		logAndInternalError(w, r, "failed to load user", "error", err)
		return store.User{}, false
	}
	return user, true
}

// Profile renders the combined profile view and edit form.
func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplProfile, render.TemplateData{
		Title: tr(r, "account.title.profile"),
		Data:  user,
		Form:  userForm(user),
	})
}

// ProfileUpdate saves the profile form and redirects back to it.
func (h *AccountHandler) ProfileUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !h.save(w, r, user, tmplProfile, "account.title.profile") {
		return
	}
	flashSuccess(w, r, h.renderer, RouteProfile, "account.notice.profile_saved")
}

// Account renders the read-only account details.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAccount, render.TemplateData{
		Title: tr(r, "account.title.details"),
		Data:  user,
	})
}

// AccountEdit renders the account edit form.
func (h *AccountHandler) AccountEdit(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAccountEdit, render.TemplateData{
		Title: tr(r, "account.title.edit"),
		Data:  user,
		Form:  userForm(user),
	})
}

// AccountUpdate saves the edit form and renders the refreshed details.
func (h *AccountHandler) AccountUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !h.save(w, r, user, tmplAccountEdit, "account.title.edit") {
		return
	}

	refreshed, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAccount, render.TemplateData{
		Title:     tr(r, "account.title.details"),
		Data:      refreshed,
		Flash:     tr(r, "account.notice.profile_saved"),
		FlashType: render.FlashSuccess,
	})
}

// AccountUpdateRedirect sends GET requests for the update endpoint to the profile.
func (h *AccountHandler) AccountUpdateRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RouteProfile, http.StatusFound)
}

// save validates and stores the submitted profile. On a validation error it
// re-renders tmpl with the errors and returns false. Email and IIN are
// never taken from the form.
func (h *AccountHandler) save(w http.ResponseWriter, r *http.Request, user store.User, tmpl, titleKey string) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}

	_, err := h.accounts.UpdateProfile(r.Context(), user.ID, profileInput(r))
	if err == nil {
		return true
	}

	errs, ok := validationErrors(err)
	if !ok {
		logAndInternalError(w, r, "failed to update profile", "user_id", user.ID, "error", err)
		return false
	}

	form := formValues(r, profileFields...)
	form[model.FieldEmail] = user.Email
	form[model.FieldIin] = user.Iin
	renderPage(w, r, h.renderer, http.StatusOK, tmpl, render.TemplateData{
		Title:  tr(r, titleKey),
		Data:   user,
		Form:   form,
		Errors: translateErrors(middleware.GetLanguage(r), errs),
		Notice: tr(r, "account.notice.fix_errors"),
	})
	return false
}
