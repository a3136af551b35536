// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	accounts       *service.AccountService
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService, renderer *render.Renderer, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		accounts:       accounts,
		renderer:       renderer,
		sessionManager: sm,
	}
}

var registerFields = append([]string{model.FieldEmail, model.FieldIin}, profileFields...)

// RegisterForm renders the sign-up page. Logged-in users go to the homepage.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplRegister, render.TemplateData{
		Title: tr(r, "account.title.register"),
		Form:  map[string]string{},
	})
}

// Register handles the sign-up form. A valid submission creates an active
// account and logs it in; an invalid one redisplays the form with errors.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	user, err := h.accounts.Register(r.Context(), service.RegistrationInput{
		ProfileInput: profileInput(r),
		Email:        r.PostFormValue(model.FieldEmail),
		Iin:          r.PostFormValue(model.FieldIin),
		Password1:    r.PostFormValue(model.FieldPassword1),
		Password2:    r.PostFormValue(model.FieldPassword2),
	})
	if err != nil {
		if errs, ok := validationErrors(err); ok {
			slog.Debug("registration rejected", "fields", errs.Fields())
			renderPage(w, r, h.renderer, http.StatusOK, tmplRegister, render.TemplateData{
				Title:  tr(r, "account.title.register"),
				Form:   formValues(r, registerFields...),
				Errors: translateErrors(middleware.GetLanguage(r), errs),
				Notice: tr(r, "account.notice.fix_errors"),
			})
			return
		}
		logAndInternalError(w, r, "failed to register user", "error", err)
		return
	}

	if err := h.startSession(r, user); err != nil {
		logAndInternalError(w, r, "failed to start session", "user_id", user.ID, "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, RouteRoot, "account.notice.registered")
}

// LoginForm renders the login page. Logged-in users go to the homepage.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if middleware.GetUser(r) != nil {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplLogin, render.TemplateData{
		Title: tr(r, "account.title.login"),
		Form:  map[string]string{"next": r.URL.Query().Get("next")},
	})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	email := trimmed(r, model.FieldEmail)
	next := r.PostFormValue("next")

	user, err := h.accounts.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		var notice string
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			notice = "account.error.invalid_credentials"
		case errors.Is(err, service.ErrAccountInactive):
			notice = "account.error.inactive"
		default:
			logAndInternalError(w, r, "failed to authenticate", "error", err)
			return
		}
		// INFO is not mirrored to the event log.
		slog.Info("login failed", "reason", err.Error(), "category", model.EventCategoryAuth)
		renderPage(w, r, h.renderer, http.StatusOK, tmplLogin, render.TemplateData{
			Title:  tr(r, "account.title.login"),
			Form:   map[string]string{model.FieldEmail: email, "next": next},
			Notice: tr(r, notice),
		})
		return
	}

	if err := h.startSession(r, user); err != nil {
		logAndInternalError(w, r, "failed to start session", "user_id", user.ID, "error", err)
		return
	}
	slog.Info("user logged in", "user_id", user.ID, "category", model.EventCategoryAuth)
	flashSuccess(w, r, h.renderer, middleware.SafeNext(next), "account.notice.logged_in")
}

// Logout destroys the session and redirects to the homepage.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, r, "failed to destroy session", "error", err)
		return
	}
	if userID > 0 {
		slog.Info("user logged out", "user_id", userID, "category", model.EventCategoryAuth)
	}
	flashSuccess(w, r, h.renderer, RouteRoot, "account.notice.logged_out")
}

// startSession renews the session token to prevent fixation and stores
// the user id.
func (h *AuthHandler) startSession(r *http.Request, user store.User) error {
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}
	h.sessionManager.Put(r.Context(), middleware.SessionKeyUserID, user.ID)
	return nil
}
