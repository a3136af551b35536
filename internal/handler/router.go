// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io/fs"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-community/internal/handler/api"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/version"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	DB             *sql.DB
	SessionManager *scs.SessionManager
	Renderer       *render.Renderer

	Accounts *service.AccountService
	Pages    *service.PageService
	Images   *service.ImageService
	Events   *service.EventService
	Builder  *service.ContextBuilder
	Jobs     JobRunner

	// Static holds the embedded assets served under /static.
	Static fs.FS
	// RateLimiter limits registration POSTs. Nil disables it.
	RateLimiter *middleware.IPRateLimiter

	CSRFKey        []byte
	IsDev          bool
	Addr           string
	MediaOrigin    string
	SiteURL        string
	RequestTimeout time.Duration
	Version        version.Info
}

// NewRouter builds the HTTP routes of the site.
func NewRouter(d Deps) chi.Router {
	frontend := NewFrontendHandler(d.Pages, d.Builder, d.Renderer)
	authHandler := NewAuthHandler(d.Accounts, d.Renderer, d.SessionManager)
	accountHandler := NewAccountHandler(d.Accounts, d.Renderer)
	pagesHandler := NewPagesHandler(d.Pages, d.Images, d.Renderer)
	mediaHandler := NewMediaHandler(d.Images, d.Renderer)
	usersHandler := NewUsersHandler(d.Accounts, d.Renderer)
	eventsHandler := NewEventsHandler(d.Events, d.Renderer)
	schedulerHandler := NewSchedulerHandler(d.Jobs, d.Renderer)
	healthHandler := NewHealthHandler(d.DB, d.Version)
	seoHandler := NewSEOHandler(d.Pages, d.SiteURL, d.IsDev)
	apiHandler := api.NewHandler(d.Builder)

	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := func(next http.Handler) http.Handler { return next }
	if d.RateLimiter != nil {
		limit = d.RateLimiter.Middleware
	}

	// Session-aware chain shared by the HTML routes and the 404 page.
	site := chi.Middlewares{
		d.SessionManager.LoadAndSave,
		middleware.Language,
		middleware.LoadUser(d.SessionManager, d.DB),
		middleware.CSRF(middleware.DefaultCSRFConfig(d.CSRFKey, d.IsDev, d.Addr)),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(d.IsDev, d.MediaOrigin)))

	if d.Static != nil {
		r.With(middleware.StaticCache(24*time.Hour)).
			Handle(RouteStatic+"/*", http.StripPrefix(RouteStatic, http.FileServerFS(d.Static)))
	}
	r.Get(RouteHealth, healthHandler.Health)
	r.Get(RouteHealth+"/live", healthHandler.Liveness)
	r.Get("/sitemap.xml", seoHandler.Sitemap)
	r.Get("/robots.txt", seoHandler.Robots)
	r.Get(RouteMedia+"/*", mediaHandler.Serve)
	r.Mount(RouteAPI, apiHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(site...)

		r.Route("/users", func(r chi.Router) {
			r.Get("/register", authHandler.RegisterForm)
			r.With(limit).Post("/register", authHandler.Register)
			r.Get("/login", authHandler.LoginForm)
			r.Post("/login", authHandler.Login)
			r.Get("/logout", authHandler.Logout)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireUser)
				r.Get("/profile", accountHandler.Profile)
				r.Post("/profile", accountHandler.ProfileUpdate)
				r.Get("/account", accountHandler.Account)
				r.Get("/account/edit", accountHandler.AccountEdit)
				r.Post("/account/update", accountHandler.AccountUpdate)
				r.Get("/account/update", accountHandler.AccountUpdateRedirect)
			})
		})

		r.Route(RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, RouteAdminPages, http.StatusFound)
			})

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", pagesHandler.List)
				r.Get("/new", pagesHandler.NewForm)
				r.Post("/", pagesHandler.Create)
				r.Get(RouteParamID+"/edit", pagesHandler.EditForm)
				r.Post(RouteParamID, pagesHandler.Update)
				r.Post(RouteParamID+"/publish", pagesHandler.Publish)
				r.Post(RouteParamID+"/unpublish", pagesHandler.Unpublish)
				r.Post(RouteParamID+"/delete", pagesHandler.Delete)
				r.Get(RouteParamID+"/revisions", pagesHandler.Revisions)
			})

			r.Route("/images", func(r chi.Router) {
				r.Get("/", mediaHandler.List)
				r.Post("/", mediaHandler.Upload)
				r.Post(RouteParamID+"/delete", mediaHandler.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", usersHandler.List)
				r.Post(RouteParamID+"/active", usersHandler.SetActive)
			})

			r.Get("/events", eventsHandler.List)

			r.Route("/scheduler", func(r chi.Router) {
				r.Get("/", schedulerHandler.List)
				r.Post("/{name}/run", schedulerHandler.Trigger)
			})
		})

		r.Get(RouteRoot, frontend.Page)
		r.Get("/*", frontend.Page)
	})

	r.NotFound(site.HandlerFunc(frontend.NotFound).ServeHTTP)

	return r
}
