// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"
	"path"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// FrontendHandler serves the public page tree.
type FrontendHandler struct {
	pages    *service.PageService
	builder  *service.ContextBuilder
	renderer *render.Renderer
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(pages *service.PageService, builder *service.ContextBuilder, renderer *render.Renderer) *FrontendHandler {
	return &FrontendHandler{
		pages:    pages,
		builder:  builder,
		renderer: renderer,
	}
}

// IndexData is the template data of a category index page.
type IndexData struct {
	Page       service.PageView
	Category   string
	Items      []service.PageView
	Pagination Pagination
}

// DetailData is the template data of a detail or about page.
type DetailData struct {
	Page service.PageView
	// BackURL links to the listing the page belongs to.
	BackURL string
}

// Page resolves the request path in the page tree and renders the page
// with the template of its type.
func (h *FrontendHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.Resolve(r.Context(), r.URL.Path)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			h.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "failed to resolve page", "path", r.URL.Path, "error", err)
		return
	}

	pageType := model.PageType(page.PageType)
	switch {
	case pageType == model.PageTypeHome:
		h.home(w, r)
	case pageType.IsIndex():
		h.index(w, r, page)
	case pageType == model.PageTypeAbout:
		h.detail(w, r, page, tmplAbout)
	default:
		h.detail(w, r, page, tmplDetail)
	}
}

func (h *FrontendHandler) home(w http.ResponseWriter, r *http.Request) {
	home, err := h.builder.Home(r.Context())
	if err != nil {
		logAndInternalError(w, r, "failed to build home context", "error", err)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplHome, render.TemplateData{
		Title: home.Page.Title,
		Data:  home,
	})
}

func (h *FrontendHandler) index(w http.ResponseWriter, r *http.Request, page store.Page) {
	cat, ok := model.CategoryByIndex(model.PageType(page.PageType))
	if !ok {
		h.NotFound(w, r)
		return
	}
	view, err := h.builder.Page(r.Context(), page)
	if err != nil {
		logAndInternalError(w, r, "failed to build page context", "page_id", page.ID, "error", err)
		return
	}
	listing, err := h.builder.Listing(r.Context(), cat, r.URL.Query().Get("page"))
	if err != nil {
		logAndInternalError(w, r, "failed to build listing", "category", cat.Key, "error", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, tmplIndex, render.TemplateData{
		Title: view.Title,
		Data: IndexData{
			Page:       view,
			Category:   cat.Key,
			Items:      listing.Items,
			Pagination: ListingPagination(listing.Paginator, view.URL),
		},
	})
}

func (h *FrontendHandler) detail(w http.ResponseWriter, r *http.Request, page store.Page, tmpl string) {
	view, err := h.builder.Page(r.Context(), page)
	if err != nil {
		logAndInternalError(w, r, "failed to build page context", "page_id", page.ID, "error", err)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmpl, render.TemplateData{
		Title: view.Title,
		Data:  DetailData{Page: view, BackURL: path.Dir(view.URL)},
	})
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusNotFound, tmplNotFound, render.TemplateData{
		Title: tr(r, "error.not_found"),
	})
}
