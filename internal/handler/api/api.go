// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the read-only JSON API of the public site.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/service"
)

// Handler serves the listings and the homepage context as JSON.
type Handler struct {
	builder *service.ContextBuilder
}

// NewHandler creates a new API handler.
func NewHandler(builder *service.ContextBuilder) *Handler {
	return &Handler{builder: builder}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Pages   int   `json:"pages"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, r, "Not found")
	})
	r.Get("/", h.Status)
	r.Get("/home", h.Home)
	r.Get("/{category}", h.Listing)
	return r
}

// WriteSuccess writes a 200 JSON response.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any, meta *Meta) {
	render.JSON(w, r, Response{Data: data, Meta: meta})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusNotFound, "not_found", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusInternalServerError, "internal_error", message)
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, StatusResponse{Status: "ok", Version: "v1"}, nil)
}

// Home returns the homepage context.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.builder.Home(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			WriteNotFound(w, r, "Home page not found")
			return
		}
		slog.Error("api: failed to build home context", "error", err)
		WriteInternalError(w, r, "Failed to load home page")
		return
	}
	WriteSuccess(w, r, home, nil)
}

// Listing returns one page of live items of a category.
func (h *Handler) Listing(w http.ResponseWriter, r *http.Request) {
	cat, ok := model.CategoryByKey(chi.URLParam(r, "category"))
	if !ok {
		WriteNotFound(w, r, "Category not found")
		return
	}

	listing, err := h.builder.Listing(r.Context(), cat, r.URL.Query().Get("page"))
	if err != nil {
		slog.Error("api: failed to build listing", "category", cat.Key, "error", err)
		WriteInternalError(w, r, "Failed to load listing")
		return
	}

	items := listing.Items
	if items == nil {
		items = []service.PageView{}
	}
	WriteSuccess(w, r, items, &Meta{
		Total:   listing.Paginator.Total,
		Page:    listing.Paginator.Number,
		PerPage: listing.Paginator.PerPage,
		Pages:   listing.Paginator.NumPages,
	})
}
