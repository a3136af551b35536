// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/storage"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

// MediaHandler handles the image library and serves stored files.
type MediaHandler struct {
	images   *service.ImageService
	renderer *render.Renderer
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(images *service.ImageService, renderer *render.Renderer) *MediaHandler {
	return &MediaHandler{
		images:   images,
		renderer: renderer,
	}
}

// ImageRow is one image in the admin library.
type ImageRow struct {
	Image      store.Image
	URL        string
	PreviewURL string
}

// ImagesListData is the template data of the image library.
type ImagesListData struct {
	Images     []ImageRow
	Pagination Pagination
}

// List renders the image library.
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	images, pagination, err := listAdminPage(r, func(limit, offset int) ([]store.Image, int64, error) {
		return h.images.List(r.Context(), limit, offset)
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list images", "error", err)
		return
	}

	data := ImagesListData{Pagination: pagination}
	for _, img := range images {
		data.Images = append(data.Images, ImageRow{
			Image:      img,
			URL:        h.images.OriginalURL(img),
			PreviewURL: h.images.PreviewURL(img),
		})
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminImages, render.TemplateData{
		Title: tr(r, "admin.images"),
		Data:  data,
	})
}

// Upload stores an image posted as the "file" multipart field.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Debug("upload rejected", "error", err)
		flashError(w, r, h.renderer, RouteAdminImages, "admin.image.error.invalid")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminImages, "admin.image.error.invalid")
		return
	}
	defer func() { _ = file.Close() }()

	if _, err := h.images.Upload(r.Context(), file, header.Filename, r.FormValue("title"), middleware.GetUserID(r)); err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			slog.Debug("upload rejected", "filename", header.Filename, "error", err)
			flashError(w, r, h.renderer, RouteAdminImages, "admin.image.error.invalid")
			return
		}
		logAndInternalError(w, r, "failed to upload image", "filename", header.Filename, "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, RouteAdminImages, "admin.image.uploaded")
}

// Delete removes an image and its stored files.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminImages, "error.not_found")
		return
	}
	if err := h.images.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrImageNotFound) {
			flashError(w, r, h.renderer, RouteAdminImages, "error.not_found")
			return
		}
		logAndInternalError(w, r, "failed to delete image", "image_id", id, "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, RouteAdminImages, "admin.image.deleted")
}

// Serve streams a stored file. The key is the path below the media route.
func (h *MediaHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" || util.ContainsPathTraversal(key) {
		http.NotFound(w, r)
		return
	}

	rc, err := h.images.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		logAndInternalError(w, r, "failed to open media", "key", key, "error", err)
		return
	}
	defer func() { _ = rc.Close() }()

	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("media copy interrupted", "key", key, "error", err)
	}
}
