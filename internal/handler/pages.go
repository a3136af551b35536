// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

// goLiveLayout is the format of <input type="datetime-local">, read as UTC.
const goLiveLayout = "2006-01-02T15:04"

// imageChoices bounds the image select lists on the page form.
const imageChoices = 200

// PagesHandler handles the page tree admin.
type PagesHandler struct {
	pages    *service.PageService
	images   *service.ImageService
	renderer *render.Renderer
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(pages *service.PageService, images *service.ImageService, renderer *render.Renderer) *PagesHandler {
	return &PagesHandler{
		pages:    pages,
		images:   images,
		renderer: renderer,
	}
}

// PageRow is one line of the admin page tree.
type PageRow struct {
	Page       store.Page
	Depth      int
	URL        string
	ChildTypes []model.PageType
}

// PagesListData is the template data of the page tree.
type PagesListData struct {
	Rows      []PageRow
	RootTypes []model.PageType
}

// PageFormData is the template data of the page create and edit form.
type PageFormData struct {
	Page     *store.Page
	ParentID int64
	Type     model.PageType
	Images   []store.Image
	// HasContent is set for types carrying description, preview and body.
	HasContent bool
	IsHome     bool
}

// RevisionsData is the template data of the revision list.
type RevisionsData struct {
	Page      store.Page
	Revisions []store.PageRevision
}

// List renders the page tree with the child types each page accepts.
func (h *PagesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roots, err := h.pages.Tree(ctx)
	if err != nil {
		logAndInternalError(w, r, "failed to load page tree", "error", err)
		return
	}

	var data PagesListData
	for _, node := range service.Flatten(roots) {
		page := node.Page
		url, err := h.pages.URL(ctx, page)
		if err != nil {
			logAndInternalError(w, r, "failed to build page url", "page_id", page.ID, "error", err)
			return
		}
		childTypes, err := h.pages.AllowedChildTypes(ctx, &page)
		if err != nil {
			logAndInternalError(w, r, "failed to list child types", "page_id", page.ID, "error", err)
			return
		}
		data.Rows = append(data.Rows, PageRow{Page: page, Depth: node.Depth, URL: url, ChildTypes: childTypes})
	}
	if data.RootTypes, err = h.pages.AllowedChildTypes(ctx, nil); err != nil {
		logAndInternalError(w, r, "failed to list root types", "error", err)
		return
	}

	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminPages, render.TemplateData{
		Title: tr(r, "admin.pages"),
		Data:  data,
	})
}

// NewForm renders the form for a new page of ?type= under ?parent=.
func (h *PagesHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	parentID, _ := strconv.ParseInt(r.URL.Query().Get("parent"), 10, 64)
	pageType := model.PageType(r.URL.Query().Get("type"))
	if !h.typeAllowed(w, r, parentID, pageType) {
		return
	}
	h.renderForm(w, r, http.StatusOK, PageFormData{ParentID: parentID, Type: pageType},
		map[string]string{service.FieldBody: "[]"}, nil)
}

// Create stores a new draft page and opens it for editing.
func (h *PagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, RouteAdminPages, "admin.page.error.body_invalid")
		return
	}
	parentID, _ := strconv.ParseInt(r.PostFormValue("parent_id"), 10, 64)
	pageType := model.PageType(r.PostFormValue("page_type"))
	formData := PageFormData{ParentID: parentID, Type: pageType}

	in, errs := pageInput(r)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusOK, formData, pageForm(r), errs)
		return
	}

	page, err := h.pages.Create(r.Context(), parentID, pageType, in, middleware.GetUserID(r))
	if err != nil {
		if errs, ok := validationErrors(err); ok {
			h.renderForm(w, r, http.StatusOK, formData, pageForm(r), errs)
			return
		}
		if key := treeErrorKey(err); key != "" {
			flashError(w, r, h.renderer, RouteAdminPages, key)
			return
		}
		logAndInternalError(w, r, "failed to create page", "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, editURL(page.ID), "admin.page.created")
}

// EditForm renders the edit form of a page.
func (h *PagesHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requirePage(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, http.StatusOK, PageFormData{Page: &page, Type: model.PageType(page.PageType)}, storedPageForm(page), nil)
}

// Update saves the edit form and records a revision.
func (h *PagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requirePage(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		flashError(w, r, h.renderer, editURL(page.ID), "admin.page.error.body_invalid")
		return
	}
	formData := PageFormData{Page: &page, Type: model.PageType(page.PageType)}

	in, errs := pageInput(r)
	if len(errs) > 0 {
		h.renderForm(w, r, http.StatusOK, formData, pageForm(r), errs)
		return
	}

	if _, err := h.pages.Update(r.Context(), page.ID, in, middleware.GetUserID(r)); err != nil {
		if errs, ok := validationErrors(err); ok {
			h.renderForm(w, r, http.StatusOK, formData, pageForm(r), errs)
			return
		}
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
			return
		}
		logAndInternalError(w, r, "failed to update page", "page_id", page.ID, "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, editURL(page.ID), "admin.page.saved")
}

// Publish makes a page live.
func (h *PagesHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.pages.Publish, "admin.page.published")
}

// Unpublish returns a page to draft.
func (h *PagesHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.pages.Unpublish, "admin.page.unpublished")
}

// Delete removes a page and its descendants.
func (h *PagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, h.pages.Delete, "admin.page.deleted")
}

// Revisions lists the saved snapshots of a page.
func (h *PagesHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	page, ok := h.requirePage(w, r)
	if !ok {
		return
	}
	revisions, err := h.pages.Revisions(r.Context(), page.ID)
	if err != nil {
		logAndInternalError(w, r, "failed to list revisions", "page_id", page.ID, "error", err)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminRevs, render.TemplateData{
		Title: tr(r, "admin.page.revisions"),
		Data:  RevisionsData{Page: page, Revisions: revisions},
	})
}

func (h *PagesHandler) action(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) error, successKey string) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
		return
	}
	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
			return
		}
		logAndInternalError(w, r, "page action failed", "page_id", id, "error", err)
		return
	}
	flashSuccess(w, r, h.renderer, RouteAdminPages, successKey)
}

func (h *PagesHandler) requirePage(w http.ResponseWriter, r *http.Request) (store.Page, bool) {
	id, err := ParseIDParam(r)
	if err != nil {
		flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
		return store.Page{}, false
	}
	page, err := h.pages.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
		} else {
			logAndInternalError(w, r, "failed to load page", "page_id", id, "error", err)
		}
		return store.Page{}, false
	}
	return page, true
}

// typeAllowed checks that pageType may be added under parentID before the
// form is shown. The service repeats the check on create.
func (h *PagesHandler) typeAllowed(w http.ResponseWriter, r *http.Request, parentID int64, pageType model.PageType) bool {
	var parent *store.Page
	if parentID != 0 {
		p, err := h.pages.Get(r.Context(), parentID)
		if err != nil {
			if errors.Is(err, service.ErrPageNotFound) {
				flashError(w, r, h.renderer, RouteAdminPages, "error.not_found")
			} else {
				logAndInternalError(w, r, "failed to load parent page", "page_id", parentID, "error", err)
			}
			return false
		}
		parent = &p
	}
	allowed, err := h.pages.AllowedChildTypes(r.Context(), parent)
	if err != nil {
		logAndInternalError(w, r, "failed to list child types", "error", err)
		return false
	}
	for _, t := range allowed {
		if t == pageType {
			return true
		}
	}
	flashError(w, r, h.renderer, RouteAdminPages, "admin.page.error.type_not_allowed")
	return false
}

func (h *PagesHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data PageFormData, form map[string]string, errs service.FieldErrors) {
	images, _, err := h.images.List(r.Context(), imageChoices, 0)
	if err != nil {
		logAndInternalError(w, r, "failed to list images", "error", err)
		return
	}
	data.Images = images
	data.HasContent = data.Type.HasContent()
	data.IsHome = data.Type == model.PageTypeHome

	title := tr(r, "admin.page.new")
	if data.Page != nil {
		title = tr(r, "admin.page.edit")
	}
	td := render.TemplateData{Title: title, Data: data, Form: form}
	if len(errs) > 0 {
		td.Errors = translateErrors(middleware.GetLanguage(r), errs)
		td.Notice = tr(r, "account.notice.fix_errors")
	}
	renderPage(w, r, h.renderer, status, tmplAdminPage, td)
}

var pageFormFields = []string{
	service.FieldTitle, service.FieldSlug, service.FieldDescription, service.FieldPreview,
	service.FieldHeroImage, service.FieldHeroTitle, service.FieldHeroSubtitle, service.FieldBody,
	service.FieldGoLiveAt,
}

func pageForm(r *http.Request) map[string]string {
	return formValues(r, pageFormFields...)
}

func storedPageForm(p store.Page) map[string]string {
	form := map[string]string{
		service.FieldTitle:        p.Title,
		service.FieldSlug:         p.Slug,
		service.FieldDescription:  p.Description,
		service.FieldHeroTitle:    p.HeroTitle,
		service.FieldHeroSubtitle: p.HeroSubtitle,
		service.FieldBody:         p.Body,
		service.FieldPreview:      nullIDString(p.PreviewImageID),
		service.FieldHeroImage:    nullIDString(p.HeroImageID),
	}
	if p.GoLiveAt.Valid {
		form[service.FieldGoLiveAt] = p.GoLiveAt.Time.UTC().Format(goLiveLayout)
	}
	return form
}

func nullIDString(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}

// pageInput reads the page form. Only the go-live date is checked here;
// everything else is validated by the service.
func pageInput(r *http.Request) (service.PageInput, service.FieldErrors) {
	in := service.PageInput{
		Title:          r.PostFormValue(service.FieldTitle),
		Slug:           r.PostFormValue(service.FieldSlug),
		Description:    r.PostFormValue(service.FieldDescription),
		PreviewImageID: util.ParseNullInt64Positive(r.PostFormValue(service.FieldPreview)),
		HeroImageID:    util.ParseNullInt64Positive(r.PostFormValue(service.FieldHeroImage)),
		HeroTitle:      r.PostFormValue(service.FieldHeroTitle),
		HeroSubtitle:   r.PostFormValue(service.FieldHeroSubtitle),
		Body:           r.PostFormValue(service.FieldBody),
	}

	errs := make(service.FieldErrors)
	if raw := strings.TrimSpace(r.PostFormValue(service.FieldGoLiveAt)); raw != "" {
		ts, err := time.ParseInLocation(goLiveLayout, raw, time.UTC)
		if err != nil {
			errs.Add(service.FieldGoLiveAt, "admin.page.error.date_invalid")
		} else {
			in.GoLiveAt = sql.NullTime{Time: ts, Valid: true}
		}
	}
	return in, errs
}

// treeErrorKey maps page tree errors to flash keys, or "" for other errors.
func treeErrorKey(err error) string {
	switch {
	case errors.Is(err, service.ErrPageTypeNotAllowed):
		return "admin.page.error.type_not_allowed"
	case errors.Is(err, service.ErrPageMaxCount):
		return "admin.page.error.max_count"
	case errors.Is(err, service.ErrPageNotFound):
		return "error.not_found"
	}
	return ""
}

func editURL(id int64) string {
	return fmt.Sprintf("%s/%d/edit", RouteAdminPages, id)
}
