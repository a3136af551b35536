// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

// Page tree errors.
var (
	ErrPageNotFound       = errors.New("page not found")
	ErrPageTypeNotAllowed = errors.New("page type not allowed here")
	ErrPageMaxCount       = errors.New("page type limit reached")
)

// Form field names used in page validation errors.
const (
	FieldTitle        = "title"
	FieldSlug         = "slug"
	FieldDescription  = "description"
	FieldPreview      = "preview_image_id"
	FieldHeroImage    = "hero_image_id"
	FieldHeroTitle    = "hero_title"
	FieldHeroSubtitle = "hero_subtitle"
	FieldBody         = "body"
	FieldGoLiveAt     = "go_live_at"
)

// ChangeNotifier is told when published content may have changed.
type ChangeNotifier interface {
	ContentChanged(ctx context.Context)
}

// PageInput is the editable part of a page as submitted by an editor.
type PageInput struct {
	Title          string
	Slug           string
	Description    string
	PreviewImageID sql.NullInt64
	HeroImageID    sql.NullInt64
	HeroTitle      string
	HeroSubtitle   string
	Body           string
	GoLiveAt       sql.NullTime
}

// PageNode is a page with its children, for the admin tree.
type PageNode struct {
	Page     store.Page
	Children []*PageNode
	Depth    int
}

// PageService manages the page tree.
type PageService struct {
	db      *sql.DB
	queries *store.Queries
	body    *BodyRenderer
	changed ChangeNotifier
	now     func() time.Time
}

// NewPageService creates a PageService. changed may be nil.
func NewPageService(db *sql.DB, body *BodyRenderer, changed ChangeNotifier) *PageService {
	return &PageService{
		db:      db,
		queries: store.New(db),
		body:    body,
		changed: changed,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Get loads a page by id.
func (s *PageService) Get(ctx context.Context, id int64) (store.Page, error) {
	p, err := s.queries.GetPageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Page{}, ErrPageNotFound
		}
		return store.Page{}, fmt.Errorf("loading page: %w", err)
	}
	return p, nil
}

// AllowedChildTypes lists the types that may be created under parent
// without exceeding their instance caps. A nil parent means the root.
func (s *PageService) AllowedChildTypes(ctx context.Context, parent *store.Page) ([]model.PageType, error) {
	var candidates []model.PageType
	if parent == nil {
		for _, t := range model.AllPageTypes() {
			if t.IsRoot() {
				candidates = append(candidates, t)
			}
		}
	} else {
		info, ok := model.LookupPageType(model.PageType(parent.PageType))
		if !ok {
			return nil, nil
		}
		candidates = info.Children
	}

	var allowed []model.PageType
	for _, t := range candidates {
		ok, err := s.underMaxCount(ctx, t)
		if err != nil {
			return nil, err
		}
		if ok {
			allowed = append(allowed, t)
		}
	}
	return allowed, nil
}

func (s *PageService) underMaxCount(ctx context.Context, t model.PageType) (bool, error) {
	info, ok := model.LookupPageType(t)
	if !ok {
		return false, nil
	}
	if info.MaxCount == model.Unlimited {
		return true, nil
	}
	n, err := s.queries.CountPagesByType(ctx, string(t))
	if err != nil {
		return false, fmt.Errorf("counting pages: %w", err)
	}
	return n < int64(info.MaxCount), nil
}

// Create adds a draft page of pageType under parentID (0 for the root).
func (s *PageService) Create(ctx context.Context, parentID int64, pageType model.PageType, in PageInput, userID int64) (store.Page, error) {
	if !pageType.Valid() {
		return store.Page{}, ErrPageTypeNotAllowed
	}

	var parent sql.NullInt64
	if parentID == 0 {
		if !pageType.IsRoot() {
			return store.Page{}, ErrPageTypeNotAllowed
		}
	} else {
		p, err := s.Get(ctx, parentID)
		if err != nil {
			return store.Page{}, err
		}
		if !model.PageType(p.PageType).CanHaveChild(pageType) {
			return store.Page{}, ErrPageTypeNotAllowed
		}
		parent = util.NullInt64FromValue(p.ID)
	}

	ok, err := s.underMaxCount(ctx, pageType)
	if err != nil {
		return store.Page{}, err
	}
	if !ok {
		return store.Page{}, ErrPageMaxCount
	}

	clean, body, err := s.validate(ctx, parentID, 0, pageType, in)
	if err != nil {
		return store.Page{}, err
	}

	now := s.now()
	var page store.Page
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		page, err = q.CreatePage(ctx, store.CreatePageParams{
			ParentID:       parent,
			PageType:       string(pageType),
			Title:          clean.Title,
			Slug:           clean.Slug,
			Description:    clean.Description,
			PreviewImageID: clean.PreviewImageID,
			HeroImageID:    clean.HeroImageID,
			HeroTitle:      clean.HeroTitle,
			HeroSubtitle:   clean.HeroSubtitle,
			Body:           body,
			GoLiveAt:       clean.GoLiveAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return err
		}
		return s.saveRevision(ctx, q, page, userID)
	})
	if err != nil {
		return store.Page{}, s.translateWriteError(err, "creating page")
	}

	slog.Info("page created", "page_id", page.ID, "type", page.PageType, "user_id", userID,
		"category", model.EventCategoryPage)
	s.notify(ctx)
	return page, nil
}

// Update saves editable fields and records a revision.
func (s *PageService) Update(ctx context.Context, id int64, in PageInput, userID int64) (store.Page, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return store.Page{}, err
	}

	parentID := int64(0)
	if current.ParentID.Valid {
		parentID = current.ParentID.Int64
	}
	clean, body, err := s.validate(ctx, parentID, id, model.PageType(current.PageType), in)
	if err != nil {
		return store.Page{}, err
	}

	goLive := clean.GoLiveAt
	if current.Live {
		// Already published; a schedule would be meaningless.
		goLive = sql.NullTime{}
	}

	var page store.Page
	err = store.InTx(ctx, s.db, func(q *store.Queries) error {
		var err error
		page, err = q.UpdatePage(ctx, store.UpdatePageParams{
			Title:          clean.Title,
			Slug:           clean.Slug,
			Description:    clean.Description,
			PreviewImageID: clean.PreviewImageID,
			HeroImageID:    clean.HeroImageID,
			HeroTitle:      clean.HeroTitle,
			HeroSubtitle:   clean.HeroSubtitle,
			Body:           body,
			GoLiveAt:       goLive,
			UpdatedAt:      s.now(),
			ID:             id,
		})
		if err != nil {
			return err
		}
		return s.saveRevision(ctx, q, page, userID)
	})
	if err != nil {
		return store.Page{}, s.translateWriteError(err, "updating page")
	}

	slog.Info("page updated", "page_id", page.ID, "user_id", userID, "category", model.EventCategoryPage)
	s.notify(ctx)
	return page, nil
}

func (s *PageService) saveRevision(ctx context.Context, q *store.Queries, page store.Page, userID int64) error {
	var uid sql.NullInt64
	if userID > 0 {
		uid = util.NullInt64FromValue(userID)
	}
	_, err := q.CreatePageRevision(ctx, store.CreatePageRevisionParams{
		PageID:      page.ID,
		UserID:      uid,
		Title:       page.Title,
		Description: page.Description,
		Body:        page.Body,
		CreatedAt:   s.now(),
	})
	return err
}

func (s *PageService) translateWriteError(err error, action string) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPageNotFound
	}
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "pages_parent_slug_idx") {
		errs := make(FieldErrors)
		errs.Add(FieldSlug, "admin.page.error.slug_taken")
		return &ValidationError{Fields: errs}
	}
	return fmt.Errorf("%s: %w", action, err)
}

// validate cleans in for a page of type t under parentID. excludeID is the
// page being edited, or 0 on create.
func (s *PageService) validate(ctx context.Context, parentID, excludeID int64, t model.PageType, in PageInput) (PageInput, string, error) {
	errs := make(FieldErrors)
	out := PageInput{
		Title:    cleanText(in.Title),
		Slug:     strings.ToLower(strings.TrimSpace(in.Slug)),
		GoLiveAt: in.GoLiveAt,
	}

	requirePageText(errs, FieldTitle, out.Title, model.MaxTitleLength)

	if out.Slug == "" {
		out.Slug = util.Slugify(out.Title)
	}
	switch {
	case out.Slug == "":
		if !errs.Has(FieldTitle) {
			errs.Add(FieldSlug, "account.error.required")
		}
	case utf8.RuneCountInString(out.Slug) > model.MaxSlugLength:
		errs.Add(FieldSlug, "account.error.too_long", model.MaxSlugLength)
	case !util.IsValidSlug(out.Slug):
		errs.Add(FieldSlug, "admin.page.error.slug_invalid")
	default:
		taken, err := s.queries.SlugTaken(ctx, store.SlugTakenParams{ParentID: parentID, Slug: out.Slug, ExcludeID: excludeID})
		if err != nil {
			return PageInput{}, "", fmt.Errorf("checking slug: %w", err)
		}
		if taken {
			errs.Add(FieldSlug, "admin.page.error.slug_taken")
		}
	}

	body := "[]"
	if t.HasContent() {
		out.Description = cleanText(in.Description)
		if utf8.RuneCountInString(out.Description) > model.MaxDescriptionLength {
			errs.Add(FieldDescription, "account.error.too_long", model.MaxDescriptionLength)
		}
		out.PreviewImageID = in.PreviewImageID
		if err := s.checkImage(ctx, errs, FieldPreview, out.PreviewImageID); err != nil {
			return PageInput{}, "", err
		}

		blocks, imageIDs, err := s.body.Prepare(in.Body)
		if err != nil {
			errs.Add(FieldBody, "admin.page.error.body_invalid")
		} else {
			for _, id := range imageIDs {
				if err := s.checkImage(ctx, errs, FieldBody, util.NullInt64FromValue(id)); err != nil {
					return PageInput{}, "", err
				}
			}
			if body, err = model.EncodeBody(blocks); err != nil {
				return PageInput{}, "", err
			}
		}
	}

	if t == model.PageTypeHome {
		out.HeroTitle = cleanText(in.HeroTitle)
		out.HeroSubtitle = cleanText(in.HeroSubtitle)
		if utf8.RuneCountInString(out.HeroTitle) > model.MaxHeroTextLength {
			errs.Add(FieldHeroTitle, "account.error.too_long", model.MaxHeroTextLength)
		}
		if utf8.RuneCountInString(out.HeroSubtitle) > model.MaxHeroTextLength {
			errs.Add(FieldHeroSubtitle, "account.error.too_long", model.MaxHeroTextLength)
		}
		out.HeroImageID = in.HeroImageID
		if err := s.checkImage(ctx, errs, FieldHeroImage, out.HeroImageID); err != nil {
			return PageInput{}, "", err
		}
	}

	if len(errs) > 0 {
		return PageInput{}, "", &ValidationError{Fields: errs}
	}
	return out, body, nil
}

func (s *PageService) checkImage(ctx context.Context, errs FieldErrors, field string, id sql.NullInt64) error {
	if !id.Valid {
		return nil
	}
	if _, err := s.queries.GetImageByID(ctx, id.Int64); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			errs.Add(field, "admin.page.error.image_missing")
			return nil
		}
		return fmt.Errorf("checking image: %w", err)
	}
	return nil
}

func requirePageText(errs FieldErrors, field, value string, maxLen int) {
	switch {
	case value == "":
		errs.Add(field, "account.error.required")
	case utf8.RuneCountInString(value) > maxLen:
		errs.Add(field, "account.error.too_long", maxLen)
	}
}

// Publish makes a page live. first_published_at is kept on re-publish.
func (s *PageService) Publish(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.PublishPage(ctx, store.PublishPageParams{PublishedAt: s.now(), ID: id}); err != nil {
		return fmt.Errorf("publishing page: %w", err)
	}
	slog.Info("page published", "page_id", id, "category", model.EventCategoryPage)
	s.notify(ctx)
	return nil
}

// Unpublish hides a page from visitors.
func (s *PageService) Unpublish(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.UnpublishPage(ctx, store.UnpublishPageParams{UpdatedAt: s.now(), ID: id}); err != nil {
		return fmt.Errorf("unpublishing page: %w", err)
	}
	slog.Info("page unpublished", "page_id", id, "category", model.EventCategoryPage)
	s.notify(ctx)
	return nil
}

// Delete removes a page and, through the foreign key, all its descendants.
func (s *PageService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.queries.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	slog.Info("page deleted", "page_id", id, "category", model.EventCategoryPage)
	s.notify(ctx)
	return nil
}

// PublishDue publishes every draft whose go_live_at has passed.
func (s *PageService) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.queries.ListDuePages(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing due pages: %w", err)
	}
	published := 0
	for _, p := range due {
		if err := s.queries.PublishPage(ctx, store.PublishPageParams{PublishedAt: now, ID: p.ID}); err != nil {
			slog.Error("scheduled publish failed", "page_id", p.ID, "error", err)
			continue
		}
		published++
		slog.Info("page published on schedule", "page_id", p.ID, "category", model.EventCategoryPage)
	}
	if published > 0 {
		s.notify(ctx)
	}
	return published, nil
}

// Revisions lists saved snapshots of a page, newest first.
func (s *PageService) Revisions(ctx context.Context, id int64) ([]store.PageRevision, error) {
	revs, err := s.queries.ListPageRevisions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}
	return revs, nil
}

// Tree returns the whole page tree as root nodes.
func (s *PageService) Tree(ctx context.Context) ([]*PageNode, error) {
	pages, err := s.queries.ListAllPages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	nodes := make(map[int64]*PageNode, len(pages))
	for _, p := range pages {
		nodes[p.ID] = &PageNode{Page: p}
	}
	var roots []*PageNode
	for _, p := range pages {
		n := nodes[p.ID]
		if parent, ok := nodes[p.ParentID.Int64]; p.ParentID.Valid && ok {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
	}
	var setDepth func([]*PageNode, int)
	setDepth = func(ns []*PageNode, d int) {
		for _, n := range ns {
			n.Depth = d
			setDepth(n.Children, d+1)
		}
	}
	setDepth(roots, 0)
	return roots, nil
}

// Flatten lists tree nodes depth first.
func Flatten(roots []*PageNode) []*PageNode {
	var out []*PageNode
	var walk func([]*PageNode)
	walk = func(ns []*PageNode) {
		for _, n := range ns {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}

// Resolve walks the tree from the root by slug. Only the final page must
// be live; unknown paths and drafts give ErrPageNotFound.
func (s *PageService) Resolve(ctx context.Context, urlPath string) (store.Page, error) {
	page, err := s.queries.GetRootPage(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Page{}, ErrPageNotFound
		}
		return store.Page{}, fmt.Errorf("loading root page: %w", err)
	}

	for _, slug := range strings.Split(strings.Trim(urlPath, "/"), "/") {
		if slug == "" {
			continue
		}
		page, err = s.queries.GetChildBySlug(ctx, store.GetChildBySlugParams{ParentID: page.ID, Slug: slug})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.Page{}, ErrPageNotFound
			}
			return store.Page{}, fmt.Errorf("resolving %q: %w", slug, err)
		}
	}

	if !page.Live {
		return store.Page{}, ErrPageNotFound
	}
	return page, nil
}

// URL builds the public path of a page. The root is "/".
func (s *PageService) URL(ctx context.Context, page store.Page) (string, error) {
	return pageURL(ctx, s.queries, page, nil)
}

// PublicPage is a live page at its public path.
type PublicPage struct {
	URL       string
	UpdatedAt time.Time
	Index     bool
}

// PublicPages lists every live page depth first with its path.
func (s *PageService) PublicPages(ctx context.Context) ([]PublicPage, error) {
	roots, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	var out []PublicPage
	var walk func([]*PageNode, string)
	walk = func(ns []*PageNode, parent string) {
		for _, n := range ns {
			path := "/"
			if n.Page.ParentID.Valid {
				path = joinURL(parent, n.Page.Slug)
			}
			if n.Page.Live {
				out = append(out, PublicPage{
					URL:       path,
					UpdatedAt: n.Page.UpdatedAt,
					Index:     model.PageType(n.Page.PageType).IsIndex(),
				})
			}
			walk(n.Children, path)
		}
	}
	walk(roots, "/")
	return out, nil
}

// pageURL walks up to the root. memo caches ancestor paths by id.
func pageURL(ctx context.Context, q *store.Queries, page store.Page, memo map[int64]string) (string, error) {
	if !page.ParentID.Valid {
		return "/", nil
	}
	if memo != nil {
		if parentPath, ok := memo[page.ParentID.Int64]; ok {
			return joinURL(parentPath, page.Slug), nil
		}
	}
	parent, err := q.GetPageByID(ctx, page.ParentID.Int64)
	if err != nil {
		return "", fmt.Errorf("loading parent page: %w", err)
	}
	parentPath, err := pageURL(ctx, q, parent, memo)
	if err != nil {
		return "", err
	}
	if memo != nil {
		memo[parent.ID] = parentPath
	}
	return joinURL(parentPath, page.Slug), nil
}

func joinURL(parent, slug string) string {
	if parent == "/" {
		return "/" + slug
	}
	return parent + "/" + slug
}

func (s *PageService) notify(ctx context.Context) {
	if s.changed != nil {
		s.changed.ContentChanged(ctx)
	}
}
