// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-community/internal/cache"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

const homeCacheKey = "page:home"

// ImageRef is an image as shown on the site.
type ImageRef struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url"`
	Width      int64  `json:"width"`
	Height     int64  `json:"height"`
}

// PageView is the display form of a page.
type PageView struct {
	ID               int64          `json:"id"`
	Type             model.PageType `json:"type"`
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	URL              string         `json:"url"`
	Description      string         `json:"description,omitempty"`
	Preview          *ImageRef      `json:"preview,omitempty"`
	HeroImage        *ImageRef      `json:"hero_image,omitempty"`
	HeroTitle        string         `json:"hero_title,omitempty"`
	HeroSubtitle     string         `json:"hero_subtitle,omitempty"`
	Body             template.HTML  `json:"body,omitempty"`
	FirstPublishedAt *time.Time     `json:"first_published_at,omitempty"`
	LastPublishedAt  *time.Time     `json:"last_published_at,omitempty"`
}

// CategoryItems is the homepage section of one category.
type CategoryItems struct {
	Key        string     `json:"key"`
	Items      []PageView `json:"items"`
	IndexURL   string     `json:"index_url"`
	IndexTitle string     `json:"index_title"`
}

// HomeContext is everything the homepage shows.
type HomeContext struct {
	Page       PageView        `json:"page"`
	Categories []CategoryItems `json:"categories"`
}

// Category returns the section for key, or an empty one.
func (h *HomeContext) Category(key string) CategoryItems {
	for _, c := range h.Categories {
		if c.Key == key {
			return c
		}
	}
	return CategoryItems{Key: key}
}

// ListingContext is one page of a category listing.
type ListingContext struct {
	Category  string     `json:"category"`
	Items     []PageView `json:"items"`
	Paginator Paginator  `json:"paginator"`
}

// ContextBuilder computes display context for pages.
type ContextBuilder struct {
	queries *store.Queries
	body    *BodyRenderer
	links   MediaLinker
	home    *cache.TypedCache[HomeContext]
}

// NewContextBuilder creates a builder caching the homepage context in c.
func NewContextBuilder(db *sql.DB, body *BodyRenderer, links MediaLinker, c cache.Cacher, ttl time.Duration) *ContextBuilder {
	return &ContextBuilder{
		queries: store.New(db),
		body:    body,
		links:   links,
		home:    cache.NewTypedCache[HomeContext](c, ttl),
	}
}

// ContentChanged drops the cached homepage context.
func (b *ContextBuilder) ContentChanged(ctx context.Context) {
	if err := b.home.Delete(ctx, homeCacheKey); err != nil {
		slog.Warn("failed to invalidate home cache", "error", err, "category", model.EventCategoryCache)
	}
}

// Home returns the homepage context: the most recent live items of each
// category and a link to the category index. A missing index page gives
// an empty link.
func (b *ContextBuilder) Home(ctx context.Context) (*HomeContext, error) {
	return b.home.GetOrSet(ctx, homeCacheKey, b.buildHome)
}

func (b *ContextBuilder) buildHome(ctx context.Context) (*HomeContext, error) {
	root, err := b.queries.GetRootPage(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("loading home page: %w", err)
	}

	memo := make(map[int64]string)
	home := &HomeContext{Page: b.view(ctx, root, "/")}
	for _, cat := range model.Categories {
		items, err := b.queries.ListLivePagesByType(ctx, store.ListLivePagesByTypeParams{
			PageType: string(cat.Detail),
			Limit:    HomeItemsPerList,
		})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", cat.Key, err)
		}
		section := CategoryItems{Key: cat.Key, Items: make([]PageView, 0, len(items))}
		for _, p := range items {
			v, err := b.cardView(ctx, p, memo)
			if err != nil {
				return nil, err
			}
			section.Items = append(section.Items, v)
		}

		index, err := b.queries.GetFirstLivePageByType(ctx, string(cat.Index))
		switch {
		case err == nil:
			section.IndexTitle = index.Title
			if section.IndexURL, err = pageURL(ctx, b.queries, index, memo); err != nil {
				return nil, err
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return nil, fmt.Errorf("loading %s index: %w", cat.Key, err)
		}
		home.Categories = append(home.Categories, section)
	}
	return home, nil
}

// Listing returns one page of live items of a category, newest first.
// rawPage is the unparsed "page" query value.
func (b *ContextBuilder) Listing(ctx context.Context, cat model.Category, rawPage string) (*ListingContext, error) {
	total, err := b.queries.CountLivePagesByType(ctx, string(cat.Detail))
	if err != nil {
		return nil, fmt.Errorf("counting %s: %w", cat.Key, err)
	}
	p := ResolvePage(rawPage, total, ListingPageSize)

	pages, err := b.queries.ListLivePagesByType(ctx, store.ListLivePagesByTypeParams{
		PageType: string(cat.Detail),
		Limit:    int64(p.PerPage),
		Offset:   int64(p.Offset()),
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", cat.Key, err)
	}

	memo := make(map[int64]string)
	out := &ListingContext{Category: cat.Key, Paginator: p, Items: make([]PageView, 0, len(pages))}
	for _, page := range pages {
		v, err := b.cardView(ctx, page, memo)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, v)
	}
	return out, nil
}

// Page returns the full view of a page with its body rendered.
func (b *ContextBuilder) Page(ctx context.Context, page store.Page) (PageView, error) {
	u, err := pageURL(ctx, b.queries, page, nil)
	if err != nil {
		return PageView{}, err
	}
	v := b.view(ctx, page, u)
	if model.PageType(page.PageType).HasContent() {
		blocks, err := model.ParseBody(page.Body)
		if err != nil {
			slog.Warn("stored page body does not parse", "page_id", page.ID, "error", err)
		}
		v.Body = b.body.Render(blocks, b.resolveImage(ctx))
	}
	return v, nil
}

func (b *ContextBuilder) cardView(ctx context.Context, page store.Page, memo map[int64]string) (PageView, error) {
	u, err := pageURL(ctx, b.queries, page, memo)
	if err != nil {
		return PageView{}, err
	}
	return b.view(ctx, page, u), nil
}

func (b *ContextBuilder) view(ctx context.Context, page store.Page, url string) PageView {
	return PageView{
		ID:               page.ID,
		Type:             model.PageType(page.PageType),
		Title:            page.Title,
		Slug:             page.Slug,
		URL:              url,
		Description:      page.Description,
		Preview:          b.imageRef(ctx, page.PreviewImageID),
		HeroImage:        b.imageRef(ctx, page.HeroImageID),
		HeroTitle:        page.HeroTitle,
		HeroSubtitle:     page.HeroSubtitle,
		FirstPublishedAt: util.NullTimePtr(page.FirstPublishedAt),
		LastPublishedAt:  util.NullTimePtr(page.LastPublishedAt),
	}
}

func (b *ContextBuilder) imageRef(ctx context.Context, id sql.NullInt64) *ImageRef {
	if !id.Valid {
		return nil
	}
	img, err := b.queries.GetImageByID(ctx, id.Int64)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("failed to load image", "image_id", id.Int64, "error", err)
		}
		return nil
	}
	return &ImageRef{
		ID:         img.ID,
		Title:      img.Title,
		URL:        b.links.URL(img.OriginalKey),
		PreviewURL: b.links.URL(img.PreviewKey),
		Width:      img.Width,
		Height:     img.Height,
	}
}

func (b *ContextBuilder) resolveImage(ctx context.Context) ImageResolver {
	return func(id int64) (string, string, bool) {
		ref := b.imageRef(ctx, util.NullInt64FromValue(id))
		if ref == nil {
			return "", "", false
		}
		return ref.URL, ref.Title, true
	}
}
