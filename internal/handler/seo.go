package handler

import (
	"net/http"

	"github.com/olegiv/ocms-community/internal/seo"
	"github.com/olegiv/ocms-community/internal/service"
)

// SEOHandler serves sitemap.xml and robots.txt.
type SEOHandler struct {
	pages   *service.PageService
	siteURL string
	isDev   bool
}

// NewSEOHandler creates a new SEOHandler. An empty siteURL is derived
// from each request.
func NewSEOHandler(pages *service.PageService, siteURL string, isDev bool) *SEOHandler {
	return &SEOHandler{pages: pages, siteURL: siteURL, isDev: isDev}
}

// Sitemap lists every live page.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.PublicPages(r.Context())
	if err != nil {
		logAndInternalError(w, r, "failed to list pages for sitemap", "error", err)
		return
	}

	entries := make([]seo.SitemapPage, 0, len(pages))
	for _, p := range pages {
		entries = append(entries, seo.SitemapPage{Path: p.URL, UpdatedAt: p.UpdatedAt, Index: p.Index})
	}
	data, err := seo.GenerateSitemap(h.baseURL(r), entries)
	if err != nil {
		logAndInternalError(w, r, "failed to build sitemap", "error", err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

// Robots keeps crawlers out of the account and admin areas. Development
// sites disallow everything.
func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	body := seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.baseURL(r),
		DisallowAll: h.isDev,
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (h *SEOHandler) baseURL(r *http.Request) string {
	if h.siteURL != "" {
		return h.siteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
