// Package seo builds the crawler-facing documents of the site.
package seo

import (
	"encoding/xml"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Change frequencies used by the page tree.
const (
	ChangeFreqDaily  ChangeFreq = "daily"
	ChangeFreqWeekly ChangeFreq = "weekly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapPage is a live page at its public path.
type SitemapPage struct {
	Path      string
	UpdatedAt time.Time
	// Index pages change whenever a child is published.
	Index bool
}

// SitemapBuilder builds sitemap XML for the page tree.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a builder for absolute URLs under siteURL.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddPage adds a page to the sitemap. The root path gets top priority.
func (b *SitemapBuilder) AddPage(page SitemapPage) {
	u := SitemapURL{
		Loc:        b.siteURL + page.Path,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.6",
	}
	switch {
	case page.Path == "/":
		u.ChangeFreq = ChangeFreqDaily
		u.Priority = "1.0"
	case page.Index:
		u.ChangeFreq = ChangeFreqDaily
		u.Priority = "0.8"
	}
	if !page.UpdatedAt.IsZero() {
		u.LastMod = page.UpdatedAt.UTC().Format(time.RFC3339)
	}
	b.urls = append(b.urls, u)
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap is a convenience function to generate a sitemap from pages.
func GenerateSitemap(siteURL string, pages []SitemapPage) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	for _, p := range pages {
		builder.AddPage(p)
	}
	return builder.Build()
}
