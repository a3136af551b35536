// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSitemap(t *testing.T) {
	updated := time.Date(2025, 4, 2, 8, 30, 0, 0, time.FixedZone("ALMT", 5*3600))
	data, err := GenerateSitemap("https://example.kz/", []SitemapPage{
		{Path: "/"},
		{Path: "/news", Index: true},
		{Path: "/news/opening", UpdatedAt: updated},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), xml.Header))

	var doc Sitemap
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, XMLNamespace, doc.XMLNS)
	require.Len(t, doc.URLs, 3)

	assert.Equal(t, SitemapURL{Loc: "https://example.kz/", ChangeFreq: ChangeFreqDaily, Priority: "1.0"}, doc.URLs[0])
	assert.Equal(t, "0.8", doc.URLs[1].Priority)
	assert.Equal(t, "https://example.kz/news/opening", doc.URLs[2].Loc)
	assert.Equal(t, "2025-04-02T03:30:00Z", doc.URLs[2].LastMod)
	assert.Equal(t, ChangeFreqWeekly, doc.URLs[2].ChangeFreq)
}

func TestGenerateSitemap_Empty(t *testing.T) {
	data, err := GenerateSitemap("https://example.kz", nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<urlset")
	assert.NotContains(t, string(data), "<url>")
}

func TestBuildRobots(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RobotsConfig
		want    []string
		notWant []string
	}{
		{
			name:    "production",
			cfg:     RobotsConfig{SiteURL: "https://example.kz/"},
			want:    []string{"Disallow: /admin\n", "Disallow: /users\n", "Allow: /\n", "Sitemap: https://example.kz/sitemap.xml\n"},
			notWant: []string{"Disallow: /\n"},
		},
		{
			name:    "no site url",
			cfg:     RobotsConfig{},
			want:    []string{"Allow: /\n"},
			notWant: []string{"Sitemap:"},
		},
		{
			name:    "disallow all",
			cfg:     RobotsConfig{SiteURL: "https://example.kz", DisallowAll: true},
			want:    []string{"User-agent: *\n", "Disallow: /\n"},
			notWant: []string{"Sitemap:", "Allow: /"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildRobots(tt.cfg)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, got, nw)
			}
		})
	}
}
