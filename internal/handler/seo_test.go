package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-community/internal/testutil"
)

func TestSitemap(t *testing.T) {
	app := newTestApp(t, func(d *Deps) { d.SiteURL = "https://example.kz" })
	news := testutil.PageByType(t, app.db, "news_index")
	testutil.CreateLivePage(t, app.db, news, "news", "Открытие", "opening", base)
	c := app.client(t)

	resp, body := app.get(t, c, "/sitemap.xml")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/xml")
	assert.Contains(t, body, "<loc>https://example.kz/</loc>")
	assert.Contains(t, body, "<loc>https://example.kz/news</loc>")
	assert.Contains(t, body, "<loc>https://example.kz/news/opening</loc>")
}

func TestRobots_DevelopmentDisallowsAll(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t)

	resp, body := app.get(t, c, "/robots.txt")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Disallow: /\n")
	assert.NotContains(t, body, "Sitemap:")
}
