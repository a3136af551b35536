// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-community/internal/i18n"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/testutil"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(testutil.TestLogger(), "ru"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestBlankLinesRegex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no blank lines",
			input:    "line1\nline2\nline3",
			expected: "line1\nline2\nline3",
		},
		{
			name:     "one blank line (two newlines)",
			input:    "line1\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "two blank lines (three newlines)",
			input:    "line1\n\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "multiple blank lines",
			input:    "line1\n\n\n\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "blank lines with spaces",
			input:    "line1\n  \n\t\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "windows line endings",
			input:    "line1\r\n\r\n\r\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "mixed line endings",
			input:    "line1\n\r\n\nline2",
			expected: "line1\nline2",
		},
		{
			name:     "blank lines at start",
			input:    "\n\n\nline1\nline2",
			expected: "\nline1\nline2",
		},
		{
			name:     "blank lines at end",
			input:    "line1\nline2\n\n\n",
			expected: "line1\nline2\n",
		},
		{
			name:     "multiple sections with blank lines",
			input:    "a\n\n\nb\n\n\nc",
			expected: "a\nb\nc",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only newlines",
			input:    "\n\n\n\n",
			expected: "\n",
		},
		{
			name:     "html with blank lines",
			input:    "<div>\n\n\n<p>text</p>\n\n\n</div>",
			expected: "<div>\n<p>text</p>\n</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(blankLinesRegex.ReplaceAll([]byte(tt.input), []byte("\n")))
			if got != tt.expected {
				t.Errorf("blankLinesRegex.ReplaceAll(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}


func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs()

	truncate := funcs["truncate"].(func(string, int) string)
	assert.Equal(t, "Новос...", truncate("Новости недели", 5))
	assert.Equal(t, "short", truncate("short", 10))

	formatDate := funcs["formatDate"].(func(any) string)
	ts := time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "15.03.2025", formatDate(ts))
	assert.Equal(t, "15.03.2025", formatDate(&ts))
	assert.Equal(t, "", formatDate((*time.Time)(nil)))
	assert.Equal(t, "", formatDate(time.Time{}))

	formatDateTime := funcs["formatDateTime"].(func(any) string)
	assert.Equal(t, "15.03.2025 09:30", formatDateTime(ts))

	inputDateTime := funcs["inputDateTime"].(func(any) string)
	assert.Equal(t, "2025-03-15T09:30", inputDateTime(ts))

	dict := funcs["dict"].(func(...any) (map[string]any, error))
	m, err := dict("a", 1, "b", "two")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
	_, err = dict("a")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)

	seq := funcs["seq"].(func(int, int) []int)
	assert.Equal(t, []int{1, 2, 3}, seq(1, 3))
}

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": {Data: []byte(`{{define "base"}}<html lang="{{.Lang}}">{{if .Flash}}<p class="{{.FlashType}}">{{.Flash}}</p>{{end}}


{{template "content" .}}</html>{{end}}`)},
		"layouts/admin.html": {Data: []byte(`{{define "content"}}<nav>admin</nav>{{template "admin_content" .}}{{end}}`)},
		"partials/user.html": {Data: []byte(`{{define "user"}}{{with .User}}{{.Email}}{{else}}anon{{end}}{{end}}`)},
		"site/home.html":     {Data: []byte(`{{define "content"}}<h1>{{.Title}}</h1>{{template "user" .}} {{.SiteName}} {{.Path}}{{end}}`)},
		"users/login.html":   {Data: []byte(`{{define "content"}}{{T .Lang "account.title.login"}}{{end}}`)},
		"admin/pages.html":   {Data: []byte(`{{define "admin_content"}}pages{{end}}`)},
	}
}

func newTestRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()
	r, err := New(Config{TemplatesFS: testTemplates(), SessionManager: sm, SiteName: "Community"})
	require.NoError(t, err)
	return r
}

func TestNew_TemplateGroups(t *testing.T) {
	r := newTestRenderer(t, nil)

	for _, name := range []string{"site/home", "users/login", "admin/pages"} {
		assert.True(t, r.Has(name), name)
	}
	assert.False(t, r.Has("pages"))
}

func TestNew_ParseError(t *testing.T) {
	fsys := testTemplates()
	fsys["site/broken.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Title`)}

	_, err := New(Config{TemplatesFS: fsys})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	r := newTestRenderer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/about", nil)
	user := &store.User{ID: 1, Email: "a@x.com"}
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyUser, user))
	rec := httptest.NewRecorder()

	require.NoError(t, r.Render(rec, req, "site/home", TemplateData{Title: "Главная"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="ru">`)
	assert.Contains(t, body, "<h1>Главная</h1>a@x.com Community /about")
	assert.NotContains(t, body, "\n\n", "blank lines are collapsed")
}

func TestRenderStatus(t *testing.T) {
	r := newTestRenderer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/login", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ContextKeyLanguage, "en"))
	rec := httptest.NewRecorder()

	require.NoError(t, r.RenderStatus(rec, req, http.StatusUnprocessableEntity, "users/login", TemplateData{}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), i18n.T("en", "account.title.login"))
}

func TestRender_AdminLayout(t *testing.T) {
	r := newTestRenderer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/pages", nil)
	require.NoError(t, r.Render(rec, req, "admin/pages", TemplateData{}))

	assert.Contains(t, rec.Body.String(), "<nav>admin</nav>pages")
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t, nil)

	rec := httptest.NewRecorder()
	err := r.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), "site/missing", TemplateData{})
	assert.Error(t, err)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestRender_FlashIsTranslatedOnce(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	var first, second string
	h := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.SetFlash(req, "account.notice.logged_in", FlashSuccess)

		rec := httptest.NewRecorder()
		require.NoError(t, r.Render(rec, req, "site/home", TemplateData{}))
		first = rec.Body.String()

		rec = httptest.NewRecorder()
		require.NoError(t, r.Render(rec, req, "site/home", TemplateData{}))
		second = rec.Body.String()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := i18n.T("ru", "account.notice.logged_in")
	assert.Contains(t, first, `<p class="success">`+want+`</p>`)
	assert.False(t, strings.Contains(second, want), "flash is shown once")
}
