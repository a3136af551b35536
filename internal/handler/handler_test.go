// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-community/internal/cache"
	"github.com/olegiv/ocms-community/internal/i18n"
	"github.com/olegiv/ocms-community/internal/middleware"
	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/scheduler"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/session"
	"github.com/olegiv/ocms-community/internal/storage"
	"github.com/olegiv/ocms-community/internal/testutil"
	"github.com/olegiv/ocms-community/internal/version"
	"github.com/olegiv/ocms-community/web"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(testutil.TestLogger(), "ru"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeJobs records triggered job names.
type fakeJobs struct {
	triggered []string
	err       error
}

func (f *fakeJobs) Jobs() []scheduler.JobInfo {
	return []scheduler.JobInfo{{Name: "publish-scheduled", Description: "Publishes due pages", Schedule: "* * * * *"}}
}

func (f *fakeJobs) Trigger(name string) error {
	if name != "publish-scheduled" {
		return scheduler.ErrUnknownJob
	}
	f.triggered = append(f.triggered, name)
	return f.err
}

type testApp struct {
	db      *sql.DB
	server  *httptest.Server
	jobs    *fakeJobs
	pages   *service.PageService
	images  *service.ImageService
	backend *storage.Memory
}

type appOption func(*Deps)

func withRateLimit(perMinute int) appOption {
	return func(d *Deps) { d.RateLimiter = middleware.NewIPRateLimiter(perMinute) }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	db := testutil.SeededDB(t)
	sm := session.New(db, true)

	templates, err := fs.Sub(web.Templates, "templates")
	require.NoError(t, err)
	renderer, err := render.New(render.Config{
		TemplatesFS:    templates,
		SessionManager: sm,
		SiteName:       "Community",
		IsDev:          true,
	})
	require.NoError(t, err)

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	body := service.NewBodyRenderer()
	links := service.NewMediaLinker(RouteMedia)
	builder := service.NewContextBuilder(db, body, links, c, time.Minute)
	backend := storage.NewMemory()
	app := &testApp{
		db:      db,
		jobs:    &fakeJobs{},
		pages:   service.NewPageService(db, body, builder),
		images:  service.NewImageService(db, backend, links, builder),
		backend: backend,
	}

	static, err := fs.Sub(web.Static, "static")
	require.NoError(t, err)

	deps := Deps{
		DB:             db,
		SessionManager: sm,
		Renderer:       renderer,
		Accounts:       service.NewAccountService(db),
		Pages:          app.pages,
		Images:         app.images,
		Events:         service.NewEventService(db),
		Builder:        builder,
		Jobs:           app.jobs,
		Static:         static,
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		IsDev:          true,
		Version:        version.New("v0.0.0-test", "", ""),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.RateLimiter != nil {
		t.Cleanup(deps.RateLimiter.Close)
	}

	app.server = httptest.NewServer(NewRouter(deps))
	t.Cleanup(app.server.Close)
	return app
}

// client returns a browser-like client that keeps cookies and does not
// follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// login signs c in and fails the test if the credentials are rejected.
func (a *testApp) login(t *testing.T, c *http.Client, email, password string) {
	t.Helper()
	resp, _ := a.post(t, c, RouteLogin, url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode, "login as %s", email)
}

// staffClient returns a client logged in as a new staff user.
func (a *testApp) staffClient(t *testing.T) (*http.Client, int64) {
	t.Helper()
	u := testutil.CreateUser(t, a.db, "admin@x.com", "+77000000001", "000000000001", testutil.UserOptions{Password: "admin-pass-1", Staff: true})
	c := a.client(t)
	a.login(t, c, u.Email, "admin-pass-1")
	return c, u.ID
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

func registrationForm() url.Values {
	return url.Values{
		"email":      {"a@x.com"},
		"iin":        {"123456789012"},
		"first_name": {"Ivan"},
		"last_name":  {"Petrov"},
		"city":       {"Almaty"},
		"phone":      {"+77001234567"},
		"work_place": {"City Hospital"},
		"specialty":  {"Cardiology"},
		"password1":  {"s3cret-pass"},
		"password2":  {"s3cret-pass"},
	}
}

func contains(body string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(body, p) {
			return false
		}
	}
	return true
}
