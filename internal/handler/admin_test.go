// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/testutil"
)

func TestAdmin_AccessControl(t *testing.T) {
	app := newTestApp(t)
	testutil.CreateUser(t, app.db, "b@x.com", "+77001112233", "111111111111", testutil.UserOptions{Password: "pass-word-1"})

	anon := app.client(t)
	resp, _ := app.get(t, anon, RouteAdminPages)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, RouteLogin+"?next="+url.QueryEscape(RouteAdminPages), location(resp))

	member := app.client(t)
	app.login(t, member, "b@x.com", "pass-word-1")
	for _, path := range []string{RouteAdminPages, RouteAdminImages, RouteAdminUsers, RouteAdminEvents, RouteAdminScheduler} {
		resp, _ := app.get(t, member, path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	staff, _ := app.staffClient(t)
	resp, _ = app.get(t, staff, RouteAdmin)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, RouteAdminPages, location(resp))

	resp, body := app.get(t, staff, RouteAdminPages)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Мероприятия")
	assert.Contains(t, body, `href="/admin"`)
}

func TestAdminPages_CreatePublishDelete(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)
	events := testutil.PageByType(t, app.db, "event_index")
	parent := strconv.FormatInt(events.ID, 10)

	resp, body := app.get(t, staff, fmt.Sprintf("%s/new?parent=%s&type=event", RouteAdminPages, parent))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="page_type" value="event"`)

	resp, _ = app.post(t, staff, RouteAdminPages, url.Values{
		"parent_id":   {parent},
		"page_type":   {"event"},
		"title":       {"Conference 2026"},
		"description": {"Annual meeting"},
		"body":        {`[{"type":"markdown","value":"**Join** us"}]`},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	edit := location(resp)
	assert.Regexp(t, `^/admin/pages/\d+/edit$`, edit)

	resp, body = app.get(t, staff, edit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Страница создана.")
	assert.Contains(t, body, `value="conference-2026"`)

	// Drafts are not public.
	visitor := app.client(t)
	resp, _ = app.get(t, visitor, "/events/conference-2026")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var id int64
	_, err := fmt.Sscanf(edit, "/admin/pages/%d/edit", &id)
	require.NoError(t, err)

	resp, _ = app.post(t, staff, fmt.Sprintf("%s/%d/publish", RouteAdminPages, id), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, RouteAdminPages, location(resp))

	resp, body = app.get(t, visitor, "/events/conference-2026")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<strong>Join</strong> us")

	resp, body = app.get(t, staff, fmt.Sprintf("%s/%d/revisions", RouteAdminPages, id))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Conference 2026")

	resp, _ = app.post(t, staff, fmt.Sprintf("%s/%d/delete", RouteAdminPages, id), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = app.get(t, visitor, "/events/conference-2026")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminPages_CreateErrors(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)
	news := testutil.PageByType(t, app.db, "news_index")
	testutil.CreateLivePage(t, app.db, news, "news", "Taken", "taken", base)
	parent := strconv.FormatInt(news.ID, 10)

	t.Run("wrong child type", func(t *testing.T) {
		resp, _ := app.post(t, staff, RouteAdminPages, url.Values{
			"parent_id": {parent}, "page_type": {"event"}, "title": {"Misplaced"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		_, body := app.get(t, staff, location(resp))
		assert.Contains(t, body, "Этот тип страницы нельзя создать здесь.")
	})

	t.Run("second singleton", func(t *testing.T) {
		home := testutil.PageByType(t, app.db, "home")
		resp, _ := app.get(t, staff, fmt.Sprintf("%s/new?parent=%d&type=about", RouteAdminPages, home.ID))
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	})

	t.Run("slug taken", func(t *testing.T) {
		resp, body := app.post(t, staff, RouteAdminPages, url.Values{
			"parent_id": {parent}, "page_type": {"news"}, "title": {"Taken"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Этот адрес уже занят соседней страницей.")
	})

	t.Run("bad go-live date", func(t *testing.T) {
		resp, body := app.post(t, staff, RouteAdminPages, url.Values{
			"parent_id": {parent}, "page_type": {"news"}, "title": {"Later"}, "go_live_at": {"tomorrow"},
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `value="tomorrow"`)
	})
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (a *testApp) upload(t *testing.T, c *http.Client, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Зал"))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := c.Post(a.server.URL+RouteAdminImages, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	readBody(t, resp)
	return resp
}

func TestAdminImages_UploadServeDelete(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)

	resp := app.upload(t, staff, "hall.png", testPNG(t, 64, 48))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := app.get(t, staff, RouteAdminImages)
	assert.Contains(t, body, "Изображение загружено.")
	assert.Contains(t, body, "Зал")

	images, total, err := app.images.List(context.Background(), 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	img := images[0]

	visitor := app.client(t)
	resp, body = app.get(t, visitor, RouteMedia+"/"+img.OriginalKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)

	resp, _ = app.get(t, visitor, RouteMedia+"/previews/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = app.post(t, staff, fmt.Sprintf("%s/%d/delete", RouteAdminImages, img.ID), nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	resp, _ = app.get(t, visitor, RouteMedia+"/"+img.OriginalKey)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminImages_RejectsNonImage(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)

	resp := app.upload(t, staff, "notes.png", []byte("plain text, not an image"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body := app.get(t, staff, RouteAdminImages)
	assert.Contains(t, body, "Загрузите корректное изображение JPEG, PNG, GIF или WebP.")
}

func TestAdminUsers_SetActive(t *testing.T) {
	app := newTestApp(t)
	staff, staffID := app.staffClient(t)
	member := testutil.CreateUser(t, app.db, "b@x.com", "+77001112233", "111111111111", testutil.UserOptions{Password: "pass-word-1"})
	memberClient := app.client(t)
	app.login(t, memberClient, "b@x.com", "pass-word-1")

	resp, body := app.get(t, staff, RouteAdminUsers)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "b@x.com")
	assert.Contains(t, body, "admin@x.com")

	resp, _ = app.post(t, staff, fmt.Sprintf("%s/%d/active", RouteAdminUsers, member.ID), url.Values{"active": {"0"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	stored, err := store.New(app.db).GetUserByID(context.Background(), member.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	// The deactivated member's session no longer authenticates.
	resp, _ = app.get(t, memberClient, RouteProfile)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = app.post(t, staff, fmt.Sprintf("%s/%d/active", RouteAdminUsers, staffID), url.Values{"active": {"0"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body = app.get(t, staff, RouteAdminUsers)
	assert.Contains(t, body, "Нельзя деактивировать собственный аккаунт.")
}

func TestAdminEvents(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)
	_, err := store.New(app.db).CreateEvent(context.Background(), store.CreateEventParams{
		Level:     "WARN",
		Category:  "auth",
		Message:   "login failed",
		Metadata:  `{"email":"ghost@x.com"}`,
		CreatedAt: base,
	})
	require.NoError(t, err)

	resp, body := app.get(t, staff, RouteAdminEvents)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "login failed")
	assert.Contains(t, body, "01.03.2025 10:00")
}

func TestAdminScheduler(t *testing.T) {
	app := newTestApp(t)
	staff, _ := app.staffClient(t)

	resp, body := app.get(t, staff, RouteAdminScheduler)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "publish-scheduled")

	resp, _ = app.post(t, staff, RouteAdminScheduler+"/publish-scheduled/run", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, []string{"publish-scheduled"}, app.jobs.triggered)
	_, body = app.get(t, staff, RouteAdminScheduler)
	assert.Contains(t, body, "Задача выполнена.")

	app.jobs.err = errors.New("boom")
	app.post(t, staff, RouteAdminScheduler+"/publish-scheduled/run", nil)
	_, body = app.get(t, staff, RouteAdminScheduler)
	assert.Contains(t, body, "Задача завершилась ошибкой.")

	app.post(t, staff, RouteAdminScheduler+"/nope/run", nil)
	_, body = app.get(t, staff, RouteAdminScheduler)
	assert.Contains(t, body, "Страница не найдена")
}
