package service

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/storage"
	"github.com/olegiv/ocms-community/internal/testutil"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newImageService(t *testing.T) (*ImageService, *storage.Memory, *countingNotifier, *sql.DB) {
	t.Helper()
	db := testutil.SeededDB(t)
	backend := storage.NewMemory()
	n := &countingNotifier{}
	return NewImageService(db, backend, NewMediaLinker("/media/"), n), backend, n, db
}

func TestImageService_Upload(t *testing.T) {
	svc, backend, _, _ := newImageService(t)
	ctx := context.Background()

	img, err := svc.Upload(ctx, bytes.NewReader(testPNG(t, 800, 600)), "Team Photo.png", "", 0)
	require.NoError(t, err)

	assert.Equal(t, "Team Photo", img.Title)
	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, int64(800), img.Width)
	assert.Equal(t, int64(600), img.Height)
	assert.True(t, strings.HasPrefix(img.OriginalKey, "originals/"+img.Uuid+"/"), img.OriginalKey)
	assert.True(t, strings.HasSuffix(img.PreviewKey, "/team-photo.png"), img.PreviewKey)
	assert.Equal(t, 2, backend.Len())

	assert.Equal(t, "/media/"+img.OriginalKey, svc.OriginalURL(img))
	assert.Equal(t, "/media/"+img.PreviewKey, svc.PreviewURL(img))

	rc, err := svc.Open(ctx, img.PreviewKey)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, model.PreviewWidth, cfg.Width)
	assert.Equal(t, model.PreviewHeight, cfg.Height)

	ok, err := svc.Exists(ctx, img.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImageService_UploadRejects(t *testing.T) {
	svc, backend, _, _ := newImageService(t)
	ctx := context.Background()

	_, err := svc.Upload(ctx, strings.NewReader("plain text, not an image"), "notes.txt", "", 0)
	assert.ErrorIs(t, err, ErrInvalidImage)

	big := bytes.Repeat([]byte{0}, model.MaxImageUploadSize+1)
	_, err = svc.Upload(ctx, bytes.NewReader(big), "big.png", "", 0)
	assert.ErrorIs(t, err, ErrInvalidImage)

	assert.Equal(t, 0, backend.Len())
}

func TestImageService_DeleteClearsReferences(t *testing.T) {
	svc, backend, n, db := newImageService(t)
	pages := NewPageService(db, NewBodyRenderer(), nil)
	ctx := context.Background()

	img, err := svc.Upload(ctx, bytes.NewReader(testPNG(t, 40, 40)), "a.png", "Cover", 0)
	require.NoError(t, err)
	assert.Equal(t, "Cover", img.Title)

	about := testutil.PageByType(t, db, "about")
	_, err = pages.Update(ctx, about.ID, PageInput{
		Title:          "About",
		Slug:           "about",
		PreviewImageID: sql.NullInt64{Int64: img.ID, Valid: true},
	}, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, img.ID))
	assert.Equal(t, 0, backend.Len())
	assert.Equal(t, 1, n.n)

	got, err := pages.Get(ctx, about.ID)
	require.NoError(t, err)
	assert.False(t, got.PreviewImageID.Valid)

	_, err = svc.Get(ctx, img.ID)
	assert.ErrorIs(t, err, ErrImageNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, img.ID), ErrImageNotFound)
	ok, err := svc.Exists(ctx, img.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImageService_List(t *testing.T) {
	svc, _, _, _ := newImageService(t)
	ctx := context.Background()
	for _, name := range []string{"one.png", "two.png", "three.png"} {
		_, err := svc.Upload(ctx, bytes.NewReader(testPNG(t, 10, 10)), name, "", 0)
		require.NoError(t, err)
	}

	images, total, err := svc.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, images, 2)
}

func TestMediaLinker(t *testing.T) {
	l := NewMediaLinker("https://cdn.example.com/media/")
	assert.Equal(t, "https://cdn.example.com/media/previews/x/a.png", l.URL("previews/x/a.png"))
	assert.Equal(t, "", l.URL(""))
}
