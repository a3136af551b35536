// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-community/internal/imaging"
	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/storage"
	"github.com/olegiv/ocms-community/internal/store"
	"github.com/olegiv/ocms-community/internal/util"
)

// Image errors.
var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidImage  = errors.New("invalid image")
)

// MediaLinker builds public URLs for storage keys.
type MediaLinker struct {
	base string
}

// NewMediaLinker creates a linker for keys served under base, e.g. "/media".
func NewMediaLinker(base string) MediaLinker {
	return MediaLinker{base: strings.TrimRight(base, "/")}
}

// URL returns the public URL of key.
func (m MediaLinker) URL(key string) string {
	if key == "" {
		return ""
	}
	return m.base + "/" + strings.TrimLeft(key, "/")
}

// ImageService stores uploaded images and their preview variants.
type ImageService struct {
	db        *sql.DB
	queries   *store.Queries
	backend   storage.Backend
	processor *imaging.Processor
	links     MediaLinker
	changed   ChangeNotifier
}

// NewImageService creates an ImageService. changed may be nil.
func NewImageService(db *sql.DB, backend storage.Backend, links MediaLinker, changed ChangeNotifier) *ImageService {
	return &ImageService{
		db:        db,
		queries:   store.New(db),
		backend:   backend,
		processor: imaging.NewProcessor(),
		links:     links,
		changed:   changed,
	}
}

// Upload processes an image, stores the original and preview, and records it.
func (s *ImageService) Upload(ctx context.Context, r io.Reader, filename, title string, userID int64) (store.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, model.MaxImageUploadSize+1))
	if err != nil {
		return store.Image{}, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > model.MaxImageUploadSize {
		return store.Image{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, model.MaxImageUploadSize)
	}
	if !model.IsSupportedImageType(imaging.DetectMimeType(data)) {
		return store.Image{}, fmt.Errorf("%w: unsupported type", ErrInvalidImage)
	}

	original, err := util.SanitizeFilename(filename)
	if err != nil {
		original = "image"
	}

	res, err := s.processor.Process(bytes.NewReader(data))
	if err != nil {
		return store.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	id := uuid.New().String()
	name := imaging.StorageName(original, res.Ext)
	originalKey := path.Join("originals", id, name)
	previewKey := path.Join("previews", id, name)

	if err := s.backend.Put(ctx, originalKey, res.MimeType, bytes.NewReader(res.Original)); err != nil {
		return store.Image{}, fmt.Errorf("storing original: %w", err)
	}
	if err := s.backend.Put(ctx, previewKey, res.MimeType, bytes.NewReader(res.Preview)); err != nil {
		s.removeObjects(ctx, originalKey)
		return store.Image{}, fmt.Errorf("storing preview: %w", err)
	}

	title = cleanText(title)
	if title == "" {
		title = strings.TrimSuffix(original, path.Ext(original))
	}
	if len([]rune(title)) > model.MaxTitleLength {
		title = string([]rune(title)[:model.MaxTitleLength])
	}

	var uploadedBy sql.NullInt64
	if userID > 0 {
		uploadedBy = util.NullInt64FromValue(userID)
	}

	img, err := s.queries.CreateImage(ctx, store.CreateImageParams{
		Uuid:        id,
		Title:       title,
		Filename:    original,
		MimeType:    res.MimeType,
		Width:       int64(res.Width),
		Height:      int64(res.Height),
		Size:        int64(len(res.Original)),
		OriginalKey: originalKey,
		PreviewKey:  previewKey,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		s.removeObjects(ctx, originalKey, previewKey)
		return store.Image{}, fmt.Errorf("creating image record: %w", err)
	}

	slog.Info("image uploaded", "image_id", img.ID, "uuid", id, "backend", s.backend.Name(),
		"category", model.EventCategoryMedia)
	return img, nil
}

// Get loads an image by id.
func (s *ImageService) Get(ctx context.Context, id int64) (store.Image, error) {
	img, err := s.queries.GetImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Image{}, ErrImageNotFound
		}
		return store.Image{}, fmt.Errorf("loading image: %w", err)
	}
	return img, nil
}

// Exists reports whether an image with id exists.
func (s *ImageService) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrImageNotFound) {
		return false, nil
	}
	return err == nil, err
}

// List returns one page of images, newest first, and the total count.
func (s *ImageService) List(ctx context.Context, limit, offset int) ([]store.Image, int64, error) {
	total, err := s.queries.CountImages(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting images: %w", err)
	}
	images, err := s.queries.ListImages(ctx, store.ListImagesParams{Limit: int64(limit), Offset: int64(offset)})
	if err != nil {
		return nil, 0, fmt.Errorf("listing images: %w", err)
	}
	return images, total, nil
}

// Delete removes the image record and its files. Pages using it as a
// preview or hero keep working with the reference cleared.
func (s *ImageService) Delete(ctx context.Context, id int64) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.queries.DeleteImage(ctx, id); err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	s.removeObjects(ctx, img.OriginalKey, img.PreviewKey)
	if s.changed != nil {
		s.changed.ContentChanged(ctx)
	}
	slog.Info("image deleted", "image_id", id, "category", model.EventCategoryMedia)
	return nil
}

// Open returns the stored object for a media key.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Open(ctx, key)
}

// OriginalURL and PreviewURL return public URLs for an image.
func (s *ImageService) OriginalURL(img store.Image) string { return s.links.URL(img.OriginalKey) }
func (s *ImageService) PreviewURL(img store.Image) string  { return s.links.URL(img.PreviewKey) }

func (s *ImageService) removeObjects(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete media object", "key", key, "error", err, "category", model.EventCategoryMedia)
		}
	}
}
