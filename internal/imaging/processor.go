// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded images, applies EXIF orientation and
// produces the preview variant.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/ocms-community/internal/model"
)

// ErrUnsupportedFormat is returned for data that is not jpeg, png, gif or webp.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Result holds an oriented original and its preview, both encoded.
type Result struct {
	Original      []byte
	Preview       []byte
	Width         int
	Height        int
	MimeType      string
	Ext           string
	PreviewWidth  int
	PreviewHeight int
}

// Processor turns upload bytes into stored variants.
type Processor struct {
	previewWidth  int
	previewHeight int
	quality       int
}

// NewProcessor creates a processor producing model.PreviewWidth x
// model.PreviewHeight center-cropped previews.
func NewProcessor() *Processor {
	return &Processor{
		previewWidth:  model.PreviewWidth,
		previewHeight: model.PreviewHeight,
		quality:       model.PreviewQuality,
	}
}

// Process reads an uploaded image and returns the re-encoded original
// (EXIF stripped, orientation applied) and the preview variant.
func (p *Processor) Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	// WebP has no pure Go encoder, so it is stored as JPEG.
	outFormat := format
	if outFormat == "webp" {
		outFormat = "jpeg"
	}

	original, err := encodeImage(img, outFormat, 95)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	preview := imaging.Fill(img, p.previewWidth, p.previewHeight, imaging.Center, imaging.Lanczos)
	previewData, err := encodeImage(preview, outFormat, p.quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	bounds := img.Bounds()
	pb := preview.Bounds()
	return &Result{
		Original:      original,
		Preview:       previewData,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		MimeType:      formatToMimeType(outFormat),
		Ext:           formatToExt(outFormat),
		PreviewWidth:  pb.Dx(),
		PreviewHeight: pb.Dy(),
	}, nil
}

// DetectMimeType sniffs the MIME type of image data.
func DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// readExifOrientation returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation applies an EXIF orientation value:
// 2 flip H, 3 rotate 180, 4 flip V, 5 transpose, 6 rotate 90 CW,
// 7 transverse, 8 rotate 90 CCW.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat returns "" for anything but jpeg, png, gif and webp.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

func formatToMimeType(format string) string {
	switch format {
	case "jpeg", "jpg":
		return model.MimeTypeJPEG
	case "png":
		return model.MimeTypePNG
	case "gif":
		return model.MimeTypeGIF
	case "webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}

func formatToExt(format string) string {
	switch format {
	case "png":
		return ".png"
	case "gif":
		return ".gif"
	default:
		return ".jpg"
	}
}

// StorageName builds a storage-safe file name from the upload name and ext.
func StorageName(filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(strings.ReplaceAll(filename, "\\", "/")), filepath.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "image"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name + ext
}
