package store

import (
	"context"
	"database/sql"
	"time"
)

const imageColumns = `id, uuid, title, filename, mime_type, width, height, size,
    original_key, preview_key, uploaded_by, created_at`

func scanImage(row rowScanner) (Image, error) {
	var i Image
	err := row.Scan(
		&i.ID,
		&i.Uuid,
		&i.Title,
		&i.Filename,
		&i.MimeType,
		&i.Width,
		&i.Height,
		&i.Size,
		&i.OriginalKey,
		&i.PreviewKey,
		&i.UploadedBy,
		&i.CreatedAt,
	)
	return i, err
}

const createImage = `-- name: CreateImage :one
INSERT INTO images (
    uuid, title, filename, mime_type, width, height, size, original_key, preview_key, uploaded_by, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + imageColumns

type CreateImageParams struct {
	Uuid        string
	Title       string
	Filename    string
	MimeType    string
	Width       int64
	Height      int64
	Size        int64
	OriginalKey string
	PreviewKey  string
	UploadedBy  sql.NullInt64
	CreatedAt   time.Time
}

func (q *Queries) CreateImage(ctx context.Context, arg CreateImageParams) (Image, error) {
	row := q.db.QueryRowContext(ctx, createImage,
		arg.Uuid,
		arg.Title,
		arg.Filename,
		arg.MimeType,
		arg.Width,
		arg.Height,
		arg.Size,
		arg.OriginalKey,
		arg.PreviewKey,
		arg.UploadedBy,
		arg.CreatedAt,
	)
	return scanImage(row)
}

const getImageByID = `-- name: GetImageByID :one
SELECT ` + imageColumns + ` FROM images WHERE id = ?`

func (q *Queries) GetImageByID(ctx context.Context, id int64) (Image, error) {
	return scanImage(q.db.QueryRowContext(ctx, getImageByID, id))
}

const listImages = `-- name: ListImages :many
SELECT ` + imageColumns + ` FROM images ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

type ListImagesParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListImages(ctx context.Context, arg ListImagesParams) ([]Image, error) {
	rows, err := q.db.QueryContext(ctx, listImages, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Image
	for rows.Next() {
		i, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countImages = `-- name: CountImages :one
SELECT COUNT(*) FROM images`

func (q *Queries) CountImages(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countImages).Scan(&count)
	return count, err
}

const deleteImage = `-- name: DeleteImage :exec
DELETE FROM images WHERE id = ?`

func (q *Queries) DeleteImage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteImage, id)
	return err
}
