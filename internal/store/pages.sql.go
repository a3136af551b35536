package store

import (
	"context"
	"database/sql"
	"time"
)

const pageColumns = `id, parent_id, page_type, title, slug, description, preview_image_id, hero_image_id,
    hero_title, hero_subtitle, body, live, first_published_at, last_published_at, go_live_at,
    created_at, updated_at`

func scanPage(row rowScanner) (Page, error) {
	var p Page
	err := row.Scan(
		&p.ID,
		&p.ParentID,
		&p.PageType,
		&p.Title,
		&p.Slug,
		&p.Description,
		&p.PreviewImageID,
		&p.HeroImageID,
		&p.HeroTitle,
		&p.HeroSubtitle,
		&p.Body,
		&p.Live,
		&p.FirstPublishedAt,
		&p.LastPublishedAt,
		&p.GoLiveAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func scanPages(rows *sql.Rows, err error) ([]Page, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const createPage = `-- name: CreatePage :one
INSERT INTO pages (
    parent_id, page_type, title, slug, description, preview_image_id, hero_image_id,
    hero_title, hero_subtitle, body, live, first_published_at, last_published_at, go_live_at,
    created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + pageColumns

type CreatePageParams struct {
	ParentID         sql.NullInt64
	PageType         string
	Title            string
	Slug             string
	Description      string
	PreviewImageID   sql.NullInt64
	HeroImageID      sql.NullInt64
	HeroTitle        string
	HeroSubtitle     string
	Body             string
	Live             bool
	FirstPublishedAt sql.NullTime
	LastPublishedAt  sql.NullTime
	GoLiveAt         sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, createPage,
		arg.ParentID,
		arg.PageType,
		arg.Title,
		arg.Slug,
		arg.Description,
		arg.PreviewImageID,
		arg.HeroImageID,
		arg.HeroTitle,
		arg.HeroSubtitle,
		arg.Body,
		arg.Live,
		arg.FirstPublishedAt,
		arg.LastPublishedAt,
		arg.GoLiveAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanPage(row)
}

const getPageByID = `-- name: GetPageByID :one
SELECT ` + pageColumns + ` FROM pages WHERE id = ?`

func (q *Queries) GetPageByID(ctx context.Context, id int64) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getPageByID, id))
}

const getRootPage = `-- name: GetRootPage :one
SELECT ` + pageColumns + ` FROM pages WHERE parent_id IS NULL ORDER BY id LIMIT 1`

func (q *Queries) GetRootPage(ctx context.Context) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getRootPage))
}

const getChildBySlug = `-- name: GetChildBySlug :one
SELECT ` + pageColumns + ` FROM pages WHERE parent_id = ? AND slug = ?`

type GetChildBySlugParams struct {
	ParentID int64
	Slug     string
}

func (q *Queries) GetChildBySlug(ctx context.Context, arg GetChildBySlugParams) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getChildBySlug, arg.ParentID, arg.Slug))
}

const listChildPages = `-- name: ListChildPages :many
SELECT ` + pageColumns + ` FROM pages WHERE parent_id = ? ORDER BY id`

func (q *Queries) ListChildPages(ctx context.Context, parentID int64) ([]Page, error) {
	return scanPages(q.db.QueryContext(ctx, listChildPages, parentID))
}

const listAllPages = `-- name: ListAllPages :many
SELECT ` + pageColumns + ` FROM pages ORDER BY COALESCE(parent_id, 0), id`

func (q *Queries) ListAllPages(ctx context.Context) ([]Page, error) {
	return scanPages(q.db.QueryContext(ctx, listAllPages))
}

const countPagesByType = `-- name: CountPagesByType :one
SELECT COUNT(*) FROM pages WHERE page_type = ?`

func (q *Queries) CountPagesByType(ctx context.Context, pageType string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPagesByType, pageType).Scan(&count)
	return count, err
}

const listLivePagesByType = `-- name: ListLivePagesByType :many
SELECT ` + pageColumns + ` FROM pages
WHERE page_type = ? AND live = 1
ORDER BY first_published_at DESC, id DESC
LIMIT ? OFFSET ?`

type ListLivePagesByTypeParams struct {
	PageType string
	Limit    int64
	Offset   int64
}

func (q *Queries) ListLivePagesByType(ctx context.Context, arg ListLivePagesByTypeParams) ([]Page, error) {
	return scanPages(q.db.QueryContext(ctx, listLivePagesByType, arg.PageType, arg.Limit, arg.Offset))
}

const countLivePagesByType = `-- name: CountLivePagesByType :one
SELECT COUNT(*) FROM pages WHERE page_type = ? AND live = 1`

func (q *Queries) CountLivePagesByType(ctx context.Context, pageType string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countLivePagesByType, pageType).Scan(&count)
	return count, err
}

const getFirstLivePageByType = `-- name: GetFirstLivePageByType :one
SELECT ` + pageColumns + ` FROM pages WHERE page_type = ? AND live = 1 ORDER BY id LIMIT 1`

func (q *Queries) GetFirstLivePageByType(ctx context.Context, pageType string) (Page, error) {
	return scanPage(q.db.QueryRowContext(ctx, getFirstLivePageByType, pageType))
}

const slugTaken = `-- name: SlugTaken :one
SELECT EXISTS(SELECT 1 FROM pages WHERE COALESCE(parent_id, 0) = ? AND slug = ? AND id != ?)`

type SlugTakenParams struct {
	ParentID  int64
	Slug      string
	ExcludeID int64
}

func (q *Queries) SlugTaken(ctx context.Context, arg SlugTakenParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, slugTaken, arg.ParentID, arg.Slug, arg.ExcludeID).Scan(&exists)
	return exists, err
}

const updatePage = `-- name: UpdatePage :one
UPDATE pages SET
    title = ?, slug = ?, description = ?, preview_image_id = ?, hero_image_id = ?,
    hero_title = ?, hero_subtitle = ?, body = ?, go_live_at = ?, updated_at = ?
WHERE id = ?
RETURNING ` + pageColumns

type UpdatePageParams struct {
	Title          string
	Slug           string
	Description    string
	PreviewImageID sql.NullInt64
	HeroImageID    sql.NullInt64
	HeroTitle      string
	HeroSubtitle   string
	Body           string
	GoLiveAt       sql.NullTime
	UpdatedAt      time.Time
	ID             int64
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	row := q.db.QueryRowContext(ctx, updatePage,
		arg.Title,
		arg.Slug,
		arg.Description,
		arg.PreviewImageID,
		arg.HeroImageID,
		arg.HeroTitle,
		arg.HeroSubtitle,
		arg.Body,
		arg.GoLiveAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanPage(row)
}

const publishPage = `-- name: PublishPage :exec
UPDATE pages SET
    live = 1,
    first_published_at = COALESCE(first_published_at, ?),
    last_published_at = ?,
    go_live_at = NULL,
    updated_at = ?
WHERE id = ?`

type PublishPageParams struct {
	PublishedAt time.Time
	ID          int64
}

// PublishPage keeps the original first_published_at on re-publish.
func (q *Queries) PublishPage(ctx context.Context, arg PublishPageParams) error {
	_, err := q.db.ExecContext(ctx, publishPage, arg.PublishedAt, arg.PublishedAt, arg.PublishedAt, arg.ID)
	return err
}

const unpublishPage = `-- name: UnpublishPage :exec
UPDATE pages SET live = 0, updated_at = ? WHERE id = ?`

type UnpublishPageParams struct {
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UnpublishPage(ctx context.Context, arg UnpublishPageParams) error {
	_, err := q.db.ExecContext(ctx, unpublishPage, arg.UpdatedAt, arg.ID)
	return err
}

const deletePage = `-- name: DeletePage :exec
DELETE FROM pages WHERE id = ?`

func (q *Queries) DeletePage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deletePage, id)
	return err
}

const listDuePages = `-- name: ListDuePages :many
SELECT ` + pageColumns + ` FROM pages
WHERE live = 0 AND go_live_at IS NOT NULL AND go_live_at <= ?
ORDER BY go_live_at, id`

func (q *Queries) ListDuePages(ctx context.Context, now time.Time) ([]Page, error) {
	return scanPages(q.db.QueryContext(ctx, listDuePages, now))
}

const createPageRevision = `-- name: CreatePageRevision :one
INSERT INTO page_revisions (page_id, user_id, title, description, body, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, page_id, user_id, title, description, body, created_at`

type CreatePageRevisionParams struct {
	PageID      int64
	UserID      sql.NullInt64
	Title       string
	Description string
	Body        string
	CreatedAt   time.Time
}

func (q *Queries) CreatePageRevision(ctx context.Context, arg CreatePageRevisionParams) (PageRevision, error) {
	row := q.db.QueryRowContext(ctx, createPageRevision,
		arg.PageID,
		arg.UserID,
		arg.Title,
		arg.Description,
		arg.Body,
		arg.CreatedAt,
	)
	var r PageRevision
	err := row.Scan(&r.ID, &r.PageID, &r.UserID, &r.Title, &r.Description, &r.Body, &r.CreatedAt)
	return r, err
}

const listPageRevisions = `-- name: ListPageRevisions :many
SELECT id, page_id, user_id, title, description, body, created_at
FROM page_revisions WHERE page_id = ? ORDER BY created_at DESC, id DESC`

func (q *Queries) ListPageRevisions(ctx context.Context, pageID int64) ([]PageRevision, error) {
	rows, err := q.db.QueryContext(ctx, listPageRevisions, pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []PageRevision
	for rows.Next() {
		var r PageRevision
		if err := rows.Scan(&r.ID, &r.PageID, &r.UserID, &r.Title, &r.Description, &r.Body, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}
