package store

import (
	"context"
	"database/sql"
	"time"
)

const createEvent = `-- name: CreateEvent :one
INSERT INTO events (level, category, message, user_id, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, level, category, message, user_id, metadata, created_at`

type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	row := q.db.QueryRowContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.Metadata,
		arg.CreatedAt,
	)
	var e Event
	err := row.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt)
	return e, err
}

const listEvents = `-- name: ListEvents :many
SELECT id, level, category, message, user_id, metadata, created_at
FROM events ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

type ListEventsParams struct {
	Limit  int64
	Offset int64
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const countEvents = `-- name: CountEvents :one
SELECT COUNT(*) FROM events`

func (q *Queries) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEvents).Scan(&count)
	return count, err
}

const deleteEventsBefore = `-- name: DeleteEventsBefore :execrows
DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
