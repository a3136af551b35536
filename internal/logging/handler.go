// Package logging provides a slog handler that mirrors WARN and above into
// the events table.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
)

// EventLogHandler wraps another handler and also writes records at or above
// its level to the event log.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewEventLogHandler forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.writeToEventLog(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler. Grouped attributes are recorded flat.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	var (
		category string
		userID   sql.NullInt64
		metadata = make(map[string]string)
	)

	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "category":
			category = a.Value.String()
		case "user_id":
			if a.Value.Kind() == slog.KindInt64 {
				userID = sql.NullInt64{Int64: a.Value.Int64(), Valid: a.Value.Int64() > 0}
			}
			metadata[a.Key] = a.Value.String()
		default:
			metadata[a.Key] = a.Value.String()
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(collect)

	if category == "" {
		category = inferCategory(r.Message)
	}

	meta := "{}"
	if len(metadata) > 0 {
		if data, err := json.Marshal(metadata); err == nil {
			meta = string(data)
		}
	}

	// Background context: the event must be written even if the request was cancelled.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  category,
		Message:   r.Message,
		UserID:    userID,
		Metadata:  meta,
		CreatedAt: r.Time.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "logout"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "page"):
		return model.EventCategoryPage
	case strings.Contains(msg, "user") || strings.Contains(msg, "account") || strings.Contains(msg, "registration"):
		return model.EventCategoryUser
	case strings.Contains(msg, "image") || strings.Contains(msg, "media") || strings.Contains(msg, "upload"):
		return model.EventCategoryMedia
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}
