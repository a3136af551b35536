// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the site's business logic: accounts, the page tree,
// page display context, body rendering, images and the event log.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-community/internal/model"
	"github.com/olegiv/ocms-community/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, metadata map[string]any) error {
	var nullUserID sql.NullInt64
	if userID != nil {
		nullUserID = sql.NullInt64{Int64: *userID, Valid: true}
	}

	metadataJSON := "{}"
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    nullUserID,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		slog.Debug("failed to log event", "error", err)
		return err
	}
	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, metadata)
}

// LogPageEvent logs a page-related event.
func (s *EventService) LogPageEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryPage, message, userID, metadata)
}

// LogUserEvent logs a user-related event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, metadata)
}

// List returns one page of events, newest first, and the total count.
func (s *EventService) List(ctx context.Context, limit, offset int) ([]store.Event, int64, error) {
	total, err := s.queries.CountEvents(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}
	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{Limit: int64(limit), Offset: int64(offset)})
	if err != nil {
		return nil, 0, fmt.Errorf("listing events: %w", err)
	}
	return events, total, nil
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
