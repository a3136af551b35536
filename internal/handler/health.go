// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/olegiv/ocms-community/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	version   version.Info
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB, info version.Info) *HealthHandler {
	return &HealthHandler{
		db:        db,
		version:   info,
		startTime: time.Now(),
	}
}

// HealthStatus is the health response.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:   "healthy",
		Database: "healthy",
		Uptime:   time.Since(h.startTime).Round(time.Second).String(),
		Version:  h.version.Version,
	}
	code := http.StatusOK
	if !h.databaseHealthy(r.Context()) {
		status.Status = "degraded"
		status.Database = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// Liveness handles GET /health/live.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) databaseHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.db.PingContext(ctx) == nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
