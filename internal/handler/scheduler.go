// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/scheduler"
)

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	Jobs() []scheduler.JobInfo
	Trigger(name string) error
}

// SchedulerHandler handles the scheduled jobs admin.
type SchedulerHandler struct {
	jobs     JobRunner
	renderer *render.Renderer
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(jobs JobRunner, renderer *render.Renderer) *SchedulerHandler {
	return &SchedulerHandler{
		jobs:     jobs,
		renderer: renderer,
	}
}

// List renders the registered jobs with their last and next runs.
func (h *SchedulerHandler) List(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminJobs, render.TemplateData{
		Title: tr(r, "admin.scheduler"),
		Data:  h.jobs.Jobs(),
	})
}

// Trigger runs a job now and waits for it to finish.
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.Trigger(name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			flashError(w, r, h.renderer, RouteAdminScheduler, "error.not_found")
			return
		}
		flashError(w, r, h.renderer, RouteAdminScheduler, "admin.scheduler.failed")
		return
	}
	flashSuccess(w, r, h.renderer, RouteAdminScheduler, "admin.scheduler.triggered")
}
