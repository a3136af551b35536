package handler

import (
	"net/http"

	"github.com/olegiv/ocms-community/internal/render"
	"github.com/olegiv/ocms-community/internal/service"
	"github.com/olegiv/ocms-community/internal/store"
)

// EventsHandler handles the event log admin.
type EventsHandler struct {
	events   *service.EventService
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(events *service.EventService, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		events:   events,
		renderer: renderer,
	}
}

// EventsListData is the template data of the event log.
type EventsListData struct {
	Events     []store.Event
	Pagination Pagination
}

// List renders the event log, newest first.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	events, pagination, err := listAdminPage(r, func(limit, offset int) ([]store.Event, int64, error) {
		return h.events.List(r.Context(), limit, offset)
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list events", "error", err)
		return
	}
	renderPage(w, r, h.renderer, http.StatusOK, tmplAdminEvents, render.TemplateData{
		Title: tr(r, "admin.events"),
		Data:  EventsListData{Events: events, Pagination: pagination},
	})
}
