package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/marketview/internal/domain"
)

// MsgEventNotFound is shown when an event does not exist.
const MsgEventNotFound = "Evento não encontrado"

// EventViewer assembles an event page.
type EventViewer interface {
	Assemble(ctx context.Context, eventID, userID string) (domain.EventView, error)
}

// HomeViewer assembles the catalog page.
type HomeViewer interface {
	Assemble(ctx context.Context) domain.HomeView
}

// EventHandler serves the read-model pages.
type EventHandler struct {
	events EventViewer
	home   HomeViewer
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events EventViewer, home HomeViewer, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, home: home, logger: logger}
}

// GetHome returns the event catalog with percentages.
// GET /api/home
func (h *EventHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.home.Assemble(r.Context()))
}

// GetEvent returns the aggregate view of one event for the caller.
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusNotFound, MsgEventNotFound)
		return
	}

	var userID string
	if u := domain.UserFromContext(r.Context()); u != nil {
		userID = u.ID
	}

	view, err := h.events.Assemble(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, MsgEventNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get event failed",
			slog.String("event_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, view)
}
