package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/pkg/logger"
)

// EventsHandler upgrades clients to the notification stream
type EventsHandler struct {
	hub    *notify.Hub
	logger *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *notify.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: log.Component("api.events")}
}

// Stream serves a user's events over websocket
// GET /ws/users/{userID}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	// Upgrade 실패 시 gorilla가 이미 응답을 씀
	if err := h.hub.ServeWS(w, r, userID); err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Warn("Websocket upgrade failed")
	}
}
