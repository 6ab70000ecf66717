package handler

import (
	"net/http"

	"github.com/mcoot/rpsgame/internal/dependencies/ids"
	"github.com/mcoot/rpsgame/internal/transport/ws"
)

// RealtimeHandler upgrades clients to the websocket game protocol
type RealtimeHandler struct {
	hub    *ws.Hub
	events ws.EventHandler
	idgen  ids.Generator
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(hub *ws.Hub, events ws.EventHandler, idgen ids.Generator) *RealtimeHandler {
	return &RealtimeHandler{
		hub:    hub,
		events: events,
		idgen:  idgen,
	}
}

// Connect handles GET /gamehub and /ws
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(w, r, h.hub, h.events, h.idgen)
}
