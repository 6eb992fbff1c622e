package handlers

import (
	"net/http"

	"queue-backend/internal/ws"
)

// WSHandler upgrades clients to the snapshot stream
type WSHandler struct {
	Hub *ws.Hub
}

func NewWSHandler(hub *ws.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

func (h *WSHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.Hub, w, r)
}
