package server

import (
	"net/http"

	"oneradio/logger"

	"github.com/gorilla/websocket"
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSStatusHandler upgrades the connection and attaches it to the status bus,
// a push-based alternative to polling /api/status.
func (h *APIHandler) WSStatusHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := statusUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("status websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := h.statusHub.Attach(conn)
	h.statusHub.WaitForClose(client)
}
