// Package statusbus is a tiny pub/sub hub pushing StreamState snapshots to
// websocket listeners attached at /ws/status, an additive alternative to
// polling /api/status. Grounded on the teacher's core/room.RoomHub
// register/unregister/broadcast-channel pattern, collapsed from many rooms
// down to one global topic — this is observability, not a room system, so
// there is exactly one set of subscribers and no per-room routing.
package statusbus

import (
	"encoding/json"
	"time"

	"oneradio/logger"
	"oneradio/model"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 8
)

// Client is one subscribed websocket connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans StreamState snapshots out to every attached Client.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]bool
}

// New builds a Hub. Callers must run Hub.Run in its own goroutine.
func New() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		clients:    make(map[*Client]bool),
	}
}

// Run is the hub's single-goroutine event loop; it owns the client set so no
// separate lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Publish marshals state and enqueues it for every attached client. Satisfies
// core/engine.StatusPublisher.
func (h *Hub) Publish(state model.StreamState) {
	data, err := json.Marshal(state)
	if err != nil {
		logger.Warn("statusbus: marshal failed", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logger.Warn("statusbus: broadcast queue full, dropping snapshot")
	}
}

// Attach upgrades conn into a subscribed Client and starts its write pump.
// The caller's handler should block on the client's read loop (or just read
// until error/close) so the HTTP handler doesn't return early.
func (h *Hub) Attach(conn *websocket.Conn) *Client {
	c := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register <- c
	go c.writePump()
	return c
}

// Detach unregisters a Client, e.g. once its connection read loop exits.
func (h *Hub) Detach(c *Client) {
	h.unregister <- c
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WaitForClose blocks reading from conn until the client disconnects, then
// detaches it from the hub. Call in the HTTP handler's goroutine after Attach.
func (h *Hub) WaitForClose(c *Client) {
	defer h.Detach(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
