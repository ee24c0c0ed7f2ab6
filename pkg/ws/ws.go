// Package ws serves live event feeds over WebSocket using gorilla/websocket.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// handler
//	ws.Upgrade(w, r, hub, r.URL.Query()["sku"]...)
//
//	// publisher
//	hub.Publish("SKU-1", payload)
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SetCheckOrigin replaces the default (allow-all) origin checker.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is a single connected subscriber. A client with no keys receives
// every event.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	keys map[string]bool
}

func (c *Client) wants(key string) bool {
	return len(c.keys) == 0 || c.keys[key]
}

// readPump keeps the read deadline fresh and detects disconnects. The feed is
// one-way, so inbound frames are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type event struct {
	key  string
	data []byte
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	clients    map[*Client]bool
	events     chan event
	register   chan *Client
	unregister chan *Client
	count      atomic.Int64
}

// NewHub creates a Hub. Run must be started before clients connect.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		events:     make(chan event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub event loop. It disconnects every client when ctx ends.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.count.Store(int64(len(h.clients)))
			logger.Debug("ws: client connected", "total", len(h.clients))

		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
				logger.Debug("ws: client disconnected", "total", len(h.clients))
			}

		case ev := <-h.events:
			for c := range h.clients {
				if !c.wants(ev.key) {
					continue
				}
				select {
				case c.send <- ev.data:
				default:
					h.drop(c) // slow consumer
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Store(int64(len(h.clients)))
}

// Publish queues data for every client subscribed to key. It never blocks;
// it reports false when the hub is saturated and the event was dropped.
func (h *Hub) Publish(key string, data []byte) bool {
	select {
	case h.events <- event{key: key, data: data}:
		return true
	default:
		return false
	}
}

// PublishJSON encodes v and publishes it under key.
func (h *Hub) PublishJSON(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !h.Publish(key, b) {
		logger.Warn("ws: hub saturated, event dropped", "key", key)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade upgrades the connection and registers it with hub, filtered to
// keys when any are given.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, keys ...string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &Client{hub: hub, conn: conn, send: make(chan []byte, 64), keys: map[string]bool{}}
	for _, k := range keys {
		if k != "" {
			c.keys[k] = true
		}
	}
	hub.register <- c
	go c.writePump()
	go c.readPump()
	return nil
}
