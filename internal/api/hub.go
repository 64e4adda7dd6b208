package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arbstream/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// ErrHubBusy is returned when the broadcast queue is full
var ErrHubBusy = errors.New("websocket hub busy")

// SnapshotMessage is pushed to websocket clients on connect and after every scan
type SnapshotMessage struct {
	Type          string                `json:"type"`
	Version       uint64                `json:"version"`
	Status        StatusResponse        `json:"status"`
	Opportunities []OpportunityResponse `json:"opportunities"`
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub streams published snapshots to connected dashboard clients
type Hub struct {
	store    *store.Store
	links    BookmakerLinks
	upgrader websocket.Upgrader
	logger   *logrus.Entry

	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*wsClient]bool
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(st *store.Store, links BookmakerLinks, checkOrigin func(r *http.Request) bool, logger *logrus.Logger) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		store: st,
		links: links,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:     logger.WithField("component", "ws_hub"),
		broadcast:  make(chan []byte, 8),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		clients:    make(map[*wsClient]bool),
	}
}

// Name identifies the hub as a snapshot sink
func (h *Hub) Name() string {
	return "websocket"
}

// Publish queues a snapshot for every connected client
func (h *Hub) Publish(_ context.Context, snap *store.Snapshot) error {
	msg, err := h.encode(snap)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- msg:
		return nil
	default:
		return ErrHubBusy
	}
}

// Run is the hub event loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.WithField("clients", h.ClientCount()).Debug("Client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.WithField("clients", h.ClientCount()).Debug("Client disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("Dropping snapshot for slow client")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and streams snapshots until the client leaves
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &wsClient{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	snap := h.store.Snapshot()
	if msg, err := h.encode(&snap); err == nil {
		c.send <- msg
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) encode(snap *store.Snapshot) ([]byte, error) {
	return json.Marshal(SnapshotMessage{
		Type:          "snapshot",
		Version:       snap.Version,
		Status:        newStatusResponse(snap.Status()),
		Opportunities: newOpportunityList(snap.Opportunities, h.links),
	})
}

// readPump discards client messages and detects disconnects
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.WithError(err).Debug("Unexpected websocket close")
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
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
