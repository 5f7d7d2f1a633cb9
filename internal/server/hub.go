package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message types pushed to websocket clients.
const (
	MsgFixturesUpdated = "FIXTURES_UPDATED"
	MsgResultsUpdated  = "RESULTS_UPDATED"
	MsgBracketUpdated  = "BRACKET_UPDATED"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

// Hub tracks websocket clients by room. A room is one tournament.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	logger     *slog.Logger

	// onOpen runs when a room gets its first client and onClose when its
	// last client leaves. Both run on the hub goroutine.
	onOpen  func(ctx context.Context, room string)
	onClose func(room string)

	mu sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run processes registrations until ctx is done, then disconnects every
// client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			opened := h.rooms[client.room] == nil
			if opened {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			count := len(h.rooms[client.room])
			h.mu.Unlock()
			h.logger.Info("client joined room", "room", client.room, "clients", count)
			if opened && h.onOpen != nil {
				h.onOpen(ctx, client.room)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			closed := false
			if clients, ok := h.rooms[client.room]; ok && clients[client] {
				delete(clients, client)
				close(client.send)
				if len(clients) == 0 {
					delete(h.rooms, client.room)
					closed = true
				}
			}
			h.mu.Unlock()
			if closed {
				h.logger.Info("room closed", "room", client.room)
				if h.onClose != nil {
					h.onClose(client.room)
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Join registers a client. It returns false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// BroadcastToRoom sends a message to every client in the room. Clients whose
// buffer is full miss the message.
func (h *Hub) BroadcastToRoom(room string, msg Message) {
	msg.RoomID = room
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encoding websocket message", "room", room, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[room] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn("client send buffer full", "room", room)
		}
	}
}

// RoomSize returns the number of clients in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// readPump drains client messages so pongs are processed. Incoming
// messages are otherwise ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read", "room", c.room, "error", err)
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
