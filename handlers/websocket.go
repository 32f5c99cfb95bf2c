package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/Doxria/life-invader-frontend/middleware"
	"github.com/Doxria/life-invader-frontend/models"
)

const (
	writeWait    = 10 * time.Second
	maxFrameSize = 8 << 10
	// inbound frames per second per connection; extra frames are dropped
	frameRate = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	user    models.User
	limiter *rate.Limiter

	// guarded by hub.mutex
	room string
}

// BroadcastPayload is one frame for every member of Room except the user
// with ID Except.
type BroadcastPayload struct {
	Room    string
	Except  string
	Message []byte
}

// Hub tracks connected clients and the chat room each one has joined.
type Hub struct {
	// CanJoin authorizes a join; nil lets everyone join any room.
	CanJoin func(ctx context.Context, chatID, userID string) bool

	logger    *slog.Logger
	broadcast chan BroadcastPayload
	done      chan struct{}

	mutex   sync.RWMutex
	stopped bool
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub returns a hub; call Run to start delivering broadcasts.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:    logger,
		broadcast: make(chan BroadcastPayload, 256),
		done:      make(chan struct{}),
		clients:   make(map[*Client]struct{}),
		rooms:     make(map[string]map[*Client]struct{}),
	}
}

// Run delivers broadcasts until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			h.stopped = true
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*Client]struct{})
			h.rooms = make(map[string]map[*Client]struct{})
			h.mutex.Unlock()
			return nil

		case payload := <-h.broadcast:
			h.mutex.RLock()
			for c := range h.rooms[payload.Room] {
				if c.user.ID == payload.Except {
					continue
				}
				select {
				case c.send <- payload.Message:
				default:
					h.logger.Warn("Dropping frame for slow client", "user_id", c.user.ID, "room", payload.Room)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastToRoom sends f to every member of room except the user exceptID.
func (h *Hub) BroadcastToRoom(room, exceptID string, f models.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.logger.Error("Could not marshal frame", "type", f.Type, "error", err.Error())
		return
	}

	select {
	case h.broadcast <- BroadcastPayload{Room: room, Except: exceptID, Message: data}:
	case <-h.done:
	}
}

// RoomSize returns how many connections have joined room
func (h *Hub) RoomSize(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) add(c *Client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.stopped {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	delete(h.clients, c)
	close(c.send)
}

// join moves c into room, leaving the room it was in.
func (h *Hub) join(c *Client, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	h.leaveLocked(c)
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.room = room
}

func (h *Hub) leaveLocked(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

func (h *Hub) roomOf(c *Client) string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return c.room
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		user:    *user,
		limiter: rate.NewLimiter(frameRate, frameRate),
	}
	if !h.add(client) {
		conn.Close()
		return
	}
	h.logger.Info("Client connected", "user_id", user.ID)

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
		c.hub.logger.Info("Client disconnected", "user_id", c.user.ID)
	}()

	c.conn.SetReadLimit(maxFrameSize)
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("WebSocket read failed", "user_id", c.user.ID, "error", err.Error())
			}
			return
		}

		if !c.limiter.Allow() {
			c.hub.logger.Debug("Rate limited frame", "user_id", c.user.ID)
			continue
		}

		var f models.Frame
		if err := json.Unmarshal(message, &f); err != nil {
			continue
		}
		c.handle(f)
	}
}

func (c *Client) handle(f models.Frame) {
	switch f.Type {
	case models.FrameJoinRoom:
		var chatID string
		if err := json.Unmarshal(f.Payload, &chatID); err != nil || chatID == "" {
			return
		}
		if c.hub.CanJoin != nil && !c.hub.CanJoin(context.Background(), chatID, c.user.ID) {
			c.hub.logger.Warn("Join refused", "user_id", c.user.ID, "chat_id", chatID)
			return
		}
		c.hub.join(c, chatID)

	case models.FrameTyping:
		room := c.hub.roomOf(c)
		var chatID string
		if len(f.Payload) > 0 {
			_ = json.Unmarshal(f.Payload, &chatID)
		}
		if chatID == "" {
			chatID = room
		}
		// Typing is only relayed inside the joined room
		if chatID == "" || chatID != room {
			return
		}
		out, err := models.NewFrame(models.FrameTyping, models.TypingSignal{ChatID: chatID, SenderID: c.user.ID})
		if err != nil {
			return
		}
		c.hub.BroadcastToRoom(chatID, c.user.ID, out)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
