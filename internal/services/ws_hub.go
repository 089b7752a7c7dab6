package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	PongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (PongWait * 9) / 10

	// Maximum message size allowed from peer
	MaxWSMessageSize = 8 * 1024

	sendBuffer = 64
)

// WebSocket message types
const (
	WSTypeSubscribe    = "subscribe"
	WSTypeUnsubscribe  = "unsubscribe"
	WSTypeSend         = "send"
	WSTypeSubscribed   = "subscribed"
	WSTypeUnsubscribed = "unsubscribed"
	WSTypeHistory      = "history"
	WSTypeMessage      = "message"
	WSTypeMatch        = "match"
	WSTypeError        = "error"
)

// ErrClientClosed is returned when sending to a client that already went away
var ErrClientClosed = errors.New("websocket client closed")

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string      `json:"type"`
	ChatID    string      `json:"chat_id,omitempty"`
	Content   string      `json:"content,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// Client is one WebSocket connection. All writes go through its send buffer
// and a single writer goroutine.
type Client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	subs   map[string]struct{}
	closed bool
}

// UserID returns the authenticated user behind the connection
func (c *Client) UserID() string {
	return c.userID
}

// WSHub manages WebSocket connections and their chat subscriptions
type WSHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		clients: make(map[*Client]struct{}),
		users:   make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a connection for a user and starts its writer
func (h *WSHub) Register(userID string, conn *websocket.Conn) *Client {
	c := &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		subs:   make(map[string]struct{}),
	}
	h.add(c)
	go h.writePump(c)

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return c
}

func (h *WSHub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	if h.users[c.userID] == nil {
		h.users[c.userID] = make(map[*Client]struct{})
	}
	h.users[c.userID][c] = struct{}{}
	metrics.WSConnections.Inc()
}

// Unregister releases every subscription of the client and stops its writer
func (h *WSHub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for chatID := range c.subs {
		h.leave(c, chatID)
	}
	delete(h.clients, c)
	if conns := h.users[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
	close(c.send)
	metrics.WSConnections.Dec()

	log.Info().Str("user_id", c.userID).Msg("WebSocket connection unregistered")
}

// Subscribe registers the client for insert events of a chat
func (h *WSHub) Subscribe(c *Client, chatID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if h.rooms[chatID] == nil {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][c] = struct{}{}
	c.subs[chatID] = struct{}{}
	return nil
}

// Unsubscribe releases the client's subscription to a chat
func (h *WSHub) Unsubscribe(c *Client, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(c, chatID)
}

// leave must be called with h.mu held
func (h *WSHub) leave(c *Client, chatID string) {
	delete(c.subs, chatID)
	if room := h.rooms[chatID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// HasSubscribers reports whether any connection listens on a chat
func (h *WSHub) HasSubscribers(chatID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID]) > 0
}

// Publish pushes a newly inserted message to every subscriber of its chat and
// returns how many connections it was queued for.
func (h *WSHub) Publish(msg *models.Message) int {
	data, err := json.Marshal(WSMessage{
		Type:   WSTypeMessage,
		ChatID: msg.ChatID,
		Data:   msg,
	})
	if err != nil {
		log.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to marshal message event")
		return 0
	}

	h.mu.RLock()
	var slow []*Client
	delivered := 0
	for c := range h.rooms[msg.ChatID] {
		if h.enqueue(c, data) {
			delivered++
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("user_id", c.userID).Msg("Dropping slow WebSocket client")
		h.Unregister(c)
	}
	return delivered
}

// enqueue must be called with h.mu held
func (h *WSHub) enqueue(c *Client, data []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Send queues a message for one connection
func (h *WSHub) Send(c *Client, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	ok := h.enqueue(c, data)
	closed := c.closed
	h.mu.RUnlock()

	if closed {
		return ErrClientClosed
	}
	if !ok {
		h.Unregister(c)
		return fmt.Errorf("send buffer full for user %s", c.userID)
	}
	return nil
}

// SendToUser queues a message on every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	var firstErr error
	for _, c := range conns {
		if err := h.Send(c, message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// IsOnline checks if a user has at least one open connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID]) > 0
}

// NotifyMatch tells an online user that someone matched with them
func (h *WSHub) NotifyMatch(ctx context.Context, recipientID string, chat *models.Chat) {
	if !h.IsOnline(recipientID) {
		return
	}

	message := WSMessage{
		Type:      WSTypeMatch,
		ChatID:    chat.ID,
		Timestamp: time.Now().UnixMilli(),
		Data:      chat,
	}
	if err := h.SendToUser(recipientID, message); err != nil {
		log.Error().
			Err(err).
			Str("user_id", recipientID).
			Msg("Failed to notify user about match")
	}
}

// Close drops every connection. Used on shutdown.
func (h *WSHub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}

// writePump drains the client's send buffer onto the socket and keeps it alive with pings
func (h *WSHub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("user_id", c.userID).Msg("Failed to write WebSocket message")
				go h.Unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				go h.Unregister(c)
				return
			}
		}
	}
}
