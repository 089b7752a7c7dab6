package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"matchdeck-backend/internal/middleware"
	"matchdeck-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var errBadFrame = errors.New("invalid message")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles the realtime chat channel
type WebSocketHandler struct {
	hub            *services.WSHub
	verifier       middleware.Verifier
	messageService *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	verifier middleware.Verifier,
	messageService *services.MessageService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:            hub,
		verifier:       verifier,
		messageService: messageService,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.verifier)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := h.hub.Register(userID, conn)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(services.MaxWSMessageSize)
	conn.SetReadDeadline(time.Now().Add(services.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(services.PongWait))
	})

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(client, "", "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, client, msg); err != nil {
			log.Error().
				Err(err).
				Str("user_id", userID).
				Str("type", msg.Type).
				Str("chat_id", msg.ChatID).
				Msg("Failed to handle message")
			h.sendError(client, msg.ChatID, errorText(err))
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, client *services.Client, msg services.WSMessage) error {
	if msg.ChatID == "" {
		return fmt.Errorf("%w: chat_id is required", errBadFrame)
	}
	if !validID(msg.ChatID) {
		return services.ErrChatNotFound
	}

	switch msg.Type {
	case services.WSTypeSubscribe:
		return h.handleSubscribe(ctx, client, msg.ChatID)
	case services.WSTypeUnsubscribe:
		h.hub.Unsubscribe(client, msg.ChatID)
		return h.hub.Send(client, services.WSMessage{Type: services.WSTypeUnsubscribed, ChatID: msg.ChatID})
	case services.WSTypeSend:
		_, err := h.messageService.Send(ctx, client.UserID(), msg.ChatID, msg.Content)
		return err
	default:
		return fmt.Errorf("%w: unknown message type %q", errBadFrame, msg.Type)
	}
}

// handleSubscribe sends the chat history, then starts pushing new inserts
func (h *WebSocketHandler) handleSubscribe(ctx context.Context, client *services.Client, chatID string) error {
	history, err := h.messageService.History(ctx, client.UserID(), chatID)
	if err != nil {
		return err
	}

	if err := h.hub.Send(client, services.WSMessage{
		Type:   services.WSTypeHistory,
		ChatID: chatID,
		Data:   history,
	}); err != nil {
		return err
	}

	if err := h.hub.Subscribe(client, chatID); err != nil {
		return err
	}

	log.Info().
		Str("user_id", client.UserID()).
		Str("chat_id", chatID).
		Msg("Subscribed to chat")

	return h.hub.Send(client, services.WSMessage{Type: services.WSTypeSubscribed, ChatID: chatID})
}

// sendError reports a failure back on the socket
func (h *WebSocketHandler) sendError(client *services.Client, chatID, message string) {
	msg := services.WSMessage{
		Type:    services.WSTypeError,
		ChatID:  chatID,
		Message: message,
	}
	if err := h.hub.Send(client, msg); err != nil {
		log.Debug().Err(err).Str("user_id", client.UserID()).Msg("Failed to send WebSocket error")
	}
}

// errorText hides internal failures from the socket
func errorText(err error) string {
	if !errors.Is(err, errBadFrame) && statusFor(err) == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}
