package handlers

import (
	"net/http"

	"matchdeck-backend/internal/middleware"
	"matchdeck-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ChatHandler handles chat and message requests
type ChatHandler struct {
	chatService    *services.ChatService
	messageService *services.MessageService
	inboxService   *services.InboxService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService *services.ChatService,
	messageService *services.MessageService,
	inboxService *services.InboxService,
) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		messageService: messageService,
		inboxService:   inboxService,
	}
}

// OpenChatRequest represents the request body for opening a chat
type OpenChatRequest struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
}

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// OpenChat handles POST /api/v1/chats
func (h *ChatHandler) OpenChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req OpenChatRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	chat, created, err := h.chatService.GetOrCreate(ctx, userID, req.ProfileID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("profile_id", req.ProfileID).
			Msg("Failed to open chat")
		respondServiceError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, chat)
}

// GetMessages handles GET /api/v1/chats/{chat_id}/messages
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "chat_id")
	if !validID(chatID) {
		respondServiceError(w, services.ErrChatNotFound)
		return
	}

	msgs, err := h.messageService.History(ctx, userID, chatID)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("chat_id", chatID).
			Msg("Failed to load messages")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": msgs,
		"total":    len(msgs),
	})
}

// SendMessage handles POST /api/v1/chats/{chat_id}/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "chat_id")
	if !validID(chatID) {
		respondServiceError(w, services.ErrChatNotFound)
		return
	}

	var req SendMessageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.messageService.Send(ctx, userID, chatID, req.Content)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("chat_id", chatID).
			Msg("Failed to send message")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, msg)
}

// GetInbox handles GET /api/v1/inbox
func (h *ChatHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	inbox, err := h.inboxService.Inbox(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to build inbox")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, inbox)
}
