package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxMessageLength is the longest message content accepted, in runes
const MaxMessageLength = 2000

// MessageService handles chat history and sending
type MessageService struct {
	messages MessageStore
	chats    *ChatService
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, chats *ChatService) *MessageService {
	return &MessageService{
		messages: messages,
		chats:    chats,
	}
}

// History returns every message of a chat in creation order
func (s *MessageService) History(ctx context.Context, userID, chatID string) ([]models.Message, error) {
	if _, err := s.chats.GetForMember(ctx, chatID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// Send inserts a message as typed. Blank content is rejected. Subscribers,
// the sender included, see it once the insert comes back through the feed.
func (s *MessageService) Send(ctx context.Context, userID, chatID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	if _, err := s.chats.GetForMember(ctx, chatID, userID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:       uuid.New().String(),
		ChatID:   chatID,
		SenderID: userID,
		Content:  content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	metrics.MessagesSent.Inc()
	log.Debug().
		Str("chat_id", chatID).
		Str("sender_id", userID).
		Str("message_id", msg.ID).
		Msg("Message inserted")

	return msg, nil
}
