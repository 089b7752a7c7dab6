package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/models"
	"matchdeck-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ChatService handles chat lookup and creation
type ChatService struct {
	chats    ChatStore
	profiles ProfileStore
}

// NewChatService creates a new chat service
func NewChatService(chats ChatStore, profiles ProfileStore) *ChatService {
	return &ChatService{
		chats:    chats,
		profiles: profiles,
	}
}

// normalizePair orders two user ids so the lexicographically smaller one comes first
func normalizePair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// GetOrCreate returns the chat between userID and targetID, creating it when
// none exists. The boolean reports whether this call created it.
func (s *ChatService) GetOrCreate(ctx context.Context, userID, targetID string) (*models.Chat, bool, error) {
	if userID == targetID {
		return nil, false, ErrSelfChat
	}

	chat, err := s.chats.FindBetween(ctx, userID, targetID)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up chat: %w", err)
	}

	if _, err := s.profiles.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrProfileNotFound
		}
		return nil, false, fmt.Errorf("failed to get target profile: %w", err)
	}

	user1, user2 := normalizePair(userID, targetID)
	chat = &models.Chat{
		ID:        uuid.New().String(),
		User1ID:   user1,
		User2ID:   user2,
		CreatedAt: time.Now(),
	}

	created, err := s.chats.Create(ctx, chat)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create chat: %w", err)
	}
	if created {
		metrics.ChatsCreated.Inc()
		log.Info().
			Str("chat_id", chat.ID).
			Str("user1_id", user1).
			Str("user2_id", user2).
			Msg("Chat created")
		return chat, true, nil
	}

	// Another session inserted the same pair first.
	chat, err = s.chats.FindBetween(ctx, user1, user2)
	if err != nil {
		return nil, false, fmt.Errorf("failed to reload chat after conflict: %w", err)
	}
	return chat, false, nil
}

// GetForMember returns a chat after checking that userID participates in it
func (s *ChatService) GetForMember(ctx context.Context, chatID, userID string) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	if !chat.HasMember(userID) {
		return nil, ErrNotMember
	}
	return chat, nil
}

// ListForUser returns every chat the user participates in, newest first
func (s *ChatService) ListForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	return s.chats.ListByUser(ctx, userID)
}
