package services

import (
	"context"
	"errors"

	"matchdeck-backend/internal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrChatNotFound    = errors.New("chat not found")
	ErrNotMember       = errors.New("user is not a member of this chat")
	ErrSelfChat        = errors.New("cannot create chat with yourself")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrMessageTooLong  = errors.New("message content is too long")
	ErrUnknownAction   = errors.New("unknown deck action")
	ErrUploadsDisabled = errors.New("photo uploads are not configured")
)

// ProfileStore is the persistence used for profiles
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	ListCandidates(ctx context.Context, viewerID string) ([]models.Profile, error)
	GetMany(ctx context.Context, ids []string) ([]models.Profile, error)
	AppendPhoto(ctx context.Context, id, key string) error
}

// ChatStore is the persistence used for chats
type ChatStore interface {
	Create(ctx context.Context, chat *models.Chat) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	FindBetween(ctx context.Context, userA, userB string) (*models.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]models.Chat, error)
}

// MessageStore is the persistence used for messages
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByChat(ctx context.Context, chatID string) ([]models.Message, error)
	LatestByChats(ctx context.Context, chatIDs []string) (map[string]models.Message, error)
}

// DeviceStore is the persistence used for push tokens
type DeviceStore interface {
	Upsert(ctx context.Context, device *models.Device) error
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	Delete(ctx context.Context, token string) error
}
