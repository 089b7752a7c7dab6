package repository

import (
	"context"
	"errors"
	"fmt"

	"matchdeck-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chats
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create inserts a chat. The unique (user1_id, user2_id) index turns a
// concurrent duplicate into a no-op, reported as created=false.
func (r *ChatRepository) Create(ctx context.Context, chat *models.Chat) (bool, error) {
	query := `
		INSERT INTO chats (id, user1_id, user2_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user1_id, user2_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, chat.ID, chat.User1ID, chat.User2ID, chat.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create chat: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// GetByID retrieves a chat by ID
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE id = $1
	`
	var chat models.Chat
	err := r.db.QueryRow(ctx, query, id).Scan(
		&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

// FindBetween looks up the chat between two users in either participant order
func (r *ChatRepository) FindBetween(ctx context.Context, userA, userB string) (*models.Chat, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
		ORDER BY created_at ASC
		LIMIT 1
	`
	var chat models.Chat
	err := r.db.QueryRow(ctx, query, userA, userB).Scan(
		&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("chat between %s and %s: %w", userA, userB, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return &chat, nil
}

// ListByUser returns all chats the user participates in, newest first
func (r *ChatRepository) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	query := `
		SELECT id, user1_id, user2_id, created_at
		FROM chats
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		var chat models.Chat
		if err := rows.Scan(&chat.ID, &chat.User1ID, &chat.User2ID, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}
	return chats, nil
}
