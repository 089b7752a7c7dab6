package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"matchdeck-backend/internal/deck"

	"github.com/go-redis/redis/v8"
)

// ErrNoSession is returned when a user has no stored deck
var ErrNoSession = errors.New("no deck session")

// SessionStore persists per-user decks between requests
type SessionStore interface {
	Load(ctx context.Context, userID string) (*deck.Deck, error)
	Save(ctx context.Context, userID string, d *deck.Deck) error
}

// MemorySessionStore keeps decks in process memory
type MemorySessionStore struct {
	mu    sync.Mutex
	decks map[string]deck.Snapshot
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{decks: make(map[string]deck.Snapshot)}
}

// Load returns a copy of the user's deck
func (s *MemorySessionStore) Load(_ context.Context, userID string) (*deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.decks[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return deck.Restore(snap), nil
}

// Save stores a snapshot of the user's deck
func (s *MemorySessionStore) Save(_ context.Context, userID string, d *deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decks[userID] = d.Snapshot()
	return nil
}

// RedisSessionStore keeps decks in Redis as JSON snapshots with a sliding TTL
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis backed store
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(userID string) string {
	return "matchdeck:deck:" + userID
}

// Load fetches and decodes the user's deck
func (s *RedisSessionStore) Load(ctx context.Context, userID string) (*deck.Deck, error) {
	data, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load deck session: %w", err)
	}
	return decodeSnapshot(data)
}

// Save encodes and stores the user's deck
func (s *RedisSessionStore) Save(ctx context.Context, userID string, d *deck.Deck) error {
	data, err := encodeSnapshot(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save deck session: %w", err)
	}
	return nil
}

func encodeSnapshot(d *deck.Deck) ([]byte, error) {
	data, err := json.Marshal(d.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode deck session: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*deck.Deck, error) {
	var snap deck.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode deck session: %w", err)
	}
	return deck.Restore(snap), nil
}
