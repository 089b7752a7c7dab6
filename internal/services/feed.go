package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// insertEvent is the NOTIFY payload written by the messages insert trigger
type insertEvent struct {
	ID     string `json:"id"`
	ChatID string `json:"chat_id"`
}

// Feed turns message insert notifications into pushes to subscribed sockets.
// Events missed while the listen connection is down are not replayed.
type Feed struct {
	db             *pgxpool.Pool
	messages       MessageStore
	hub            *WSHub
	channel        string
	reconnectDelay time.Duration
}

// NewFeed creates a new insert feed
func NewFeed(db *pgxpool.Pool, messages MessageStore, hub *WSHub, channel string, reconnectDelay time.Duration) *Feed {
	return &Feed{
		db:             db,
		messages:       messages,
		hub:            hub,
		channel:        channel,
		reconnectDelay: reconnectDelay,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection failures
func (f *Feed) Run(ctx context.Context) {
	for {
		err := f.listen(ctx)
		if ctx.Err() != nil {
			log.Info().Msg("Message feed stopped")
			return
		}

		metrics.FeedReconnects.Inc()
		log.Error().
			Err(err).
			Dur("retry_in", f.reconnectDelay).
			Msg("Message feed connection lost")

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.reconnectDelay):
		}
	}
}

func (f *Feed) listen(ctx context.Context) error {
	pooled, err := f.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	// The connection stays in LISTEN mode, so it never goes back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.channel, err)
	}
	log.Info().Str("channel", f.channel).Msg("Listening for message inserts")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("failed waiting for notification: %w", err)
		}
		if err := f.Handle(ctx, n.Payload); err != nil {
			log.Error().Err(err).Str("payload", n.Payload).Msg("Failed to handle message insert")
		}
	}
}

// Handle delivers one insert notification to the chat's subscribers
func (f *Feed) Handle(ctx context.Context, payload string) error {
	var ev insertEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		metrics.FeedEvents.WithLabelValues("invalid").Inc()
		return fmt.Errorf("failed to decode notification: %w", err)
	}
	if ev.ID == "" || ev.ChatID == "" {
		metrics.FeedEvents.WithLabelValues("invalid").Inc()
		return fmt.Errorf("notification is missing ids")
	}

	if !f.hub.HasSubscribers(ev.ChatID) {
		metrics.FeedEvents.WithLabelValues("skipped").Inc()
		return nil
	}

	msg, err := f.messages.GetByID(ctx, ev.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.FeedEvents.WithLabelValues("skipped").Inc()
			return nil
		}
		metrics.FeedEvents.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load message %s: %w", ev.ID, err)
	}

	delivered := f.hub.Publish(msg)
	metrics.FeedEvents.WithLabelValues("delivered").Inc()
	log.Debug().
		Str("chat_id", msg.ChatID).
		Str("message_id", msg.ID).
		Int("subscribers", delivered).
		Msg("Message pushed")
	return nil
}
