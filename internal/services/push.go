package services

import (
	"context"
	"fmt"
	"time"

	appconfig "matchdeck-backend/internal/config"
	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher sends one APNs notification
type Pusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// PushService stores device tokens and sends match alerts over APNs
type PushService struct {
	devices DeviceStore
	client  Pusher
	topic   string
}

// NewAPNsClient builds a token-authenticated APNs client
func NewAPNsClient(cfg appconfig.APNsConfig) (*apns2.Client, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		return client.Production(), nil
	}
	return client.Development(), nil
}

// NewPushService creates a new push service. A nil client only records tokens.
func NewPushService(devices DeviceStore, client Pusher, topic string) *PushService {
	return &PushService{
		devices: devices,
		client:  client,
		topic:   topic,
	}
}

// RegisterDevice stores an APNs device token for the user
func (s *PushService) RegisterDevice(ctx context.Context, userID, deviceToken string) error {
	device := &models.Device{
		UserID:    userID,
		Token:     deviceToken,
		UpdatedAt: time.Now(),
	}
	if err := s.devices.Upsert(ctx, device); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// NotifyMatch sends a match alert to every device of the recipient.
// Failures are logged and never reach the caller.
func (s *PushService) NotifyMatch(ctx context.Context, recipientID string, chat *models.Chat) {
	if s.client == nil {
		return
	}

	tokens, err := s.devices.TokensForUser(ctx, recipientID)
	if err != nil {
		log.Error().Err(err).Str("user_id", recipientID).Msg("Failed to load device tokens")
		return
	}

	p := payload.NewPayload().
		AlertTitle("It's a match!").
		AlertBody("Someone liked you back. Say hi!").
		Sound("default").
		Custom("chat_id", chat.ID)

	for _, t := range tokens {
		n := &apns2.Notification{
			DeviceToken: t,
			Topic:       s.topic,
			Payload:     p,
		}

		res, err := s.client.PushWithContext(ctx, n)
		if err != nil {
			metrics.PushSent.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("user_id", recipientID).Msg("Failed to push match notification")
			continue
		}

		if res.Sent() {
			metrics.PushSent.WithLabelValues("sent").Inc()
			continue
		}

		metrics.PushSent.WithLabelValues("rejected").Inc()
		log.Warn().
			Str("user_id", recipientID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("APNs rejected notification")

		if res.Reason == apns2.ReasonBadDeviceToken || res.Reason == apns2.ReasonUnregistered {
			if err := s.devices.Delete(ctx, t); err != nil {
				log.Error().Err(err).Msg("Failed to delete stale device token")
			}
		}
	}
}
