package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"matchdeck-backend/internal/models"
)

const (
	noMessagesPreview = "No messages yet"
	emptyInboxText    = "No matches yet! Start swiping to connect with people."
)

// InboxEntry is one chat in the messages list
type InboxEntry struct {
	ChatID      string          `json:"chat_id"`
	Profile     models.Profile  `json:"profile"`
	LastMessage *models.Message `json:"last_message,omitempty"`
	Preview     string          `json:"preview"`

	matchedAt time.Time
}

// Inbox is the messages screen: fresh matches on top, conversations below
type Inbox struct {
	NewMatches    []InboxEntry `json:"new_matches"`
	Conversations []InboxEntry `json:"conversations"`
	EmptyState    string       `json:"empty_state,omitempty"`
}

// InboxService builds the matches and messages list
type InboxService struct {
	chats    *ChatService
	messages MessageStore
	profiles *ProfileService
}

// NewInboxService creates a new inbox service
func NewInboxService(chats *ChatService, messages MessageStore, profiles *ProfileService) *InboxService {
	return &InboxService{
		chats:    chats,
		messages: messages,
		profiles: profiles,
	}
}

// Inbox lists the user's chats. Chats without messages are new matches,
// newest first. The rest are ordered by their latest message, newest first.
func (s *InboxService) Inbox(ctx context.Context, userID string) (*Inbox, error) {
	chats, err := s.chats.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	inbox := &Inbox{
		NewMatches:    []InboxEntry{},
		Conversations: []InboxEntry{},
	}
	if len(chats) == 0 {
		inbox.EmptyState = emptyInboxText
		return inbox, nil
	}

	chatIDs := make([]string, 0, len(chats))
	partnerIDs := make([]string, 0, len(chats))
	for _, c := range chats {
		chatIDs = append(chatIDs, c.ID)
		partnerIDs = append(partnerIDs, c.PartnerOf(userID))
	}

	partners, err := s.profiles.Many(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}
	latest, err := s.messages.LatestByChats(ctx, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest messages: %w", err)
	}

	for _, c := range chats {
		partner, ok := partners[c.PartnerOf(userID)]
		if !ok {
			continue
		}

		entry := InboxEntry{
			ChatID:    c.ID,
			Profile:   partner,
			Preview:   noMessagesPreview,
			matchedAt: c.CreatedAt,
		}
		if msg, ok := latest[c.ID]; ok {
			m := msg
			entry.LastMessage = &m
			entry.Preview = msg.Content
			inbox.Conversations = append(inbox.Conversations, entry)
			continue
		}
		inbox.NewMatches = append(inbox.NewMatches, entry)
	}

	sort.SliceStable(inbox.NewMatches, func(i, j int) bool {
		return inbox.NewMatches[i].matchedAt.After(inbox.NewMatches[j].matchedAt)
	})
	sort.SliceStable(inbox.Conversations, func(i, j int) bool {
		return inbox.Conversations[i].LastMessage.CreatedAt.After(inbox.Conversations[j].LastMessage.CreatedAt)
	})

	return inbox, nil
}
