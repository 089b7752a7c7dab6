package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"matchdeck-backend/internal/deck"
	"matchdeck-backend/internal/metrics"
	"matchdeck-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Deck actions triggered by the buttons under the card
const (
	ActionReject    = "reject"
	ActionLike      = "like"
	ActionSuperLike = "superlike"
	ActionDetail    = "detail"
	ActionRewind    = "rewind"
)

// MatchNotifier is told about a right swipe on recipientID
type MatchNotifier interface {
	NotifyMatch(ctx context.Context, recipientID string, chat *models.Chat)
}

// SwipeRequest is a full drag gesture recorded by the client
type SwipeRequest struct {
	ViewportWidth float64       `json:"viewport_width" validate:"gte=0"`
	Samples       []deck.Sample `json:"samples" validate:"required,min=1,max=500"`
}

// DeckView is the client-facing state of a deck
type DeckView struct {
	Current   *models.Profile `json:"current,omitempty"`
	Cursor    int             `json:"cursor"`
	Total     int             `json:"total"`
	Remaining int             `json:"remaining"`
	CanRewind bool            `json:"can_rewind"`
	Exhausted bool            `json:"exhausted"`
	Matches   int             `json:"matches"`
}

// SwipeResult describes the effect of one decision or action
type SwipeResult struct {
	Decision    deck.Decision  `json:"decision"`
	Overlay     *deck.Overlay  `json:"overlay,omitempty"`
	Match       *deck.Match    `json:"match,omitempty"`
	Chat        *models.Chat   `json:"chat,omitempty"`
	ChatCreated bool           `json:"chat_created,omitempty"`
	Detail      *ProfileDetail `json:"detail,omitempty"`
	Rewound     bool           `json:"rewound,omitempty"`
	Deck        DeckView       `json:"deck"`
}

// SessionService drives the discovery deck of each user
type SessionService struct {
	profiles  *ProfileService
	chats     *ChatService
	store     SessionStore
	notifiers []MatchNotifier
	locks     keyedMutex
}

// NewSessionService creates a new session service
func NewSessionService(profiles *ProfileService, chats *ChatService, store SessionStore, notifiers ...MatchNotifier) *SessionService {
	return &SessionService{
		profiles:  profiles,
		chats:     chats,
		store:     store,
		notifiers: notifiers,
		locks:     keyedMutex{locks: make(map[string]*keyedLock)},
	}
}

// Start loads a fresh candidate list for the user, replacing any existing deck
func (s *SessionService) Start(ctx context.Context, userID string) (*DeckView, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	d, err := s.start(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, d)
	return &view, nil
}

func (s *SessionService) start(ctx context.Context, userID string) (*deck.Deck, error) {
	candidates, err := s.profiles.Candidates(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := deck.New(candidates)
	if err := s.store.Save(ctx, userID, d); err != nil {
		return nil, fmt.Errorf("failed to save deck: %w", err)
	}

	log.Info().
		Str("user_id", userID).
		Int("candidates", d.Len()).
		Msg("Deck started")
	return d, nil
}

// load must be called with the user's lock held
func (s *SessionService) load(ctx context.Context, userID string) (*deck.Deck, error) {
	d, err := s.store.Load(ctx, userID)
	if errors.Is(err, ErrNoSession) {
		return s.start(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deck: %w", err)
	}
	return d, nil
}

// State returns the user's deck, starting one when none exists
func (s *SessionService) State(ctx context.Context, userID string) (*DeckView, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	d, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.view(ctx, d)
	return &view, nil
}

// Matches returns the matches recorded in the user's deck
func (s *SessionService) Matches(ctx context.Context, userID string) ([]deck.Match, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	d, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	matches := d.Matches()
	for i := range matches {
		matches[i].Profile = s.profiles.Sign(ctx, matches[i].Profile)
	}
	return matches, nil
}

// Swipe classifies a recorded drag and applies the decision to the top card
func (s *SessionService) Swipe(ctx context.Context, userID string, req SwipeRequest) (*SwipeResult, error) {
	decision, overlay, err := deck.Replay(req.ViewportWidth, req.Samples)
	if err != nil {
		return nil, err
	}

	result, err := s.decide(ctx, userID, decision, deck.KindLike)
	if err != nil {
		return nil, err
	}
	result.Overlay = &overlay
	return result, nil
}

// Act applies one of the deck buttons
func (s *SessionService) Act(ctx context.Context, userID, action string) (*SwipeResult, error) {
	switch action {
	case ActionReject:
		return s.decide(ctx, userID, deck.DecisionLeft, deck.KindLike)
	case ActionLike:
		return s.decide(ctx, userID, deck.DecisionRight, deck.KindLike)
	case ActionSuperLike:
		return s.decide(ctx, userID, deck.DecisionRight, deck.KindSuperLike)
	case ActionDetail:
		return s.decide(ctx, userID, deck.DecisionUp, deck.KindLike)
	case ActionRewind:
		return s.rewind(ctx, userID)
	default:
		return nil, ErrUnknownAction
	}
}

// decide applies a decision. A right decision needs its chat first; if that
// fails the deck is left as it was. Only a newly created chat notifies the
// candidate, so liking again after a rewind stays quiet.
func (s *SessionService) decide(ctx context.Context, userID string, decision deck.Decision, kind deck.Kind) (*SwipeResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	d, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &SwipeResult{Decision: decision}

	current, ok := d.Current()
	if !ok {
		if decision.Advances() {
			return nil, deck.ErrExhausted
		}
		result.Deck = s.view(ctx, d)
		return result, nil
	}

	var opts []deck.MatchOption
	if decision == deck.DecisionRight {
		chat, created, err := s.chats.GetOrCreate(ctx, userID, current.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to open chat for match: %w", err)
		}
		result.Chat = chat
		result.ChatCreated = created
		opts = append(opts, deck.WithKind(kind), deck.WithChat(chat.ID))
	}

	outcome, err := d.Apply(decision, opts...)
	if err != nil {
		return nil, err
	}

	if decision.Advances() {
		if err := s.store.Save(ctx, userID, d); err != nil {
			return nil, fmt.Errorf("failed to save deck: %w", err)
		}
	}
	metrics.Swipes.WithLabelValues(string(decision)).Inc()

	switch decision {
	case deck.DecisionRight:
		match := *outcome.Match
		match.Profile = s.profiles.Sign(ctx, match.Profile)
		result.Match = &match
		metrics.Matches.WithLabelValues(string(kind)).Inc()

		if result.ChatCreated {
			for _, n := range s.notifiers {
				n.NotifyMatch(ctx, current.ID, result.Chat)
			}
		}

		log.Info().
			Str("user_id", userID).
			Str("profile_id", current.ID).
			Str("chat_id", result.Chat.ID).
			Str("kind", string(kind)).
			Msg("Match recorded")
	case deck.DecisionUp:
		result.Detail = s.profiles.DetailOf(ctx, current)
	}

	result.Deck = s.view(ctx, d)
	return result, nil
}

func (s *SessionService) rewind(ctx context.Context, userID string) (*SwipeResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	d, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &SwipeResult{Decision: deck.DecisionNone}
	if d.Rewind() {
		if err := s.store.Save(ctx, userID, d); err != nil {
			return nil, fmt.Errorf("failed to save deck: %w", err)
		}
		result.Rewound = true
		metrics.Rewinds.Inc()
	}

	result.Deck = s.view(ctx, d)
	return result, nil
}

func (s *SessionService) view(ctx context.Context, d *deck.Deck) DeckView {
	v := DeckView{
		Cursor:    d.Cursor(),
		Total:     d.Len(),
		Remaining: d.Remaining(),
		CanRewind: d.CanRewind(),
		Exhausted: d.Exhausted(),
		Matches:   len(d.Matches()),
	}
	if current, ok := d.Current(); ok {
		signed := s.profiles.Sign(ctx, current)
		v.Current = &signed
	}
	return v
}

// keyedMutex serializes work per key and forgets keys nobody holds
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
