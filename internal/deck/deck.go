package deck

import (
	"errors"
	"time"

	"matchdeck-backend/internal/models"
)

// ErrExhausted is returned when a decision is applied to a deck with no cards left
var ErrExhausted = errors.New("no more profiles")

// Kind distinguishes a regular like from a super like
type Kind string

const (
	KindLike      Kind = "like"
	KindSuperLike Kind = "superlike"
)

// Match is a candidate the user swiped right on
type Match struct {
	Profile   models.Profile `json:"profile"`
	Kind      Kind           `json:"kind"`
	ChatID    string         `json:"chat_id,omitempty"`
	MatchedAt time.Time      `json:"matched_at"`
}

// MatchOption customizes the match recorded by a right decision
type MatchOption func(*Match)

// WithKind sets the kind of the recorded match
func WithKind(k Kind) MatchOption {
	return func(m *Match) { m.Kind = k }
}

// WithChat attaches the chat created for the match
func WithChat(chatID string) MatchOption {
	return func(m *Match) { m.ChatID = chatID }
}

// Outcome describes what applying a decision did to the deck
type Outcome struct {
	Decision  Decision        `json:"decision"`
	Candidate *models.Profile `json:"candidate,omitempty"`
	Match     *Match          `json:"match,omitempty"`
}

// Deck is an ordered list of candidates with a cursor pointing at the top card.
// The cursor always stays within [0, len(candidates)]. Deck is not safe for
// concurrent use.
type Deck struct {
	candidates []models.Profile
	cursor     int
	matches    []Match
	now        func() time.Time
}

// New creates a deck positioned on the first candidate
func New(candidates []models.Profile) *Deck {
	return &Deck{
		candidates: candidates,
		now:        time.Now,
	}
}

// Len returns the number of candidates
func (d *Deck) Len() int {
	return len(d.candidates)
}

// Cursor returns the index of the top card
func (d *Deck) Cursor() int {
	return d.cursor
}

// Remaining returns how many cards are left, the top card included
func (d *Deck) Remaining() int {
	return len(d.candidates) - d.cursor
}

// Exhausted reports whether every candidate has been decided on
func (d *Deck) Exhausted() bool {
	return d.cursor >= len(d.candidates)
}

// CanRewind reports whether Rewind would move the cursor
func (d *Deck) CanRewind() bool {
	return d.cursor > 0
}

// Current returns the top card
func (d *Deck) Current() (models.Profile, bool) {
	if d.Exhausted() {
		return models.Profile{}, false
	}
	return d.candidates[d.cursor], true
}

// Matches returns a copy of the recorded matches in the order they were made
func (d *Deck) Matches() []Match {
	out := make([]Match, len(d.matches))
	copy(out, d.matches)
	return out
}

// Apply applies a decision to the top card. Left and right advance the cursor,
// right also records the pre-advance candidate as a match. Up and none leave
// the deck untouched.
func (d *Deck) Apply(decision Decision, opts ...MatchOption) (Outcome, error) {
	out := Outcome{Decision: decision}

	current, ok := d.Current()
	if !ok {
		return out, ErrExhausted
	}
	out.Candidate = &current

	if !decision.Advances() {
		return out, nil
	}

	if decision == DecisionRight {
		m := Match{
			Profile:   current,
			Kind:      KindLike,
			MatchedAt: d.now(),
		}
		for _, opt := range opts {
			opt(&m)
		}
		d.matches = append(d.matches, m)
		out.Match = &m
	}

	d.cursor++
	return out, nil
}

// Rewind moves the cursor back one card. It is a no-op on the first card and
// reports whether the cursor moved. Matches already recorded are kept.
func (d *Deck) Rewind() bool {
	if d.cursor == 0 {
		return false
	}
	d.cursor--
	return true
}

// Snapshot is the serializable state of a deck
type Snapshot struct {
	Candidates []models.Profile `json:"candidates"`
	Cursor     int              `json:"cursor"`
	Matches    []Match          `json:"matches"`
}

// Snapshot captures the current deck state
func (d *Deck) Snapshot() Snapshot {
	candidates := make([]models.Profile, len(d.candidates))
	copy(candidates, d.candidates)
	return Snapshot{
		Candidates: candidates,
		Cursor:     d.cursor,
		Matches:    d.Matches(),
	}
}

// Restore rebuilds a deck from a snapshot, clamping an out of range cursor.
func Restore(s Snapshot) *Deck {
	d := New(s.Candidates)
	d.matches = s.Matches

	switch {
	case s.Cursor < 0:
		d.cursor = 0
	case s.Cursor > len(s.Candidates):
		d.cursor = len(s.Candidates)
	default:
		d.cursor = s.Cursor
	}
	return d
}
