package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"matchdeck-backend/internal/deck"
)

type sessionFixture struct {
	svc      *SessionService
	chats    *fakeChats
	notifier *recordingNotifier
}

func newSessionFixture() sessionFixture {
	profileStore := newFakeProfiles("me", "p1", "p2", "p3")
	chats := &fakeChats{}
	notifier := &recordingNotifier{}
	svc := NewSessionService(
		NewProfileService(profileStore, fakeSigner{}),
		NewChatService(chats, profileStore),
		NewMemorySessionStore(),
		notifier,
	)
	return sessionFixture{svc: svc, chats: chats, notifier: notifier}
}

func TestSessionStateStartsDeck(t *testing.T) {
	f := newSessionFixture()

	view, err := f.svc.State(context.Background(), "me")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if view.Total != 3 || view.Cursor != 0 || view.Remaining != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Current == nil || view.Current.ID != "p1" {
		t.Fatalf("expected p1 on top, got %+v", view.Current)
	}
	if view.Current.Photos[0] != "https://cdn.test/profiles/p1/1.jpg" {
		t.Fatalf("expected signed photo, got %q", view.Current.Photos[0])
	}
	if view.CanRewind {
		t.Fatal("expected no rewind on a fresh deck")
	}
}

func TestSessionLikeRecordsMatch(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	res, err := f.svc.Act(ctx, "me", ActionLike)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Decision != deck.DecisionRight {
		t.Fatalf("expected right, got %s", res.Decision)
	}
	if res.Match == nil || res.Match.Profile.ID != "p1" {
		t.Fatalf("expected match with p1, got %+v", res.Match)
	}
	if res.Chat == nil || !res.ChatCreated {
		t.Fatalf("expected a new chat, got %+v", res.Chat)
	}
	if res.Match.ChatID != res.Chat.ID {
		t.Fatalf("expected match to carry chat %s, got %s", res.Chat.ID, res.Match.ChatID)
	}
	if res.Match.Kind != deck.KindLike {
		t.Fatalf("expected like, got %s", res.Match.Kind)
	}
	if res.Deck.Cursor != 1 || res.Deck.Matches != 1 || res.Deck.Current.ID != "p2" {
		t.Fatalf("unexpected deck %+v", res.Deck)
	}

	if len(f.notifier.calls) != 1 || f.notifier.calls[0] != "p1:"+res.Chat.ID {
		t.Fatalf("expected p1 notified, got %v", f.notifier.calls)
	}

	matches, err := f.svc.Matches(ctx, "me")
	if err != nil {
		t.Fatalf("Matches failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Profile.ID != "p1" {
		t.Fatalf("unexpected matches %+v", matches)
	}
}

func TestSessionSuperLike(t *testing.T) {
	f := newSessionFixture()

	res, err := f.svc.Act(context.Background(), "me", ActionSuperLike)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Match == nil || res.Match.Kind != deck.KindSuperLike {
		t.Fatalf("expected superlike match, got %+v", res.Match)
	}
}

func TestSessionRejectAndDetail(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	res, err := f.svc.Act(ctx, "me", ActionDetail)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Detail == nil || res.Detail.Profile.ID != "p1" {
		t.Fatalf("expected p1 detail, got %+v", res.Detail)
	}
	if res.Deck.Cursor != 0 {
		t.Fatalf("expected detail not to advance, got cursor %d", res.Deck.Cursor)
	}

	res, err = f.svc.Act(ctx, "me", ActionReject)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Match != nil || res.Chat != nil {
		t.Fatal("expected no match on reject")
	}
	if res.Deck.Cursor != 1 || res.Deck.Matches != 0 {
		t.Fatalf("unexpected deck %+v", res.Deck)
	}
	if len(f.chats.chats) != 0 || len(f.notifier.calls) != 0 {
		t.Fatal("expected reject to leave chats and notifiers alone")
	}
}

func TestSessionFailedChatLeavesDeck(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.chats.createErr = errStoreDown

	if _, err := f.svc.Act(ctx, "me", ActionLike); !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error, got %v", err)
	}

	view, err := f.svc.State(ctx, "me")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if view.Cursor != 0 || view.Matches != 0 {
		t.Fatalf("expected untouched deck, got %+v", view)
	}
	if len(f.notifier.calls) != 0 {
		t.Fatal("expected no notification")
	}
}

func TestSessionRewind(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	res, err := f.svc.Act(ctx, "me", ActionRewind)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Rewound {
		t.Fatal("expected rewind at the top to be a no-op")
	}

	if _, err := f.svc.Act(ctx, "me", ActionLike); err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	res, err = f.svc.Act(ctx, "me", ActionRewind)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if !res.Rewound || res.Deck.Cursor != 0 {
		t.Fatalf("expected rewind to cursor 0, got %+v", res)
	}
	if res.Deck.Matches != 1 {
		t.Fatalf("expected rewind to keep the match, got %d", res.Deck.Matches)
	}
}

func TestSessionExhausted(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Act(ctx, "me", ActionReject); err != nil {
			t.Fatalf("reject %d failed: %v", i, err)
		}
	}

	view, err := f.svc.State(ctx, "me")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if !view.Exhausted || view.Current != nil {
		t.Fatalf("expected exhausted deck, got %+v", view)
	}

	if _, err := f.svc.Act(ctx, "me", ActionLike); !errors.Is(err, deck.ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	// a drag that snaps back only reports the exhausted deck
	res, err := f.svc.Swipe(ctx, "me", SwipeRequest{
		ViewportWidth: 400,
		Samples:       []deck.Sample{{OffsetX: 30}},
	})
	if err != nil {
		t.Fatalf("expected no error for a no-op swipe on an exhausted deck, got %v", err)
	}
	if res.Decision != deck.DecisionNone || !res.Deck.Exhausted || res.Deck.Cursor != 3 {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = f.svc.Act(ctx, "me", ActionDetail)
	if err != nil {
		t.Fatalf("expected no error for detail on an exhausted deck, got %v", err)
	}
	if res.Detail != nil || !res.Deck.Exhausted {
		t.Fatalf("unexpected result %+v", res)
	}

	restarted, err := f.svc.Start(ctx, "me")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if restarted.Cursor != 0 || restarted.Exhausted {
		t.Fatalf("expected a fresh deck, got %+v", restarted)
	}
}

func TestSessionSwipe(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	res, err := f.svc.Swipe(ctx, "me", SwipeRequest{
		ViewportWidth: 400,
		Samples: []deck.Sample{
			{OffsetX: 40},
			{OffsetX: 90},
			{OffsetX: 150, VelocityX: 200},
		},
	})
	if err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}
	if res.Decision != deck.DecisionRight || res.Match == nil {
		t.Fatalf("expected a right swipe match, got %+v", res)
	}
	if res.Overlay == nil || res.Overlay.Label != deck.LabelLike {
		t.Fatalf("expected LIKE overlay, got %+v", res.Overlay)
	}

	res, err = f.svc.Swipe(ctx, "me", SwipeRequest{
		ViewportWidth: 400,
		Samples:       []deck.Sample{{OffsetX: 20, OffsetY: 10}},
	})
	if err != nil {
		t.Fatalf("Swipe failed: %v", err)
	}
	if res.Decision != deck.DecisionNone || res.Deck.Cursor != 1 {
		t.Fatalf("expected snap back without advancing, got %+v", res)
	}
}

func TestSessionUnknownAction(t *testing.T) {
	f := newSessionFixture()

	if _, err := f.svc.Act(context.Background(), "me", "boost"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestSessionConcurrentSwipes(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	if _, err := f.svc.Start(ctx, "me"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Act(ctx, "me", ActionReject); err != nil {
				t.Errorf("reject failed: %v", err)
			}
		}()
	}
	wg.Wait()

	view, err := f.svc.State(ctx, "me")
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if view.Cursor != 3 {
		t.Fatalf("expected every swipe applied once, got cursor %d", view.Cursor)
	}
}

func TestSessionRelikeAfterRewindDoesNotRenotify(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()

	first, err := f.svc.Act(ctx, "me", ActionLike)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if _, err := f.svc.Act(ctx, "me", ActionRewind); err != nil {
		t.Fatalf("rewind failed: %v", err)
	}

	again, err := f.svc.Act(ctx, "me", ActionLike)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if again.ChatCreated || again.Chat.ID != first.Chat.ID {
		t.Fatalf("expected the existing chat to be reused, got %+v", again.Chat)
	}
	if len(f.notifier.calls) != 1 {
		t.Fatalf("expected a single notification, got %v", f.notifier.calls)
	}
	if again.Deck.Matches != 2 {
		t.Fatalf("expected each right decision to be recorded, got %d", again.Deck.Matches)
	}
}

func TestSessionExistingChatDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	if _, _, err := f.svc.chats.GetOrCreate(ctx, "p1", "me"); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	res, err := f.svc.Act(ctx, "me", ActionLike)
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if res.Match == nil || res.ChatCreated {
		t.Fatalf("expected a match on the existing chat, got %+v", res)
	}
	if len(f.notifier.calls) != 0 {
		t.Fatalf("expected no notification, got %v", f.notifier.calls)
	}
}
