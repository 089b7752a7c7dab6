package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"matchdeck-backend/internal/models"
)

func TestGetOrCreateIsSymmetric(t *testing.T) {
	ctx := context.Background()
	chats := &fakeChats{}
	svc := NewChatService(chats, newFakeProfiles("alice", "bob"))

	first, created, err := svc.GetOrCreate(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !created {
		t.Fatal("expected first call to create the chat")
	}
	if first.User1ID != "alice" || first.User2ID != "bob" {
		t.Fatalf("expected normalized pair (alice, bob), got (%s, %s)", first.User1ID, first.User2ID)
	}

	second, created, err := svc.GetOrCreate(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if created {
		t.Fatal("expected second call to reuse the chat")
	}
	if second.ID != first.ID {
		t.Fatalf("expected chat %s, got %s", first.ID, second.ID)
	}
	if len(chats.chats) != 1 {
		t.Fatalf("expected 1 stored chat, got %d", len(chats.chats))
	}
}

func TestGetOrCreateRejectsSelf(t *testing.T) {
	svc := NewChatService(&fakeChats{}, newFakeProfiles("alice"))

	_, _, err := svc.GetOrCreate(context.Background(), "alice", "alice")
	if !errors.Is(err, ErrSelfChat) {
		t.Fatalf("expected ErrSelfChat, got %v", err)
	}
}

func TestGetOrCreateUnknownProfile(t *testing.T) {
	chats := &fakeChats{}
	svc := NewChatService(chats, newFakeProfiles("alice"))

	_, _, err := svc.GetOrCreate(context.Background(), "alice", "ghost")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if len(chats.chats) != 0 {
		t.Fatalf("expected no chat to be stored, got %d", len(chats.chats))
	}
}

func TestGetOrCreateConflictReturnsWinner(t *testing.T) {
	winner := models.Chat{ID: "winner", User1ID: "alice", User2ID: "bob", CreatedAt: time.Now()}
	chats := &fakeChats{
		racer: func(chat *models.Chat) *models.Chat {
			w := winner
			return &w
		},
	}
	svc := NewChatService(chats, newFakeProfiles("alice", "bob"))

	chat, created, err := svc.GetOrCreate(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if created {
		t.Fatal("expected the losing insert to report created=false")
	}
	if chat.ID != "winner" {
		t.Fatalf("expected the concurrent chat, got %s", chat.ID)
	}
}

func TestGetOrCreateStoreError(t *testing.T) {
	chats := &fakeChats{createErr: errStoreDown}
	svc := NewChatService(chats, newFakeProfiles("alice", "bob"))

	_, _, err := svc.GetOrCreate(context.Background(), "alice", "bob")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestGetForMember(t *testing.T) {
	ctx := context.Background()
	chats := &fakeChats{chats: []models.Chat{{ID: "c1", User1ID: "alice", User2ID: "bob"}}}
	svc := NewChatService(chats, newFakeProfiles())

	if _, err := svc.GetForMember(ctx, "c1", "bob"); err != nil {
		t.Fatalf("expected member access, got %v", err)
	}
	if _, err := svc.GetForMember(ctx, "c1", "carol"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if _, err := svc.GetForMember(ctx, "missing", "alice"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}
