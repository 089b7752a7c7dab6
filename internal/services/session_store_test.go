package services

import (
	"context"
	"errors"
	"testing"

	"matchdeck-backend/internal/deck"
	"matchdeck-backend/internal/models"
)

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	if _, err := store.Load(ctx, "alice"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}

	d := deck.New([]models.Profile{{ID: "p1"}, {ID: "p2"}})
	if err := store.Save(ctx, "alice", d); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// mutating the live deck must not leak into the stored copy
	if _, err := d.Apply(deck.DecisionLeft); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	loaded, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Cursor() != 0 {
		t.Fatalf("expected stored cursor 0, got %d", loaded.Cursor())
	}
}

func TestSnapshotEncoding(t *testing.T) {
	d := deck.New([]models.Profile{{ID: "p1", Name: "Ana"}, {ID: "p2"}, {ID: "p3"}})
	if _, err := d.Apply(deck.DecisionRight, deck.WithKind(deck.KindSuperLike), deck.WithChat("c1")); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	data, err := encodeSnapshot(d)
	if err != nil {
		t.Fatalf("encodeSnapshot failed: %v", err)
	}
	restored, err := decodeSnapshot(data)
	if err != nil {
		t.Fatalf("decodeSnapshot failed: %v", err)
	}

	if restored.Cursor() != 1 || restored.Len() != 3 {
		t.Fatalf("expected cursor 1 of 3, got %d of %d", restored.Cursor(), restored.Len())
	}
	matches := restored.Matches()
	if len(matches) != 1 || matches[0].ChatID != "c1" || matches[0].Kind != deck.KindSuperLike {
		t.Fatalf("unexpected matches %+v", matches)
	}

	if _, err := decodeSnapshot([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
}
