package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"matchdeck-backend/internal/models"
	"matchdeck-backend/internal/repository"
)

type fakeProfiles struct {
	mu       sync.Mutex
	profiles []models.Profile
	err      error
}

func newFakeProfiles(ids ...string) *fakeProfiles {
	f := &fakeProfiles{}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		f.profiles = append(f.profiles, models.Profile{
			ID:        id,
			Name:      "Name " + id,
			Age:       25 + i,
			Photos:    []string{"profiles/" + id + "/1.jpg"},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return f
}

func (f *fakeProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.profiles {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
}

func (f *fakeProfiles) ListCandidates(_ context.Context, viewerID string) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Profile
	for _, p := range f.profiles {
		if p.ID != viewerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) GetMany(_ context.Context, ids []string) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Profile
	for _, p := range f.profiles {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) AppendPhoto(_ context.Context, id, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.profiles {
		if f.profiles[i].ID == id {
			f.profiles[i].Photos = append(f.profiles[i].Photos, key)
			return nil
		}
	}
	return fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
}

type fakeChats struct {
	mu        sync.Mutex
	chats     []models.Chat
	createErr error
	// racer inserts a competing row right before Create runs
	racer func(chat *models.Chat) *models.Chat
}

func (f *fakeChats) Create(_ context.Context, chat *models.Chat) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	if f.racer != nil {
		if rival := f.racer(chat); rival != nil {
			f.chats = append(f.chats, *rival)
		}
	}
	for _, c := range f.chats {
		if c.User1ID == chat.User1ID && c.User2ID == chat.User2ID {
			return false, nil
		}
	}
	f.chats = append(f.chats, *chat)
	return true, nil
}

func (f *fakeChats) GetByID(_ context.Context, id string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("chat %s: %w", id, repository.ErrNotFound)
}

func (f *fakeChats) FindBetween(_ context.Context, a, b string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if (c.User1ID == a && c.User2ID == b) || (c.User1ID == b && c.User2ID == a) {
			cp := c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("chat between %s and %s: %w", a, b, repository.ErrNotFound)
}

func (f *fakeChats) ListByUser(_ context.Context, userID string) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chat
	for _, c := range f.chats {
		if c.HasMember(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeMessages struct {
	mu        sync.Mutex
	messages  []models.Message
	createErr error
	clock     time.Time
}

func (f *fakeMessages) Create(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.clock.IsZero() {
		f.clock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	f.clock = f.clock.Add(time.Second)
	msg.CreatedAt = f.clock
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessages) GetByID(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("message %s: %w", id, repository.ErrNotFound)
}

func (f *fakeMessages) ListByChat(_ context.Context, chatID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessages) LatestByChats(_ context.Context, chatIDs []string) (map[string]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(chatIDs))
	for _, id := range chatIDs {
		want[id] = true
	}
	latest := make(map[string]models.Message)
	for _, m := range f.messages {
		if !want[m.ChatID] {
			continue
		}
		if cur, ok := latest[m.ChatID]; !ok || m.CreatedAt.After(cur.CreatedAt) {
			latest[m.ChatID] = m
		}
	}
	return latest, nil
}

type fakeSigner struct{}

func (fakeSigner) SignPhotos(_ context.Context, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "https://cdn.test/" + k
	}
	return out
}

func (fakeSigner) PresignUpload(_ context.Context, userID, _ string) (*UploadResponse, error) {
	return &UploadResponse{
		UploadURL: "https://upload.test/" + userID,
		Key:       "profiles/" + userID + "/new.jpg",
		ExpiresIn: 300,
	}, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) NotifyMatch(_ context.Context, recipientID string, chat *models.Chat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recipientID+":"+chat.ID)
}

var errStoreDown = errors.New("store down")
