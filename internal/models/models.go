package models

import "time"

// Profile represents a user profile shown on the discovery deck
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender,omitempty"`
	Location   string    `json:"location"`
	Distance   string    `json:"distance"`
	Bio        string    `json:"bio"`
	Occupation string    `json:"occupation,omitempty"`
	Education  string    `json:"education,omitempty"`
	Height     string    `json:"height,omitempty"`
	Photos     []string  `json:"photos"`
	IsVerified bool      `json:"is_verified"`
	LookingFor string    `json:"looking_for,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Chat represents a conversation between two profiles.
// User1ID is always the lexicographically smaller id.
type Chat struct {
	ID        string    `json:"id"`
	User1ID   string    `json:"user1_id"`
	User2ID   string    `json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PartnerOf returns the other participant of the chat
func (c *Chat) PartnerOf(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasMember reports whether userID participates in the chat
func (c *Chat) HasMember(userID string) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Message represents a single chat message
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Device represents a push notification target registered by a user
type Device struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}
