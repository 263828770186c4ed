package bot

import (
	"context"
	"strings"
	"time"
)

//go:generate moq --out mocks/transport.go --pkg mocks --with-resets --skip-ensure . Transport
//go:generate moq --out mocks/super_user.go --pkg mocks --with-resets --skip-ensure . SuperUser

// Transport is a chat transport used by Moderator to talk back to the chat
type Transport interface {
	// Send sends text to the chat, mentions is a list of user ids mentioned in the text
	Send(ctx context.Context, chatID, text string, mentions []string) error
	// RemoveParticipant removes user from the chat
	RemoveParticipant(ctx context.Context, chatID, userID string) error
}

// SuperUser checks if the user is allowed to run reset commands
type SuperUser interface {
	IsSuper(userName string) bool
}

// Message is primary record to pass data from transport to Moderator
type Message struct {
	ID       int       `json:"id"`
	ChatID   string    `json:"chat_id"`
	From     User      `json:"from"`
	Text     string    `json:"text,omitempty"`
	FromSelf bool      `json:"from_self,omitempty"` // sent by the bot itself
	Group    bool      `json:"group,omitempty"`     // sent to a group chat
	Sent     time.Time `json:"sent"`
}

// User defines user info of the Message
type User struct {
	ID          string `json:"id"`
	Username    string `json:"user_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Handle returns user's name used in mentions, username or display name or id
func (u User) Handle() string {
	if h := strings.TrimSpace(u.Username); h != "" {
		return h
	}
	if h := strings.TrimSpace(u.DisplayName); h != "" {
		return h
	}
	return u.ID
}

// DisplayName returns user's display name or username or id
func DisplayName(msg Message) string {
	displayUsername := msg.From.DisplayName
	if displayUsername == "" {
		displayUsername = msg.From.Username
	}
	if displayUsername == "" {
		displayUsername = msg.From.ID
	}
	return strings.TrimSpace(displayUsername)
}
