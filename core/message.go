package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages authored by the person giving feedback.
	RoleUser Role = "user"
	// RoleAssistant marks AI-generated follow-up messages.
	RoleAssistant Role = "assistant"
)

// ConversationMessage is one turn in a session's message trail. Messages are
// append-only; after insertion they are never mutated.
type ConversationMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserMessage creates a user-authored message with a fresh id.
func NewUserMessage(content string) ConversationMessage {
	return ConversationMessage{ID: NewID(), Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant-authored follow-up message.
func NewAssistantMessage(content string) ConversationMessage {
	return ConversationMessage{ID: NewID(), Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// NewID generates a unique identifier for sessions and messages.
func NewID() string { return uuid.NewString() }
