// Package domain holds the core types of the OMEGA negotiation client.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	// RoleUser marks a message written by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message produced by the assistant.
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn. Messages are immutable once appended.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewMessage creates a message with a fresh identifier and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// Session is a chat conversation as persisted by the session service.
type Session struct {
	ID           string
	Title        string
	Messages     []Message
	ProfileState ProfileSnapshot
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
