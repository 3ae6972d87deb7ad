// Package chat implements the assistant chat panel: conversations persisted
// per member and replies from the SANJEEVANI health assistant.
package chat

import (
	"errors"
	"time"

	"github.com/delarsify/sanjeevani/internal/llm"
)

var (
	// ErrEmptyMessage is returned when a message has no content.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrAssistantUnavailable is returned when no assistant provider is
	// configured.
	ErrAssistantUnavailable = errors.New("assistant is unavailable")
	// ErrPanelClosed is returned when a panel is used after Unmount.
	ErrPanelClosed = errors.New("chat panel closed")
)

// MaxMessageLength bounds a single user message, in bytes.
const MaxMessageLength = 4000

// Conversation is one member's chat thread with the assistant.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single entry in a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Seq            int       `json:"seq"`
	Role           llm.Role  `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
