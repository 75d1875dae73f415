package model

import "github.com/google/uuid"

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one message of the conversation history sent with a
// chat request. Messages are client-held; the server is stateless
// between turns.
type ChatMessage struct {
	ID      string   `json:"id,omitempty"`
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// NewConversationID generates a time-ordered UUID v7 conversation id
func NewConversationID() string {
	return uuid.Must(uuid.NewV7()).String()
}
