package chat

import (
	"fmt"
	"time"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// RoleError reports a role string outside the known set.
type RoleError struct {
	Value string
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("unknown message role %q", e.Value)
}

// ParseRole validates a raw role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant, RoleSystem:
		return Role(s), nil
	}
	return "", &RoleError{Value: s}
}

// Message is a persisted chat message. Assistant messages are created with
// empty content and have it replaced in full as the completion streams in;
// no other field changes after creation.
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	UserID         *string
	CreatedAt      time.Time
}

// MessageData carries the caller-supplied fields for a new message. The
// store assigns the id and timestamp.
type MessageData struct {
	ConversationID string
	Role           Role
	Content        string
	UserID         *string
}

// Conversation groups messages under a model and owner.
type Conversation struct {
	ID        string
	Title     *string
	Model     string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reaction is a per-user emoji reaction attached to a message.
type Reaction struct {
	ID        string
	MessageID string
	UserID    string
	Reaction  string
	CreatedAt time.Time
}

// Turn is the wire form of a message sent to the relay: role and content
// only, with ids and timestamps stripped.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnsFromMessages projects stored messages into wire turns.
func TurnsFromMessages(msgs []Message) []Turn {
	turns := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}
