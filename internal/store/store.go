// Package store persists conversations and messages.
package store

import (
	"context"
	"fmt"

	"github.com/evanmoss/chatstream/internal/chat"
)

// Store is the persistence surface the engine and CLI depend on.
type Store interface {
	CreateConversation(ctx context.Context, model, userID string) (*chat.Conversation, error)
	Conversations(ctx context.Context) ([]chat.Conversation, error)
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	CreateMessage(ctx context.Context, data chat.MessageData) (*chat.Message, error)
	UpdateMessageContent(ctx context.Context, id, content string) error
	Messages(ctx context.Context, conversationID string) ([]chat.Message, error)

	AddReaction(ctx context.Context, messageID, userID, reaction string) (*chat.Reaction, error)
	RemoveReaction(ctx context.Context, messageID, userID, reaction string) error
	Reactions(ctx context.Context, messageID string) ([]chat.Reaction, error)

	Close() error
}

// NotFoundError reports an operation against a missing row.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// validateMessage enforces the invariants a message row must satisfy: a
// known role, and a user id present exactly when the role is user.
func validateMessage(data chat.MessageData) error {
	if _, err := chat.ParseRole(string(data.Role)); err != nil {
		return err
	}
	if data.ConversationID == "" {
		return fmt.Errorf("message requires a conversation id")
	}
	if data.Role == chat.RoleUser && data.UserID == nil {
		return fmt.Errorf("user message requires a user id")
	}
	if data.Role != chat.RoleUser && data.UserID != nil {
		return fmt.Errorf("%s message must not carry a user id", data.Role)
	}
	return nil
}
