package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/evanmoss/chatstream/internal/chat"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strptr(s string) *string { return &s }

func TestCreateAndListConversations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateConversation(ctx, "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	second, err := s.CreateConversation(ctx, "claude-sonnet-4-5", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	// Writing a message to the first conversation bumps it above the second.
	if _, err := s.CreateMessage(ctx, chat.MessageData{
		ConversationID: first.ID,
		Role:           chat.RoleUser,
		Content:        "hello",
		UserID:         strptr("u1"),
	}); err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	convs, err := s.Conversations(ctx)
	if err != nil {
		t.Fatalf("failed to list conversations: %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != first.ID {
		t.Errorf("expected touched conversation first, got %s", convs[0].ID)
	}
	if convs[1].ID != second.ID {
		t.Errorf("expected untouched conversation second, got %s", convs[1].ID)
	}
}

func TestGetConversationMissing(t *testing.T) {
	s := newTestStore(t)

	conv, err := s.GetConversation(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv != nil {
		t.Fatalf("expected nil for missing conversation, got %+v", conv)
	}
}

func TestCreateMessageValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	tests := []struct {
		name string
		data chat.MessageData
	}{
		{
			name: "unknown role",
			data: chat.MessageData{ConversationID: conv.ID, Role: "tool", Content: "x"},
		},
		{
			name: "user message without user id",
			data: chat.MessageData{ConversationID: conv.ID, Role: chat.RoleUser, Content: "x"},
		},
		{
			name: "assistant message with user id",
			data: chat.MessageData{ConversationID: conv.ID, Role: chat.RoleAssistant, UserID: strptr("u1")},
		},
		{
			name: "missing conversation id",
			data: chat.MessageData{Role: chat.RoleUser, Content: "x", UserID: strptr("u1")},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.CreateMessage(ctx, tc.data); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestMessagesOrderedByCreation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if _, err := s.CreateMessage(ctx, chat.MessageData{
			ConversationID: conv.ID,
			Role:           chat.RoleUser,
			Content:        content,
			UserID:         strptr("u1"),
		}); err != nil {
			t.Fatalf("failed to create message %q: %v", content, err)
		}
	}

	msgs, err := s.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if msgs[i].Content != want {
			t.Errorf("message %d content=%q, want %q", i, msgs[i].Content, want)
		}
	}
}

func TestUpdateMessageContentIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	msg, err := s.CreateMessage(ctx, chat.MessageData{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.UpdateMessageContent(ctx, msg.ID, "abc"); err != nil {
			t.Fatalf("update %d failed: %v", i, err)
		}
	}

	msgs, err := s.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "abc" {
		t.Fatalf("expected one message with content abc, got %+v", msgs)
	}
}

func TestUpdateMessageContentMissing(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateMessageContent(context.Background(), "missing", "x")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestReactions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	msg, err := s.CreateMessage(ctx, chat.MessageData{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
		Content:        "hi",
	})
	if err != nil {
		t.Fatalf("failed to create message: %v", err)
	}

	first, err := s.AddReaction(ctx, msg.ID, "u1", "👍")
	if err != nil {
		t.Fatalf("failed to add reaction: %v", err)
	}
	// Re-adding the same reaction returns the existing row.
	again, err := s.AddReaction(ctx, msg.ID, "u1", "👍")
	if err != nil {
		t.Fatalf("failed to re-add reaction: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected same reaction row, got %s and %s", first.ID, again.ID)
	}

	reactions, err := s.Reactions(ctx, msg.ID)
	if err != nil {
		t.Fatalf("failed to list reactions: %v", err)
	}
	if len(reactions) != 1 {
		t.Fatalf("expected 1 reaction, got %d", len(reactions))
	}

	if err := s.RemoveReaction(ctx, msg.ID, "u1", "👍"); err != nil {
		t.Fatalf("failed to remove reaction: %v", err)
	}
	reactions, err = s.Reactions(ctx, msg.ID)
	if err != nil {
		t.Fatalf("failed to list reactions: %v", err)
	}
	if len(reactions) != 0 {
		t.Fatalf("expected no reactions after removal, got %d", len(reactions))
	}
}

func TestSchemaReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	conv, err := s.CreateConversation(context.Background(), "gpt-4o-mini", "u1")
	if err != nil {
		t.Fatalf("failed to create conversation: %v", err)
	}
	s.Close()

	// Reopening an existing database takes the fast path and keeps data.
	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetConversation(context.Background(), conv.ID)
	if err != nil {
		t.Fatalf("failed to load conversation: %v", err)
	}
	if got == nil || got.ID != conv.ID {
		t.Fatalf("conversation lost across reopen: %+v", got)
	}
}
