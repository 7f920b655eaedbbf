package chat

import (
	"reflect"
	"testing"
)

func msg(id, content string) Message {
	return Message{ID: id, Role: RoleAssistant, Content: content}
}

func TestReduceAddConversation(t *testing.T) {
	s := State{Conversations: []Conversation{{ID: "old"}}, Messages: []Message{msg("m1", "hi")}}

	next := Reduce(s, AddConversation{Conversation: Conversation{ID: "new"}})

	if len(next.Conversations) != 2 {
		t.Fatalf("got %d conversations, want 2", len(next.Conversations))
	}
	if next.Conversations[0].ID != "new" {
		t.Errorf("got first conversation %q, want %q", next.Conversations[0].ID, "new")
	}
	if next.CurrentConversation == nil || next.CurrentConversation.ID != "new" {
		t.Errorf("new conversation not made current: %+v", next.CurrentConversation)
	}
	if len(next.Messages) != 0 {
		t.Errorf("messages not cleared: %+v", next.Messages)
	}
	// input untouched
	if len(s.Conversations) != 1 || s.Conversations[0].ID != "old" {
		t.Errorf("input state mutated: %+v", s.Conversations)
	}
}

func TestReduceAddMessage(t *testing.T) {
	s := State{Messages: []Message{msg("m1", "a")}}

	next := Reduce(s, AddMessage{Message: msg("m2", "b")})

	if len(next.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(next.Messages))
	}
	if next.Messages[1].ID != "m2" {
		t.Errorf("got appended message %q, want %q", next.Messages[1].ID, "m2")
	}
	if len(s.Messages) != 1 {
		t.Errorf("input state mutated: %+v", s.Messages)
	}
}

func TestReduceUpdateMessage(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		content string
		want    []string
	}{
		{
			name:    "existing message replaced",
			id:      "m2",
			content: "updated",
			want:    []string{"a", "updated", "c"},
		},
		{
			name:    "unknown id is a no-op",
			id:      "missing",
			content: "updated",
			want:    []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := State{Messages: []Message{msg("m1", "a"), msg("m2", "b"), msg("m3", "c")}}

			next := Reduce(s, UpdateMessage{ID: tt.id, Content: tt.content})

			var got []string
			for _, m := range next.Messages {
				got = append(got, m.Content)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got contents %v, want %v", got, tt.want)
			}
			if s.Messages[1].Content != "b" {
				t.Errorf("input state mutated: %q", s.Messages[1].Content)
			}
		})
	}
}

func TestReduceUpdateMessageMissingReturnsEqualState(t *testing.T) {
	s := State{Messages: []Message{msg("m1", "a")}, IsLoading: true}

	next := Reduce(s, UpdateMessage{ID: "nope", Content: "x"})

	if !reflect.DeepEqual(next, s) {
		t.Fatalf("got %+v, want unchanged %+v", next, s)
	}
}

func TestReduceSetCurrentConversation(t *testing.T) {
	conv := Conversation{ID: "c1"}
	msgs := []Message{msg("m1", "hello")}

	next := Reduce(State{}, SetCurrentConversation{Conversation: &conv, Messages: msgs})

	if next.CurrentConversation == nil || next.CurrentConversation.ID != "c1" {
		t.Fatalf("current conversation not set: %+v", next.CurrentConversation)
	}
	if len(next.Messages) != 1 || next.Messages[0].ID != "m1" {
		t.Errorf("messages not replaced: %+v", next.Messages)
	}
}

func TestReduceFlags(t *testing.T) {
	s := Reduce(State{}, SetLoading{Loading: true})
	if !s.IsLoading {
		t.Error("loading flag not set")
	}
	s = Reduce(s, SetError{Err: "boom"})
	if s.Err != "boom" {
		t.Errorf("got error %q, want %q", s.Err, "boom")
	}
	s = Reduce(s, SetError{})
	if s.Err != "" {
		t.Errorf("error not cleared: %q", s.Err)
	}
}

func TestStateStoreApplyStreamUpdate(t *testing.T) {
	store := NewStateStore()
	uid := "u1"
	store.Dispatch(AddMessage{Message: Message{ID: "m1", Role: RoleUser, Content: "hi", UserID: &uid}})

	// First delta appends the assistant row and sets its content.
	got := store.ApplyStreamUpdate("c1", "a1", "Hel")
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(got.Messages))
	}
	if m := got.Messages[1]; m.ID != "a1" || m.Role != RoleAssistant || m.ConversationID != "c1" {
		t.Fatalf("appended row: %+v", m)
	}
	if got.Messages[1].Content != "Hel" {
		t.Errorf("content=%q, want %q", got.Messages[1].Content, "Hel")
	}

	// Later deltas replace the content without duplicating the row.
	got = store.ApplyStreamUpdate("c1", "a1", "Hello")
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages after second delta, want 2", len(got.Messages))
	}
	if got.Messages[1].Content != "Hello" {
		t.Errorf("content=%q, want %q", got.Messages[1].Content, "Hello")
	}
}

func TestStateStoreDispatch(t *testing.T) {
	store := NewStateStore()

	store.Dispatch(AddMessage{Message: msg("m1", "")})
	store.Dispatch(UpdateMessage{ID: "m1", Content: "Hello"})

	got := store.Snapshot()
	if len(got.Messages) != 1 || got.Messages[0].Content != "Hello" {
		t.Fatalf("got %+v, want one message with content Hello", got.Messages)
	}
}
