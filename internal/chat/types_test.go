package chat

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "assistant", want: RoleAssistant},
		{in: "system", want: RoleSystem},
		{in: "tool", wantErr: true},
		{in: "", wantErr: true},
		{in: "User", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				var re *RoleError
				if !errors.As(err, &re) {
					t.Fatalf("got err %v, want RoleError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTurnsFromMessages(t *testing.T) {
	uid := "u1"
	msgs := []Message{
		{ID: "m1", Role: RoleUser, Content: "hi", UserID: &uid},
		{ID: "m2", Role: RoleAssistant, Content: "hello"},
	}

	turns := TurnsFromMessages(msgs)

	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "hi" {
		t.Errorf("got %+v, want user/hi", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "hello" {
		t.Errorf("got %+v, want assistant/hello", turns[1])
	}
}
