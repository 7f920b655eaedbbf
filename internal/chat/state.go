package chat

import "sync"

// State is the in-memory view of the chat UI: the conversation list, the
// active conversation with its messages, and the loading/error flags.
type State struct {
	Conversations       []Conversation
	CurrentConversation *Conversation
	Messages            []Message
	IsLoading           bool
	Err                 string
}

// Action mutates State through Reduce. Each implementation is a pure
// description of one state change.
type Action interface {
	isAction()
}

// SetConversations replaces the conversation list.
type SetConversations struct{ Conversations []Conversation }

// SetCurrentConversation switches the active conversation and replaces the
// visible messages in the same step.
type SetCurrentConversation struct {
	Conversation *Conversation
	Messages     []Message
}

// AddConversation prepends a new conversation and makes it current with an
// empty message list.
type AddConversation struct{ Conversation Conversation }

// SetMessages replaces the visible messages.
type SetMessages struct{ Messages []Message }

// AddMessage appends one message.
type AddMessage struct{ Message Message }

// UpdateMessage replaces the content of the message with the given id. When
// no such message exists the state is returned unchanged.
type UpdateMessage struct {
	ID      string
	Content string
}

// SetLoading sets the in-flight flag.
type SetLoading struct{ Loading bool }

// SetError sets or clears the error banner.
type SetError struct{ Err string }

func (SetConversations) isAction()       {}
func (SetCurrentConversation) isAction() {}
func (AddConversation) isAction()        {}
func (SetMessages) isAction()            {}
func (AddMessage) isAction()             {}
func (UpdateMessage) isAction()          {}
func (SetLoading) isAction()             {}
func (SetError) isAction()               {}

// Reduce applies one action to a state and returns the next state. It never
// mutates its input; slices are copied before modification so snapshots held
// by callers stay valid.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetConversations:
		s.Conversations = a.Conversations
	case SetCurrentConversation:
		s.CurrentConversation = a.Conversation
		s.Messages = a.Messages
	case AddConversation:
		convs := make([]Conversation, 0, len(s.Conversations)+1)
		convs = append(convs, a.Conversation)
		convs = append(convs, s.Conversations...)
		s.Conversations = convs
		conv := a.Conversation
		s.CurrentConversation = &conv
		s.Messages = nil
	case SetMessages:
		s.Messages = a.Messages
	case AddMessage:
		msgs := make([]Message, 0, len(s.Messages)+1)
		msgs = append(msgs, s.Messages...)
		msgs = append(msgs, a.Message)
		s.Messages = msgs
	case UpdateMessage:
		for i := range s.Messages {
			if s.Messages[i].ID == a.ID {
				msgs := make([]Message, len(s.Messages))
				copy(msgs, s.Messages)
				msgs[i].Content = a.Content
				s.Messages = msgs
				break
			}
		}
	case SetLoading:
		s.IsLoading = a.Loading
	case SetError:
		s.Err = a.Err
	}
	return s
}

// StateStore serializes Reduce calls behind a mutex so deltas arriving from
// a stream and UI reads never race.
type StateStore struct {
	mu    sync.Mutex
	state State
}

// NewStateStore returns a store holding the zero state.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// Dispatch applies an action and returns the resulting state.
func (s *StateStore) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Snapshot returns the current state.
func (s *StateStore) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ApplyStreamUpdate folds one streamed delta into the state. The first
// update for an unseen message id appends the assistant row, so later
// updates for that id land on a real message instead of the not-found
// no-op.
func (s *StateStore) ApplyStreamUpdate(conversationID, id, content string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := false
	for i := range s.state.Messages {
		if s.state.Messages[i].ID == id {
			known = true
			break
		}
	}
	if !known {
		s.state = Reduce(s.state, AddMessage{Message: Message{
			ID:             id,
			ConversationID: conversationID,
			Role:           RoleAssistant,
		}})
	}
	s.state = Reduce(s.state, UpdateMessage{ID: id, Content: content})
	return s.state
}
