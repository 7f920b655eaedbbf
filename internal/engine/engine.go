// Package engine runs one chat turn end to end: persist the user message,
// hold a placeholder for the assistant, stream the completion through it,
// and settle the final content.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/evanmoss/chatstream/internal/auth"
	"github.com/evanmoss/chatstream/internal/chat"
	"github.com/evanmoss/chatstream/internal/client"
	"github.com/evanmoss/chatstream/internal/logging"
	"github.com/evanmoss/chatstream/internal/sse"
	"github.com/evanmoss/chatstream/internal/store"
)

// Completer is the completion transport. *client.Client satisfies it.
type Completer interface {
	Request(ctx context.Context, turns []chat.Turn, model string, stream bool) (*client.Response, error)
}

// Engine orchestrates chat turns against a store and a completion backend.
type Engine struct {
	store  store.Store
	client Completer
	auth   auth.Provider
	log    logging.Logger
	stream bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithoutStreaming requests whole completions instead of event streams.
func WithoutStreaming() Option {
	return func(e *Engine) { e.stream = false }
}

// New returns an engine wired to its collaborators.
func New(st store.Store, c Completer, a auth.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		client: c,
		auth:   a,
		log:    logging.Nop(),
		stream: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn is the durable outcome of a completed SendTurn.
type Turn struct {
	UserMessage      *chat.Message
	AssistantMessage *chat.Message
	Content          string
}

// UpdateFunc receives the assistant message id and its accumulated content
// after every delta, in arrival order.
type UpdateFunc func(id, content string)

// SendTurn sends content as the next user message in conv and streams the
// assistant's reply. Both the user message and an empty assistant
// placeholder are persisted before any network traffic, so the exchange
// survives a failed completion. Each delta is written through to the store
// best-effort and then reported via onUpdate; only the final write after
// the stream ends is fatal on failure.
//
// SendTurn never retries. Callers that re-invoke it after a failure create
// fresh message rows. Concurrent turns on one conversation are the
// caller's responsibility to serialize.
func (e *Engine) SendTurn(ctx context.Context, conv *chat.Conversation, history []chat.Message, content string, onUpdate UpdateFunc) (*Turn, error) {
	if onUpdate == nil {
		onUpdate = func(string, string) {}
	}

	user, err := e.auth.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	userMsg, err := e.store.CreateMessage(ctx, chat.MessageData{
		ConversationID: conv.ID,
		Role:           chat.RoleUser,
		Content:        content,
		UserID:         &user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	placeholder, err := e.store.CreateMessage(ctx, chat.MessageData{
		ConversationID: conv.ID,
		Role:           chat.RoleAssistant,
	})
	if err != nil {
		return nil, fmt.Errorf("persist assistant placeholder: %w", err)
	}

	turns := chat.TurnsFromMessages(history)
	turns = append(turns, chat.Turn{Role: chat.RoleUser, Content: content})

	resp, err := e.client.Request(ctx, turns, conv.Model, e.stream)
	if err != nil {
		return nil, err
	}

	var accumulated string
	if resp.Streaming() {
		accumulated, err = e.consumeStream(ctx, resp.Body, placeholder.ID, onUpdate)
		if err != nil {
			return nil, err
		}
	} else {
		// A whole completion is one delta: report it, then settle.
		accumulated = resp.Content
		onUpdate(placeholder.ID, accumulated)
	}

	// Settle: the durable record must match what the stream produced.
	if err := e.store.UpdateMessageContent(ctx, placeholder.ID, accumulated); err != nil {
		return nil, fmt.Errorf("persist final content: %w", err)
	}

	final := *placeholder
	final.Content = accumulated
	return &Turn{UserMessage: userMsg, AssistantMessage: &final, Content: accumulated}, nil
}

// consumeStream reads the event stream to completion, writing each delta
// through to the store and the caller.
func (e *Engine) consumeStream(ctx context.Context, body io.ReadCloser, messageID string, onUpdate UpdateFunc) (string, error) {
	defer body.Close()

	dec := sse.NewDecoder(e.log)
	defer dec.Finish()

	var accumulated string
	buf := make([]byte, 4096)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("stream cancelled: %w", err)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			deltas, err := dec.Feed(buf[:n])
			if err != nil {
				return "", fmt.Errorf("decode stream: %w", err)
			}
			for _, delta := range deltas {
				accumulated += delta

				if err := ctx.Err(); err != nil {
					return "", fmt.Errorf("stream cancelled: %w", err)
				}
				// Mid-stream writes are best-effort; the settle write at
				// the end is the one that must succeed.
				if err := e.store.UpdateMessageContent(ctx, messageID, accumulated); err != nil {
					e.log.Warnf("mid-stream persist failed for message %s: %v", messageID, err)
				}
				onUpdate(messageID, accumulated)
			}
		}
		if readErr == io.EOF || dec.Done() {
			return accumulated, nil
		}
		if readErr != nil {
			if errors.Is(readErr, context.Canceled) || errors.Is(readErr, context.DeadlineExceeded) {
				return "", fmt.Errorf("stream cancelled: %w", readErr)
			}
			return "", fmt.Errorf("read stream: %w", readErr)
		}
	}
}
