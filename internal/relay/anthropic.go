package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/evanmoss/chatstream/internal/chat"
)

type anthropicBackend struct {
	client anthropic.Client
}

func newAnthropicBackend(apiKey string) *anthropicBackend {
	return &anthropicBackend{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func buildAnthropicParams(req Request) anthropic.MessageNewParams {
	// Anthropic takes system prompts out of band.
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, t := range req.Turns {
		switch t.Role {
		case chat.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: t.Content})
		case chat.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Content)))
		}
	}
	return anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: 4096,
		System:    system,
		Messages:  messages,
	}
}

func (b *anthropicBackend) Complete(ctx context.Context, req Request) (string, error) {
	message, err := b.client.Messages.New(ctx, buildAnthropicParams(req))
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var out strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(text.Text)
		}
	}
	return out.String(), nil
}

func (b *anthropicBackend) Stream(ctx context.Context, req Request, emit func(delta string) error) error {
	stream := b.client.Messages.NewStreaming(ctx, buildAnthropicParams(req))
	defer stream.Close()

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				if err := emit(delta.Text); err != nil {
					return err
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}
