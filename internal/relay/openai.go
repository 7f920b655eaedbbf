package relay

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/evanmoss/chatstream/internal/chat"
)

type openAIBackend struct {
	client openai.Client
}

func newOpenAIBackend(apiKey string) *openAIBackend {
	return &openAIBackend{client: openai.NewClient(option.WithAPIKey(apiKey))}
}

func buildOpenAIParams(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Turns))
	for _, t := range req.Turns {
		switch t.Role {
		case chat.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case chat.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}
	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
}

func (b *openAIBackend) Complete(ctx context.Context, req Request) (string, error) {
	completion, err := b.client.Chat.Completions.New(ctx, buildOpenAIParams(req))
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}

func (b *openAIBackend) Stream(ctx context.Context, req Request, emit func(delta string) error) error {
	stream := b.client.Chat.Completions.NewStreaming(ctx, buildOpenAIParams(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	return nil
}
