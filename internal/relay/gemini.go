package relay

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/evanmoss/chatstream/internal/chat"
)

type geminiBackend struct {
	apiKey string
}

func newGeminiBackend(apiKey string) *geminiBackend {
	return &geminiBackend{apiKey: apiKey}
}

func (b *geminiBackend) newClient(ctx context.Context) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  b.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return client, nil
}

func buildGeminiContents(req Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	var cfg *genai.GenerateContentConfig
	var contents []*genai.Content
	for _, t := range req.Turns {
		switch t.Role {
		case chat.RoleSystem:
			if cfg == nil {
				cfg = &genai.GenerateContentConfig{}
			}
			cfg.SystemInstruction = genai.NewContentFromText(t.Content, genai.RoleUser)
		case chat.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(t.Content, genai.RoleUser))
		}
	}
	return contents, cfg
}

func (b *geminiBackend) Complete(ctx context.Context, req Request) (string, error) {
	client, err := b.newClient(ctx)
	if err != nil {
		return "", err
	}
	contents, cfg := buildGeminiContents(req)

	resp, err := client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return resp.Text(), nil
}

func (b *geminiBackend) Stream(ctx context.Context, req Request, emit func(delta string) error) error {
	client, err := b.newClient(ctx)
	if err != nil {
		return err
	}
	contents, cfg := buildGeminiContents(req)

	for chunk, err := range client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("gemini stream: %w", err)
		}
		if text := chunk.Text(); text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
	}
	return nil
}
