// Package relay is the server-side intermediary between chat clients and
// LLM providers. It owns the vendor credentials; clients only ever hold the
// relay token.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanmoss/chatstream/internal/chat"
	"github.com/evanmoss/chatstream/internal/config"
)

// ErrNoAPIKey indicates the provider chosen for a model has no configured
// credential.
var ErrNoAPIKey = errors.New("relay: provider api key not configured")

// Request is one completion request after model alias resolution.
type Request struct {
	Turns []chat.Turn
	Model string
}

// Backend produces completions for one provider.
type Backend interface {
	// Complete returns the whole assistant reply.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream produces the reply incrementally, calling emit for each text
	// delta. A non-nil error from emit aborts the stream.
	Stream(ctx context.Context, req Request, emit func(delta string) error) error
}

// Backends routes models to provider backends using the configured
// provider table.
type Backends struct {
	cfg    *config.Config
	byName map[string]Backend
}

// NewBackends constructs a backend per configured provider that has an API
// key. Unknown provider names in the config are rejected.
func NewBackends(cfg *config.Config) (*Backends, error) {
	b := &Backends{cfg: cfg, byName: map[string]Backend{}}
	for name, p := range cfg.Providers {
		if p.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			b.byName[name] = newOpenAIBackend(p.APIKey)
		case "anthropic":
			b.byName[name] = newAnthropicBackend(p.APIKey)
		case "gemini":
			b.byName[name] = newGeminiBackend(p.APIKey)
		default:
			return nil, fmt.Errorf("relay: unknown provider %q", name)
		}
	}
	return b, nil
}

// For returns the backend serving a model.
func (b *Backends) For(model string) (Backend, error) {
	name := b.cfg.ProviderForModel(model)
	backend, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s (model %s)", ErrNoAPIKey, name, model)
	}
	return backend, nil
}
