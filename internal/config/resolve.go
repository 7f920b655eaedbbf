package config

import "strings"

// ProviderForModel maps a model name to the provider entry that serves it.
// Claude models go to anthropic, gemini models to gemini, and everything
// else to openai, which is also the shape of the relay wire contract.
func (c *Config) ProviderForModel(model string) string {
	switch {
	case strings.HasPrefix(model, "claude"):
		return "anthropic"
	case strings.HasPrefix(model, "gemini"):
		return "gemini"
	default:
		return "openai"
	}
}
