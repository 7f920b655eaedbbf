package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("CHATSTREAM_TEST_KEY", "sk-123")

	tests := []struct {
		in   string
		want string
	}{
		{"${CHATSTREAM_TEST_KEY}", "sk-123"},
		{"$CHATSTREAM_TEST_KEY", "sk-123"},
		{"sk-literal", "sk-literal"},
		{"", ""},
		{"${CHATSTREAM_UNSET_KEY}", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := expandEnv(tc.in); got != tc.want {
				t.Fatalf("expandEnv(%q)=%q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestProviderForModel(t *testing.T) {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"openai":    {Model: "gpt-4o-mini"},
			"anthropic": {Model: "claude-sonnet-4-5"},
			"gemini":    {Model: "gemini-2.5-flash"},
		},
	}

	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o-mini", "openai"},
		{"o3-mini", "openai"},
		{"claude-sonnet-4-5", "anthropic"},
		{"gemini-2.5-flash", "gemini"},
		{"unknown-model", "openai"},
	}

	for _, tc := range tests {
		t.Run(tc.model, func(t *testing.T) {
			if got := cfg.ProviderForModel(tc.model); got != tc.want {
				t.Fatalf("provider=%q, want %q", got, tc.want)
			}
		})
	}
}
