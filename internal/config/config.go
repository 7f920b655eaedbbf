package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DefaultModel string                    `mapstructure:"default_model"`
	Relay        RelayConfig               `mapstructure:"relay"`
	Serve        ServeConfig               `mapstructure:"serve"`
	Store        StoreConfig               `mapstructure:"store"`
	User         UserConfig                `mapstructure:"user"`
	Providers    map[string]ProviderConfig `mapstructure:"providers"`
}

// RelayConfig points the client at the relay endpoint.
type RelayConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// ServeConfig configures the relay server.
type ServeConfig struct {
	Listen  string `mapstructure:"listen"`
	Token   string `mapstructure:"token"`
	Aliases string `mapstructure:"aliases"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type UserConfig struct {
	ID    string `mapstructure:"id"`
	Email string `mapstructure:"email"`
}

type ProviderConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// envKeys maps provider names to the environment variable consulted when the
// config file carries no key.
var envKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	configPath := filepath.Join(configDir, "chatstream")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	// Set defaults
	v.SetDefault("default_model", "gpt-4o-mini")
	v.SetDefault("relay.url", "http://localhost:8484")
	v.SetDefault("serve.listen", ":8484")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("providers.gemini.model", "gemini-2.5-flash")

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}

	// Expand ${VAR} references and fall back to environment variables when
	// API keys are not set in the file.
	for name, p := range cfg.Providers {
		p.APIKey = expandEnv(p.APIKey)
		if p.APIKey == "" {
			if env, ok := envKeys[name]; ok {
				p.APIKey = os.Getenv(env)
			}
		}
		cfg.Providers[name] = p
	}
	cfg.Relay.Token = expandEnv(cfg.Relay.Token)
	if cfg.Relay.Token == "" {
		cfg.Relay.Token = os.Getenv("CHATSTREAM_TOKEN")
	}
	cfg.Serve.Token = expandEnv(cfg.Serve.Token)

	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(configPath, "chatstream.db")
	}

	return &cfg, nil
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chatstream", "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
