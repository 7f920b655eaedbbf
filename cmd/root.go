package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evanmoss/chatstream/internal/config"
	"github.com/evanmoss/chatstream/internal/logging"
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "chatstream",
	Short: "Streaming chat client and relay",
	Long: `chatstream is a chat client that streams completions through a relay
and keeps every conversation in a local database.

Examples:
  chatstream serve                     # run the relay
  chatstream chat                      # start a new conversation
  chatstream chat --model claude-sonnet-4-5
  chatstream conversations             # list conversations
  chatstream conversations show <id>   # replay one conversation`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

var verbose bool

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger() logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.New(os.Stderr, level)
}
