package cmd

import (
	"github.com/spf13/cobra"

	"github.com/evanmoss/chatstream/internal/relay"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the completion relay",
	Long: `Runs the relay that forwards chat requests to the configured LLM
providers. Clients authenticate with the serve token; provider API keys
never leave the relay.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Serve.Listen = serveListen
		}

		srv, err := relay.NewServer(cfg, newLogger())
		if err != nil {
			return err
		}
		return srv.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
