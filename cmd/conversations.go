package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evanmoss/chatstream/internal/store"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "List conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		convs, err := st.Conversations(cmd.Context())
		if err != nil {
			return err
		}
		if len(convs) == 0 {
			fmt.Println("no conversations")
			return nil
		}
		for _, c := range convs {
			title := "(untitled)"
			if c.Title != nil {
				title = *c.Title
			}
			fmt.Printf("%s  %-24s %s  %s\n", c.ID, c.Model, c.UpdatedAt.Format("2006-01-02 15:04"), title)
		}
		return nil
	},
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a conversation's messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		conv, err := st.GetConversation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("conversation not found: %s", args[0])
		}

		msgs, err := st.Messages(cmd.Context(), conv.ID)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			printMessage(m)
		}
		return nil
	},
}

func init() {
	conversationsCmd.AddCommand(conversationsShowCmd)
	rootCmd.AddCommand(conversationsCmd)
}
