package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evanmoss/chatstream/internal/auth"
	"github.com/evanmoss/chatstream/internal/chat"
	"github.com/evanmoss/chatstream/internal/client"
	"github.com/evanmoss/chatstream/internal/engine"
	"github.com/evanmoss/chatstream/internal/store"
)

var (
	chatModel    string
	chatResume   string
	chatNoStream bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or resume a conversation",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "Model to use for a new conversation")
	chatCmd.Flags().StringVar(&chatResume, "resume", "", "Conversation id to resume")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Request whole completions instead of streaming")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	provider := auth.NewStatic(cfg.User.ID, cfg.User.Email)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	user, err := provider.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("no user configured (set user.id in the config file): %w", err)
	}

	var conv *chat.Conversation
	if chatResume != "" {
		conv, err = st.GetConversation(ctx, chatResume)
		if err != nil {
			return err
		}
		if conv == nil {
			return fmt.Errorf("conversation not found: %s", chatResume)
		}
	} else {
		model := chatModel
		if model == "" {
			model = cfg.DefaultModel
		}
		conv, err = st.CreateConversation(ctx, model, user.ID)
		if err != nil {
			return err
		}
		fmt.Printf("conversation %s (%s)\n", conv.ID, conv.Model)
	}

	opts := []engine.Option{engine.WithLogger(log)}
	if chatNoStream {
		opts = append(opts, engine.WithoutStreaming())
	}
	eng := engine.New(st, client.New(cfg.Relay.URL, cfg.Relay.Token), provider, opts...)

	state := chat.NewStateStore()
	if msgs, err := st.Messages(ctx, conv.ID); err == nil {
		state.Dispatch(chat.SetCurrentConversation{Conversation: conv, Messages: msgs})
		for _, m := range msgs {
			printMessage(m)
		}
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return nil
		}

		state.Dispatch(chat.SetLoading{Loading: true})
		history := state.Snapshot().Messages

		var printed int
		turn, err := eng.SendTurn(ctx, conv, history, input, func(id, content string) {
			state.ApplyStreamUpdate(conv.ID, id, content)
			fmt.Print(content[printed:])
			printed = len(content)
		})
		state.Dispatch(chat.SetLoading{Loading: false})
		if err != nil {
			state.Dispatch(chat.SetError{Err: err.Error()})
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		state.Dispatch(chat.SetError{})
		// The stream left the assistant row in state without its user turn;
		// settle on the persisted pair in order.
		msgs := make([]chat.Message, 0, len(history)+2)
		msgs = append(msgs, history...)
		msgs = append(msgs, *turn.UserMessage, *turn.AssistantMessage)
		state.Dispatch(chat.SetMessages{Messages: msgs})
		fmt.Println()
	}
}

func printMessage(m chat.Message) {
	fmt.Printf("[%s] %s\n", m.Role, m.Content)
}
