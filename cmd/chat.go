package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/agent"
	"github.com/meridian-wealth/renewal-cli/internal/llm"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the renewal assistant",
	Long:  "Screen-aware assistant for advisors. Replies are grounded in the current screen context and never invent products. Every turn is audited.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		message, _ := cmd.Flags().GetString("message")
		screen, _ := cmd.Flags().GetString("screen")
		clientID, _ := cmd.Flags().GetString("client-id")
		location, _ := cmd.Flags().GetString("location")
		interactive, _ := cmd.Flags().GetBool("interactive")

		if message == "" && !interactive {
			return eris.New("--message is required unless --interactive is set")
		}
		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic key not configured")
		}

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		chatter := agent.NewChatter(llm.NewAnthropic(cfg.Anthropic), e.recorder)
		state := agent.ParseScreenState(screen)

		if !interactive {
			resp, err := chatter.Chat(ctx, agent.ChatRequest{
				Screen:   state,
				Message:  message,
				ClientID: clientID,
				Location: location,
			})
			if err != nil {
				return eris.Wrap(err, "chat")
			}
			fmt.Println(resp.Reply)
			return nil
		}

		var history []agent.ConversationTurn
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Fprintln(os.Stderr, "Renewal assistant. Type 'exit' to quit.")
		for {
			fmt.Fprint(os.Stderr, "> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			resp, err := chatter.Chat(ctx, agent.ChatRequest{
				Screen:   state,
				Message:  line,
				ClientID: clientID,
				Location: location,
				History:  history,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Println(resp.Reply)
			history = append(history,
				agent.ConversationTurn{Role: "user", Content: line},
				agent.ConversationTurn{Role: "assistant", Content: resp.Reply},
			)
		}
	},
}

func init() {
	chatCmd.Flags().String("message", "", "single message to send")
	chatCmd.Flags().String("screen", "dashboard", "screen the advisor is on (dashboard, product_comparison, elsewhere)")
	chatCmd.Flags().String("client-id", "", "client context for the conversation")
	chatCmd.Flags().String("location", "", "advisor location context")
	chatCmd.Flags().Bool("interactive", false, "start an interactive session on stdin")
	rootCmd.AddCommand(chatCmd)
}
