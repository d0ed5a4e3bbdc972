package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calchat/calchat/internal/logging"
)

func newChatCmd() *cobra.Command {
	opts := appOptions{}
	var (
		userID         string
		conversationID string
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send one chat message and print the assistant's reply",
		Long: `Send a single message through the agent loop and print the reply.

When --conversation is omitted a new conversation is started and its
id printed, so follow-up messages can continue it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Configure(cmd.ErrOrStderr(), opts.logFormat, opts.logLevel)

			application, err := buildApp(opts, nil, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if conversationID == "" {
				conv, err := application.store.CreateConversation(ctx, userID, "CLI Chat")
				if err != nil {
					return err
				}
				conversationID = conv.ID
				fmt.Fprintf(cmd.OutOrStdout(), "conversation: %s\n", conversationID)
			}

			reply := application.loop.ProcessMessage(ctx, userID, conversationID, strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Acting user id")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation id to continue")
	cmd.Flags().StringVar(&opts.dbPath, "db", "calchat.db", "Path to the SQLite database")
	cmd.Flags().StringVar(&opts.modelName, "model", "llama-3.3-70b-versatile", "Model name for the chat-completions endpoint")
	cmd.Flags().StringVar(&opts.modelBaseURL, "model-base-url", "", "Base URL of the OpenAI-compatible endpoint (default: Groq)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
