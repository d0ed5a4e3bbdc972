package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/logging"
	"github.com/calchat/calchat/internal/server"
)

func newServeCmd() *cobra.Command {
	opts := appOptions{}
	var (
		addr       string
		authTokens []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calchat HTTP API server",
		Long: `Run the calchat HTTP API server.

The model API key is read from GROQ_API_KEY (or OPENAI_API_KEY).
Google OAuth credentials come from GOOGLE_CLIENT_ID,
GOOGLE_CLIENT_SECRET, and GOOGLE_REDIRECT_URL.

Auth tokens map bearer tokens to user ids, e.g.:

  calchat serve --auth-token s3cret=2f1e...-user-id`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Configure(os.Stderr, opts.logFormat, opts.logLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			provider, err := instrumentation.NewProvider(ctx, "calchat", version)
			if err != nil {
				return err
			}
			defer func() {
				if err := provider.Shutdown(ctx); err != nil {
					logger.Error("metrics shutdown failed", logging.Err(err))
				}
			}()

			application, err := buildApp(opts, provider.Metrics(), logger)
			if err != nil {
				return err
			}

			tokens, err := parseAuthTokens(authTokens)
			if err != nil {
				return err
			}

			srv, err := server.New(server.Options{
				Loop:   application.loop,
				Store:  application.store,
				Auth:   server.NewStaticAuthenticator(tokens),
				OAuth:  application.oauth,
				Logger: logger,
				Addr:   addr,
			})
			if err != nil {
				return err
			}

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8000", "Address to listen on")
	cmd.Flags().StringVar(&opts.dbPath, "db", "calchat.db", "Path to the SQLite database")
	cmd.Flags().StringVar(&opts.modelName, "model", "llama-3.3-70b-versatile", "Model name for the chat-completions endpoint")
	cmd.Flags().StringVar(&opts.modelBaseURL, "model-base-url", "", "Base URL of the OpenAI-compatible endpoint (default: Groq)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().StringArrayVar(&authTokens, "auth-token", nil, "Bearer token mapping in token=user-id form (repeatable)")

	return cmd
}

// parseAuthTokens turns token=user-id pairs into a lookup map.
func parseAuthTokens(pairs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		token, userID, ok := strings.Cut(pair, "=")
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("invalid --auth-token %q, expected token=user-id", pair)
		}
		tokens[token] = userID
	}
	return tokens, nil
}
