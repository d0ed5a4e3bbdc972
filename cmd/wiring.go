package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/calchat/calchat/internal/actions"
	"github.com/calchat/calchat/internal/agent"
	"github.com/calchat/calchat/internal/booking"
	"github.com/calchat/calchat/internal/google"
	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/model"
	"github.com/calchat/calchat/internal/store"
)

// appOptions carries the flag values shared by the serve and chat
// commands.
type appOptions struct {
	dbPath       string
	modelName    string
	modelBaseURL string
	logLevel     string
	logFormat    string
}

// app bundles the constructed application components.
type app struct {
	store  *store.Store
	loop   *agent.Loop
	oauth  *google.OAuth
	logger *slog.Logger
}

// buildApp constructs the dependency graph: store, Google connector,
// booking adapter, model client, and agent loop. Metrics may be nil.
func buildApp(opts appOptions, metrics *instrumentation.Metrics, logger *slog.Logger) (*app, error) {
	st, err := store.Open(opts.dbPath)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	modelClient, err := model.NewOpenAIClient(model.Config{
		APIKey:      apiKey,
		Model:       opts.modelName,
		BaseURL:     opts.modelBaseURL,
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("set GROQ_API_KEY or OPENAI_API_KEY: %w", err)
	}

	oauth := google.NewOAuth("", "", "")
	connector := google.NewConnector(oauth, st)
	connect := func(ctx context.Context, userID string) (booking.ExternalCalendar, error) {
		return connector.ClientFor(ctx, userID)
	}

	adapter := booking.NewAdapter(st, connect, logger)
	catalog := actions.NewCatalog()

	loop, err := agent.New(agent.Config{
		Model:    modelClient,
		Store:    st,
		Catalog:  catalog,
		Executor: adapter,
		Logger:   logger,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		store:  st,
		loop:   loop,
		oauth:  oauth,
		logger: logger,
	}, nil
}
