package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/calchat/calchat/internal/actions"
	"github.com/calchat/calchat/internal/instrumentation"
	"github.com/calchat/calchat/internal/logging"
	"github.com/calchat/calchat/internal/model"
	"github.com/calchat/calchat/internal/store"
)

// defaultMaxModelCalls bounds the number of model invocations within
// one turn. The loop has no natural termination guarantee (a model
// could request actions forever), so exceeding the cap ends the turn
// with a degraded answer.
const defaultMaxModelCalls = 10

// Canned replies for degraded situations.
const (
	fallbackReply = "I'm here to help with your calendar appointments!"
	runawayReply  = "Sorry, I couldn't complete that request. Could you try rephrasing it?"
)

// ConversationStore is the slice of the persistence layer the loop
// reads history from and appends turns to.
type ConversationStore interface {
	Messages(ctx context.Context, conversationID string) ([]store.Message, error)
	SaveMessage(ctx context.Context, userID, conversationID, role, content string) (*store.Message, error)
}

// Executor runs one action and returns its observation. Implemented by
// the booking adapter.
type Executor interface {
	Execute(ctx context.Context, userID string, kind actions.Kind, args map[string]any) string
}

// Config wires the loop's collaborators. Model, Store, Catalog, and
// Executor are required; the rest default sensibly.
type Config struct {
	Model         model.Client
	Store         ConversationStore
	Catalog       *actions.Catalog
	Executor      Executor
	Logger        *slog.Logger
	Metrics       *instrumentation.Metrics
	MaxModelCalls int
	Now           func() time.Time
}

// Loop is the conversational tool-calling orchestrator.
type Loop struct {
	model    model.Client
	store    ConversationStore
	catalog  *actions.Catalog
	executor Executor
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	maxCalls int
	now      func() time.Time

	mu    sync.Mutex
	convs map[string]*sync.Mutex
}

// New constructs a Loop from explicitly injected collaborators.
func New(cfg Config) (*Loop, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("new loop: model client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("new loop: conversation store is required")
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("new loop: action catalog is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("new loop: action executor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxCalls := cfg.MaxModelCalls
	if maxCalls <= 0 {
		maxCalls = defaultMaxModelCalls
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Loop{
		model:    cfg.Model,
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		executor: cfg.Executor,
		logger:   logger,
		metrics:  cfg.Metrics,
		maxCalls: maxCalls,
		now:      now,
		convs:    make(map[string]*sync.Mutex),
	}, nil
}

// ProcessMessage runs one full turn: persist the user message, drive
// the model/tool loop to completion, persist and return the final
// answer. It never returns an error to the caller; every internal
// failure becomes the assistant's reply.
func (l *Loop) ProcessMessage(ctx context.Context, userID, conversationID, text string) string {
	lock := l.conversationLock(conversationID)
	lock.Lock()
	defer lock.Unlock()

	started := l.now()
	logger := l.logger.With(
		logging.Conversation(conversationID),
		logging.UserHash(userID),
	)

	reply, status := l.runTurn(ctx, logger, userID, conversationID, text)
	l.metrics.RecordTurn(ctx, status, l.now().Sub(started))

	// Persist the assistant's reply, degraded or not. A failure here
	// still returns the reply to the caller.
	if _, err := l.store.SaveMessage(ctx, userID, conversationID, "assistant", reply); err != nil {
		logger.Error("failed to persist assistant reply", logging.Err(err))
	}
	return reply
}

// runTurn drives the state machine and returns the reply plus a metric
// status label.
func (l *Loop) runTurn(ctx context.Context, logger *slog.Logger, userID, conversationID, text string) (string, string) {
	history, err := l.loadHistory(ctx, conversationID)
	if err != nil {
		logger.Error("failed to load conversation history", logging.Err(err))
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), instrumentation.StatusError
	}

	history = append(history, model.Message{Role: model.RoleUser, Content: text})

	if _, err := l.store.SaveMessage(ctx, userID, conversationID, "user", text); err != nil {
		logger.Error("failed to persist user message", logging.Err(err))
		return fmt.Sprintf("Sorry, I encountered an error: %v", err), instrumentation.StatusError
	}

	system := l.systemPrompt(userID)

	for call := 0; call < l.maxCalls; call++ {
		completion, err := l.model.Complete(ctx, system, history, l.catalog.All())
		if err != nil {
			logger.Error("model invocation failed", logging.Err(err))
			return fmt.Sprintf("Sorry, I encountered an error: %v", err), instrumentation.StatusError
		}

		// Terminal state: a model turn with zero requested actions.
		if len(completion.Requests) == 0 {
			return finalReply(completion.Text), instrumentation.StatusSuccess
		}

		history = append(history, model.Message{
			Role:     model.RoleAssistant,
			Content:  completion.Text,
			Requests: completion.Requests,
		})

		// Execute all requests in emission order, no reordering, no
		// deduplication; one observation per request.
		for _, req := range completion.Requests {
			observation := l.execute(ctx, logger, userID, req)
			history = append(history, model.Message{
				Role:       model.RoleTool,
				ToolCallID: req.ID,
				Content:    observation,
			})
		}
	}

	logger.Warn("turn exceeded model call budget", slog.Int("max_calls", l.maxCalls))
	return runawayReply, instrumentation.StatusError
}

// execute resolves one action request and runs it. An unknown action
// name degrades into an observation instead of failing the turn.
func (l *Loop) execute(ctx context.Context, logger *slog.Logger, userID string, req model.ActionRequest) string {
	started := l.now()
	defer func() {
		l.metrics.RecordAction(ctx, req.Name, l.now().Sub(started))
	}()

	action, err := l.catalog.Lookup(req.Name)
	if err != nil {
		logger.Warn("model requested unknown action", logging.Action(req.Name))
		return fmt.Sprintf("Error: %v. Available actions: %s.", err, actionNames(l.catalog))
	}

	logger.Debug("executing action", logging.Action(action.Name))
	// The acting user is always the authenticated one; the model never
	// chooses whose calendar an action touches.
	return l.executor.Execute(ctx, userID, action.Kind, req.Args)
}

// loadHistory reconstructs the model history from the persisted
// conversation. Only user and assistant rows exist in the store;
// observations are never persisted.
func (l *Loop) loadHistory(ctx context.Context, conversationID string) ([]model.Message, error) {
	msgs, err := l.store.Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	history := make([]model.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		role := model.RoleAssistant
		if m.Role == "user" {
			role = model.RoleUser
		}
		history = append(history, model.Message{Role: role, Content: m.Content})
	}
	return history, nil
}

// systemPrompt builds the per-turn instruction block: the current
// wall-clock date and time so the model can resolve relative phrases,
// and the acting user's identity.
func (l *Loop) systemPrompt(userID string) string {
	now := l.now()
	return fmt.Sprintf(`You are a helpful AI assistant that manages calendar appointments.

IMPORTANT: Today is %s and the current time is %s.
Use this when interpreting relative dates like "tomorrow", "next week", or "today".

You can help users with:
- Booking new appointments
- Viewing existing appointments
- Cancelling appointments
- Checking availability

When users want to book an appointment, ask for the necessary details:
title, start and end time, and an optional description. Always convert
times to ISO format (YYYY-MM-DDTHH:MM:SS) for the tools.

Always use the available tools to interact with the calendar.
Be conversational and helpful in your responses.

Current user ID: %s`,
		now.Format("Monday, January 2, 2006"),
		now.Format("3:04 PM"),
		userID,
	)
}

// conversationLock returns the mutex serializing turns for one
// conversation.
func (l *Loop) conversationLock(conversationID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.convs[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		l.convs[conversationID] = lock
	}
	return lock
}

// finalReply cleans up the model's terminal text, substituting a
// canned reply when the model produced nothing usable.
func finalReply(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackReply
	}
	return text
}

func actionNames(catalog *actions.Catalog) string {
	all := catalog.All()
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
