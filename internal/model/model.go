package model

import (
	"context"

	"github.com/calchat/calchat/internal/actions"
)

// Message roles within a turn's history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ActionRequest is one action the model asked to execute, tagged with
// the correlation id used to match it to its eventual observation.
type ActionRequest struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one entry of the history sent to the model. Assistant
// messages may carry Requests; tool messages carry the observation for
// the request identified by ToolCallID.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	Requests   []ActionRequest
}

// Completion is the model's answer for one invocation: either plain
// text (zero requests, the turn is done) or one or more requested
// actions.
type Completion struct {
	Text     string
	Requests []ActionRequest
}

// Client performs one model invocation. The available actions are
// passed on every call so the model sees the current catalog.
type Client interface {
	Complete(ctx context.Context, system string, history []Message, available []actions.Action) (*Completion, error)
}
