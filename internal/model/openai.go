package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/calchat/calchat/internal/actions"
)

const (
	defaultBaseURL  = "https://api.groq.com/openai/v1"
	defaultEndpoint = "/chat/completions"
	defaultTimeout  = 60 * time.Second
)

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // defaults to the Groq endpoint
	Temperature float64
	HTTPClient  *http.Client
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint
// with function calling.
type OpenAIClient struct {
	apiKey      string
	model       string
	endpointURL string
	temperature float64
	httpClient  *http.Client
}

var _ Client = (*OpenAIClient)(nil)

// NewOpenAIClient validates the configuration and builds a client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new model client: api key is required")
	}

	name := strings.TrimSpace(cfg.Model)
	if name == "" {
		return nil, fmt.Errorf("new model client: model is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &OpenAIClient{
		apiKey:      apiKey,
		model:       name,
		endpointURL: strings.TrimRight(baseURL, "/") + defaultEndpoint,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}, nil
}

// Complete performs one chat-completions call and decodes the answer
// into either final text or a list of action requests.
func (c *OpenAIClient) Complete(ctx context.Context, system string, history []Message, available []actions.Action) (*Completion, error) {
	payload := chatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    buildMessages(system, history),
		Tools:       buildTools(available),
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("model request encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("model request build: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request execute: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("model response read: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("model response status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("model response decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("model response decode: no choices")
	}

	return toCompletion(parsed.Choices[0].Message)
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Tools       []chatTool    `json:"tools,omitempty"`
}

type chatCompletionResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string           `json:"type"`
	Function chatToolFunction `json:"function"`
}

type chatToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function chatToolCallFunction `json:"function"`
}

type chatToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

func buildMessages(system string, history []Message) []chatMessage {
	out := make([]chatMessage, 0, len(history)+1)
	if system != "" {
		out = append(out, chatMessage{Role: "system", Content: system})
	}

	for _, m := range history {
		cm := chatMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, req := range m.Requests {
			arguments := "{}"
			if len(req.Args) > 0 {
				if encoded, err := json.Marshal(req.Args); err == nil {
					arguments = string(encoded)
				}
			}
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:   req.ID,
				Type: "function",
				Function: chatToolCallFunction{
					Name:      req.Name,
					Arguments: arguments,
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

// buildTools renders the action catalog as JSON-schema function
// declarations.
func buildTools(available []actions.Action) []chatTool {
	tools := make([]chatTool, 0, len(available))
	for _, a := range available {
		properties := make(map[string]any, len(a.Params))
		var required []string
		for _, p := range a.Params {
			properties[p.Name] = map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}

		parameters := map[string]any{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			parameters["required"] = required
		}

		tools = append(tools, chatTool{
			Type: "function",
			Function: chatToolFunction{
				Name:        a.Name,
				Description: a.Description,
				Parameters:  parameters,
			},
		})
	}
	return tools
}

func toCompletion(msg chatMessage) (*Completion, error) {
	if msg.Role != "assistant" {
		return nil, fmt.Errorf("expected assistant message role, got %q", msg.Role)
	}

	completion := &Completion{Text: msg.Content}
	for _, call := range msg.ToolCalls {
		args := map[string]any{}
		if strings.TrimSpace(call.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("decode tool call arguments for %q: %w", call.Function.Name, err)
			}
		}
		completion.Requests = append(completion.Requests, ActionRequest{
			ID:   call.ID,
			Name: call.Function.Name,
			Args: args,
		})
	}
	return completion, nil
}
