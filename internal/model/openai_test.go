package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calchat/calchat/internal/actions"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClient(Config{
		APIKey:      "test-key",
		Model:       "test-model",
		BaseURL:     srv.URL,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	return client
}

func completionBody(t *testing.T, msg map[string]any) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": msg}},
	})
	require.NoError(t, err)
	return body
}

func TestNewOpenAIClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{APIKey: "k", Model: "m"}},
		{name: "missing api key", cfg: Config{Model: "m"}, wantErr: true},
		{name: "missing model", cfg: Config{APIKey: "k"}, wantErr: true},
		{name: "blank api key", cfg: Config{APIKey: "  ", Model: "m"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOpenAIClient(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestComplete_RequestShape(t *testing.T) {
	var captured chatCompletionRequest
	var auth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write(completionBody(t, map[string]any{"role": "assistant", "content": "hi"}))
	})

	history := []Message{{Role: RoleUser, Content: "hello"}}
	_, err := client.Complete(context.Background(), "you are helpful", history, actions.NewCatalog().All())
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "test-model", captured.Model)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-9)

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "you are helpful", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)

	require.Len(t, captured.Tools, 4)
	book := captured.Tools[0]
	assert.Equal(t, "function", book.Type)
	assert.Equal(t, actions.NameBook, book.Function.Name)
	assert.Equal(t, "object", book.Function.Parameters["type"])

	required, ok := book.Function.Parameters["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"title", "start_time", "end_time"}, required)
}

func TestComplete_TextAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, map[string]any{"role": "assistant", "content": "You are free at 10."}))
	})

	completion, err := client.Complete(context.Background(), "sys", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "You are free at 10.", completion.Text)
	assert.Empty(t, completion.Requests)
}

func TestComplete_ToolCalls(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{
				{
					"id":   "call-1",
					"type": "function",
					"function": map[string]any{
						"name":      actions.NameBook,
						"arguments": `{"title":"Dentist","start_time":"2024-01-15T10:00:00","end_time":"2024-01-15T11:00:00"}`,
					},
				},
				{
					"id":   "call-2",
					"type": "function",
					"function": map[string]any{
						"name":      actions.NameList,
						"arguments": "",
					},
				},
			},
		}))
	})

	completion, err := client.Complete(context.Background(), "sys", nil, nil)
	require.NoError(t, err)
	require.Len(t, completion.Requests, 2)

	first := completion.Requests[0]
	assert.Equal(t, "call-1", first.ID)
	assert.Equal(t, actions.NameBook, first.Name)
	assert.Equal(t, "Dentist", first.Args["title"])

	second := completion.Requests[1]
	assert.Equal(t, "call-2", second.ID)
	assert.Empty(t, second.Args)
}

func TestComplete_MalformedArguments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionBody(t, map[string]any{
			"role": "assistant",
			"tool_calls": []map[string]any{
				{
					"id":       "call-1",
					"type":     "function",
					"function": map[string]any{"name": actions.NameBook, "arguments": "{not json"},
				},
			},
		}))
	})

	_, err := client.Complete(context.Background(), "sys", nil, nil)
	assert.Error(t, err)
}

func TestComplete_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := client.Complete(context.Background(), "sys", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "sys", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestBuildMessages_ToolHistory(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "book it"},
		{Role: RoleAssistant, Requests: []ActionRequest{
			{ID: "call-1", Name: actions.NameBook, Args: map[string]any{"title": "Dentist"}},
		}},
		{Role: RoleTool, ToolCallID: "call-1", Content: "Appointment booked."},
	}

	msgs := buildMessages("sys", history)
	require.Len(t, msgs, 4)

	assistant := msgs[2]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call-1", assistant.ToolCalls[0].ID)
	assert.Equal(t, "function", assistant.ToolCalls[0].Type)
	assert.JSONEq(t, `{"title":"Dentist"}`, assistant.ToolCalls[0].Function.Arguments)

	tool := msgs[3]
	assert.Equal(t, "tool", tool.Role)
	assert.Equal(t, "call-1", tool.ToolCallID)
	assert.Equal(t, "Appointment booked.", tool.Content)
}

func TestBuildTools_OptionalOnlyParams(t *testing.T) {
	catalog := actions.NewCatalog()
	list, err := catalog.Lookup(actions.NameList)
	require.NoError(t, err)

	tools := buildTools([]actions.Action{list})
	require.Len(t, tools, 1)
	_, hasRequired := tools[0].Function.Parameters["required"]
	assert.False(t, hasRequired, "all-optional schema must omit the required array")
}
