package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Path string
	Body map[string]any
}

func chatServer(t *testing.T, response string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.Body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
}

func chatCompletion(content, finishReason string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finishReason,
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(b)
}

var conversation = []Message{
	{Role: RoleSystem, Content: "You edit HTML."},
	{Role: RoleUser, Content: "Make it blue."},
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, chatCompletion("EXPLANATION: ok\nHTML: <p/>", "stop"), &req)
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "gpt-test", srv.URL+"/v1", 0.2)
	text, err := p.Complete(context.Background(), conversation)

	require.NoError(t, err)
	assert.Equal(t, "EXPLANATION: ok\nHTML: <p/>", text)
	assert.Equal(t, "/v1/chat/completions", req.Path)
	assert.Equal(t, "gpt-test", req.Body["model"])

	msgs, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIProvider_ContentFilter(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, chatCompletion("", "content_filter"), &req)
	defer srv.Close()

	_, err := NewOpenAIProvider("sk-test", "", srv.URL+"/v1", 0).Complete(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrContentFiltered)
}

func TestOpenAIProvider_EmptyContent(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, chatCompletion("", "stop"), &req)
	defer srv.Close()

	_, err := NewOpenAIProvider("sk-test", "", srv.URL+"/v1", 0).Complete(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompatibleProvider_Complete(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, chatCompletion("hello", "stop"), &req)
	defer srv.Close()

	p := NewCompatibleProvider(srv.URL+"/v1/", "key", "gemini-test", 0.5)
	text, err := p.Complete(context.Background(), conversation)

	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "/v1/chat/completions", req.Path)
	assert.Equal(t, "gemini-test", req.Body["model"])
	assert.InDelta(t, 0.5, req.Body["temperature"], 1e-9)
}

func TestAnthropicProvider_Complete(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [{"type": "text", "text": "EXPLANATION: "}, {"type": "text", "text": "done"}],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 12, "output_tokens": 3}
	}`, &req)
	defer srv.Close()

	p := NewAnthropicProvider("sk-ant", "claude-test", 0.2, option.WithBaseURL(srv.URL))
	text, err := p.Complete(context.Background(), conversation)

	require.NoError(t, err)
	assert.Equal(t, "EXPLANATION: done", text)
	assert.Equal(t, "/v1/messages", req.Path)

	system, ok := req.Body["system"].([]any)
	require.True(t, ok, "system prompt is sent separately")
	assert.Equal(t, "You edit HTML.", system[0].(map[string]any)["text"])

	msgs, ok := req.Body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 1)
}

func TestAnthropicProvider_Refusal(t *testing.T) {
	var req capturedRequest
	srv := chatServer(t, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [], "stop_reason": "refusal", "stop_sequence": null,
		"usage": {"input_tokens": 1, "output_tokens": 0}
	}`, &req)
	defer srv.Close()

	_, err := NewAnthropicProvider("sk-ant", "", 0, option.WithBaseURL(srv.URL)).Complete(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrContentFiltered)
}
