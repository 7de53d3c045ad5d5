package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mikey/llm-mail-labeler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, handler func(req map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(raw, &req))

		status, body := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var seenModel string
	var seenMessages []any
	srv := newTestServer(t, func(req map[string]any) (int, string) {
		seenModel, _ = req["model"].(string)
		seenMessages, _ = req["messages"].([]any)
		return http.StatusOK, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "{\"labelId\":\"FYI\"}"}, "finish_reason": "stop"}
			],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`
	})
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL+"/v1/", "gpt-4o-mini", 100, 0.1, 0.9, zap.NewNop())
	out, err := client.Complete(context.Background(), "classify this")
	require.NoError(t, err)

	assert.Equal(t, `{"labelId":"FYI"}`, out)
	assert.Equal(t, "gpt-4o-mini", seenModel)
	require.Len(t, seenMessages, 2)
	user, _ := seenMessages[1].(map[string]any)
	assert.Equal(t, "classify this", user["content"])
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := newTestServer(t, func(map[string]any) (int, string) {
		return http.StatusOK, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`
	})
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-4o-mini", 100, 0.1, 0.9, zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorContains(t, err, "empty response")
}

func TestCompleteServerError(t *testing.T) {
	srv := newTestServer(t, func(map[string]any) (int, string) {
		return http.StatusInternalServerError, `{"error": {"message": "boom", "type": "server_error"}}`
	})
	defer srv.Close()

	client := NewOpenAIClient("test-key", srv.URL+"/v1", "gpt-4o-mini", 100, 0.1, 0.9, zap.NewNop())
	_, err := client.Complete(context.Background(), "prompt")
	assert.ErrorContains(t, err, "failed to create chat completion")
}

func TestNewFromConfigRequiresKeyOrBaseURL(t *testing.T) {
	v := config.NewEmptyViper()
	_, err := NewFromConfig(config.NewFromViper(v).GetOpenAI(), zap.NewNop())
	assert.Error(t, err)

	v.Set("openai.base_url", "http://localhost:11434/v1")
	client, err := NewFromConfig(config.NewFromViper(v).GetOpenAI(), zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, client)
}
