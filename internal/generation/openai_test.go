package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIComplete(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"ok\":true}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer server.Close()

	model, err := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	text, err := model.Complete(context.Background(), "write a contract", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, DefaultOpenAIModel, captured["model"])
	assert.EqualValues(t, 4000, captured["max_tokens"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "write a contract", messages[0].(map[string]any)["content"])
}

func TestOpenAIClassifiesErrors(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusTooManyRequests)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	model, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = model.Complete(context.Background(), "p", DefaultOptions())
	assert.True(t, IsTransient(err), "expected transient, got %v", err)

	status.Store(http.StatusBadRequest)
	_, err = model.Complete(context.Background(), "p", DefaultOptions())
	assert.True(t, IsFatal(err), "expected fatal, got %v", err)
}
