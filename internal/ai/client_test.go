package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/linerelay/internal/config"
	"github.com/edgard/linerelay/internal/relayerr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAIConfig(provider, baseURL string) config.AIConfig {
	return config.AIConfig{
		Provider:    provider,
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   150,
		Instruction: "be brief",
		Timeout:     5 * time.Second,
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), testAIConfig("llama", ""), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown AI provider")
}

func TestOpenAIComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  こんにちは！ "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testAIConfig(ProviderOpenAI, server.URL+"/v1"), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.Provider())

	reply, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "こんにちは！", reply)

	assert.Equal(t, "test-model", got["model"])
	assert.EqualValues(t, 150, got["max_tokens"])
	assert.InDelta(t, 0.7, got["temperature"], 0.0001)

	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	user := messages[1].(map[string]any)
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, "be brief", system["content"])
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "hello", user["content"])
}

func TestOpenAICompleteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "api error",
			status: http.StatusTooManyRequests,
			body:   `{"error": {"message": "rate limited", "type": "requests", "code": "rate_limit_exceeded"}}`,
		},
		{
			name:   "no choices",
			status: http.StatusOK,
			body:   `{"id": "x", "choices": []}`,
		},
		{
			name:   "empty content",
			status: http.StatusOK,
			body:   `{"id": "x", "choices": [{"index": 0, "message": {"role": "assistant", "content": "   "}, "finish_reason": "length"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client, err := NewClient(context.Background(), testAIConfig(ProviderOpenAI, server.URL), discardLogger())
			require.NoError(t, err)

			reply, err := client.Complete(context.Background(), "hello")
			require.Error(t, err)
			assert.Empty(t, reply)
			assert.ErrorIs(t, err, relayerr.ErrUpstream)
			assert.Equal(t, "openai.chat_completion", relayerr.Op(err))
		})
	}
}

func TestGeminiComplete(t *testing.T) {
	t.Parallel()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent"), r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "やあ"}]}, "finishReason": "STOP"}]
		}`)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testAIConfig(ProviderGemini, server.URL), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, client.Provider())

	reply, err := client.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "やあ", reply)

	genCfg, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 150, genCfg["maxOutputTokens"])
	assert.Contains(t, got, "systemInstruction")
}

func TestGeminiCompleteEmptyCandidates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": []}`)
	}))
	defer server.Close()

	client, err := NewClient(context.Background(), testAIConfig(ProviderGemini, server.URL), discardLogger())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, relayerr.ErrUpstream)
}

func TestCompletionBreakerFailsFast(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
	}))
	defer server.Close()

	cfg := testAIConfig(ProviderOpenAI, server.URL)
	cfg.Breaker = config.BreakerConfig{MaxFailures: 2, OpenTimeout: time.Hour}
	client, err := NewClient(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.Provider())

	for range 2 {
		_, err := client.Complete(context.Background(), "hello")
		assert.Equal(t, "openai.chat_completion", relayerr.Op(err))
	}

	_, err = client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, relayerr.ErrUpstream)
	assert.Equal(t, "openai.circuit", relayerr.Op(err))
	assert.EqualValues(t, 2, hits.Load())
}
