package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-assistant/internal/config"
)

func chatServer(t *testing.T, reply string, choices bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []any{},
			"usage":   map[string]int{"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5},
		}
		if choices {
			resp["choices"] = []any{map[string]any{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIGenerate(t *testing.T) {
	srv := chatServer(t, "Привет!", true)
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "test-model")
	resp, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Привет!", resp.Content)
	assert.Equal(t, "test-model", resp.Model)
	assert.Equal(t, 5, resp.TotalTokens)
}

func TestOpenAIGenerateNoChoices(t *testing.T) {
	srv := chatServer(t, "", false)
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "test-model")
	_, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewByProvider(t *testing.T) {
	c, err := New(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = New(&config.Config{LLMProvider: config.ProviderOpenAI})
	require.Error(t, err)

	c, err = New(&config.Config{LLMProvider: config.ProviderOpenAI, OpenAIAPIKey: "k", OpenAIModel: "m"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = New(&config.Config{LLMProvider: "claude"})
	require.Error(t, err)
}
