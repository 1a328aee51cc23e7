package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/chatpro/internal/adapters/llm"
	"github.com/PabloGalante/chatpro/internal/domain"
)

type capturedChatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

func TestOpenAIClientSendsHistoryAndReturnsReply(t *testing.T) {
	var got capturedChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1714557600,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Hi there!\n"}}],
			"usage": {"prompt_tokens": 3, "completion_tokens": 2, "total_tokens": 5}
		}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("sk-test", srv.URL+"/", "", "Be kind.", 0)
	reply, err := client.GenerateReply(context.Background(), domain.ConversationContext{
		SessionID: "1",
		History: []domain.Turn{
			domain.UserTurn("Hello"),
			domain.AssistantTurn("Hi"),
			domain.UserTurn("How are you?"),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "  Hi there!\n", reply, "reply text is returned as sent")

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 4)
	roles := []string{got.Messages[0].Role, got.Messages[1].Role, got.Messages[2].Role, got.Messages[3].Role}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestOpenAIClientSurfacesAPIError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("sk-test", srv.URL+"/", "gpt-4o-mini", "", 0)
	_, err := client.GenerateReply(context.Background(), domain.ConversationContext{
		History: []domain.Turn{domain.UserTurn("Hello")},
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "no SDK retries expected")
}

func TestOpenAIClientRejectsEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	}))
	defer srv.Close()

	client := llm.NewOpenAIClient("sk-test", srv.URL+"/", "", "", 0)
	_, err := client.GenerateReply(context.Background(), domain.ConversationContext{
		History: []domain.Turn{domain.UserTurn("Hello")},
	})
	assert.Error(t, err)
}
