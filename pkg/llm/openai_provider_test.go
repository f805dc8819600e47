package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatServer returns a server that answers every chat completion with the given message payload
func newChatServer(t *testing.T, message map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		resp := map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"choices": []map[string]interface{}{
				{"index": 0, "message": message, "finish_reason": "stop"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestConverseReturnsText(t *testing.T) {
	server := newChatServer(t, map[string]interface{}{
		"role":    "assistant",
		"content": "We are open until ten.",
	})
	defer server.Close()

	provider := NewOpenAIProvider("test-key", server.URL, "")
	reply, err := provider.Converse(context.Background(),
		[]Message{{Role: RoleUser, Content: "how late are you open?"}},
		ConversationContext{BusinessName: "Bella Vista", CurrentDate: "2025-06-01"},
		nil,
	)
	require.NoError(t, err)
	assert.Nil(t, reply.Action)
	assert.Equal(t, "We are open until ten.", reply.Text)
}

func TestConverseFirstToolCallWins(t *testing.T) {
	server := newChatServer(t, map[string]interface{}{
		"role":    "assistant",
		"content": "",
		"tool_calls": []map[string]interface{}{
			{
				"id":   "call_1",
				"type": "function",
				"function": map[string]interface{}{
					"name":      "check_availability",
					"arguments": `{"date":"2025-06-01","time":"19:00","partySize":4}`,
				},
			},
			{
				"id":   "call_2",
				"type": "function",
				"function": map[string]interface{}{
					"name":      "end_call",
					"arguments": `{"reason":"done"}`,
				},
			},
		},
	})
	defer server.Close()

	provider := NewOpenAIProvider("test-key", server.URL, "")
	reply, err := provider.Converse(context.Background(), nil, ConversationContext{}, nil)
	require.NoError(t, err)
	require.NotNil(t, reply.Action)
	assert.Equal(t, "check_availability", reply.Action.Name)
	assert.Contains(t, string(reply.Action.Arguments), "2025-06-01")
}

func TestBuildMessagesReplaysActionResults(t *testing.T) {
	provider := NewOpenAIProvider("test-key", "", "")

	messages := provider.buildMessages([]Message{
		{Role: RoleUser, Content: "book a table"},
		{Role: RoleActionResult, Content: `{"success":true}`},
		{Role: RoleAssistant, Content: "done"},
	}, ConversationContext{BusinessName: "Bella Vista"})

	require.Len(t, messages, 4) // system prompt + 3 history entries
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "system", messages[2].Role)
	assert.Contains(t, messages[2].Content, "[action result]")
	assert.Equal(t, "assistant", messages[3].Role)
}

func TestBuildSystemPromptMentionsCaller(t *testing.T) {
	prompt := buildSystemPrompt(ConversationContext{
		BusinessName: "Bella Vista",
		CallerName:   "Maria",
		CallerPhone:  "+15550001111",
		CurrentDate:  "2025-06-01",
		OpeningHour:  11,
		ClosingHour:  22,
	})
	assert.Contains(t, prompt, "Bella Vista")
	assert.Contains(t, prompt, "Maria")
	assert.Contains(t, prompt, "2025-06-01")
	assert.Contains(t, prompt, "11:00")
}
