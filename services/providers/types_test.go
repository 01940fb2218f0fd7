package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_UnmarshalJSON(t *testing.T) {
	body := `{
		"model": "llama3-8b",
		"messages": [{"role":"system","content":"be brief"},{"role":"user","content":"hi"}],
		"stream": true,
		"temperature": 0.2,
		"max_tokens": 64,
		"preferred_provider": "cerebras",
		"custom_providers": {"local": {"name":"Local","url":"http://localhost:9000/v1/chat/completions","key":"k"}},
		"session_id": "session_1",
		"use_context": true
	}`

	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "llama3-8b", req.Model)
	assert.Len(t, req.Messages, 2)
	assert.True(t, req.Stream)
	assert.Equal(t, "cerebras", req.PreferredProvider)
	assert.Equal(t, "Local", req.CustomProviders["local"].Name)
	assert.Equal(t, "session_1", req.SessionID)
	assert.True(t, req.UseContext)

	require.Len(t, req.Extra, 2)
	assert.JSONEq(t, `0.2`, string(req.Extra["temperature"]))
	assert.JSONEq(t, `64`, string(req.Extra["max_tokens"]))
}

func TestChatRequest_UnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an object", `["a"]`},
		{"truncated", `{"model":`},
		{"wrong messages type", `{"model":"m","messages":"hi"}`},
		{"message not an object", `{"model":"m","messages":[42]}`},
		{"null message", `{"model":"m","messages":[null]}`},
		{"numeric content", `{"model":"m","messages":[{"role":"user","content":7}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			assert.Error(t, json.Unmarshal([]byte(tt.body), &req))
		})
	}
}

func TestChatRequest_OutboundBody(t *testing.T) {
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"model": "llama3-8b",
		"messages": [{"role":"user","content":"hi"}],
		"tools": [{"type":"function","function":{"name":"f"}}],
		"preferred_provider": "groq",
		"custom_providers": {},
		"session_id": "s",
		"use_context": false
	}`), &req))

	body, err := req.OutboundBody("llama-3.1-8b-instant")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "llama-3.1-8b-instant",
		"messages": [{"role":"user","content":"hi"}],
		"tools": [{"type":"function","function":{"name":"f"}}]
	}`, string(body))
}

func TestChatRequest_OutboundBody_Stream(t *testing.T) {
	req := &ChatRequest{Model: "m", Stream: true}

	body, err := req.OutboundBody("target")
	require.NoError(t, err)

	assert.JSONEq(t, `{"model":"target","messages":[],"stream":true}`, string(body))
}

func TestChatRequest_OutboundBody_PreservesMessageFields(t *testing.T) {
	var req ChatRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"model": "m",
		"temperature": 0.2,
		"messages": [
			{"role":"user","content":"hi","name":"alice"},
			{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"add","arguments":"{}"}}]},
			{"role":"tool","content":"42","tool_call_id":"call_1"}
		]
	}`), &req))

	require.Len(t, req.Messages, 3)
	assert.Equal(t, RoleUser, req.Messages[0].Role)
	assert.Equal(t, "hi", req.Messages[0].Content)
	assert.Empty(t, req.Messages[1].Content)
	assert.Equal(t, "42", req.Messages[2].Content)

	body, err := req.OutboundBody("target")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "target",
		"temperature": 0.2,
		"messages": [
			{"role":"user","content":"hi","name":"alice"},
			{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"add","arguments":"{}"}}]},
			{"role":"tool","content":"42","tool_call_id":"call_1"}
		]
	}`, string(body))
}

func TestMessage_MultimodalContent(t *testing.T) {
	raw := `{"role":"user","content":[{"type":"text","text":"what is this?"},{"type":"image_url","image_url":{"url":"https://example.com/cat.png"}},{"type":"text","text":"be brief"}]}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "what is this?\nbe brief", msg.Content)

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestMessage_MarshalBuiltInCode(t *testing.T) {
	out, err := json.Marshal(Message{Role: RoleAssistant, Content: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":"hello"}`, string(out))
}

func TestChatRequest_UserMessages(t *testing.T) {
	req := &ChatRequest{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "one"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "two"},
	}}

	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "one"},
		{Role: RoleUser, Content: "two"},
	}, req.UserMessages())
}

func TestChatRequest_Clone(t *testing.T) {
	req := &ChatRequest{Model: "m", Messages: []Message{{Role: RoleUser, Content: "a"}}}

	clone := req.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, Message{Role: RoleUser, Content: "b"})

	assert.Equal(t, "a", req.Messages[0].Content)
	assert.Len(t, req.Messages, 1)
}
