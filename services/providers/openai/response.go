// Package openai decodes OpenAI-compatible chat-completion payloads.
package openai

import (
	"encoding/json"
	"fmt"
)

// ChatResponse is the subset of a chat-completion response the gateway reads
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Message is the assistant message of a choice
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AssistantContent returns choices[0].message.content, or "" when the
// response has no choices. It fails only when body is not valid JSON of
// the expected shape.
func AssistantContent(body []byte) (string, error) {
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
