package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Reserved control fields. They steer the gateway and are never forwarded.
const (
	fieldPreferredProvider = "preferred_provider"
	fieldCustomProviders   = "custom_providers"
	fieldSessionID         = "session_id"
	fieldUseContext        = "use_context"

	fieldModel    = "model"
	fieldMessages = "messages"
	fieldStream   = "stream"
)

// ProviderConfig holds the connection settings of one upstream provider
type ProviderConfig struct {
	// Name is the display name used in diagnostics
	Name string `json:"name" yaml:"name" validate:"required"`

	// URL is the chat-completions endpoint
	URL string `json:"url" yaml:"url" validate:"required,url"`

	// Key is the bearer credential
	Key string `json:"key" yaml:"key"`
}

// RouteStep pairs a provider identifier with the model name that provider expects
type RouteStep struct {
	ProviderID  string `json:"providerId" yaml:"provider" validate:"required"`
	TargetModel string `json:"targetModel" yaml:"model" validate:"required"`
}

// Route is an ordered list of steps; order is the default priority
type Route []RouteStep

// Message is a single conversation message.
//
// A decoded message keeps its original JSON and is re-encoded unchanged, so
// keys the gateway does not model (name, tool_call_id, tool_calls, multimodal
// content parts) reach the upstream intact. Content holds the text view: the
// string itself, or the text parts of an array joined by newlines.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`

	raw json.RawMessage
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON decodes role and the text view of content, keeping the raw object
func (m *Message) UnmarshalJSON(data []byte) error {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return fmt.Errorf("message must be a JSON object")
	}
	var fields struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	text, err := contentText(fields.Content)
	if err != nil {
		return err
	}

	*m = Message{
		Role:    fields.Role,
		Content: text,
		raw:     append(json.RawMessage(nil), data...),
	}
	return nil
}

// MarshalJSON emits the message as received, or role and content for
// messages built in code
func (m Message) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	type plain Message
	return json.Marshal(plain(m))
}

func contentText(content json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return "", err
		}
		return text, nil
	case '[':
		var parts []contentPart
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return "", fmt.Errorf("content parts: %w", err)
		}
		texts := make([]string, 0, len(parts))
		for _, part := range parts {
			if part.Type == "text" {
				texts = append(texts, part.Text)
			}
		}
		return strings.Join(texts, "\n"), nil
	default:
		return "", fmt.Errorf("content must be a string or an array of parts")
	}
}

// ChatRequest is an inbound chat-completion request.
//
// Fields the gateway understands are decoded into typed fields; everything
// else lands in Extra and is forwarded verbatim.
type ChatRequest struct {
	Model             string
	Messages          []Message
	Stream            bool
	PreferredProvider string
	CustomProviders   map[string]ProviderConfig
	SessionID         string
	UseContext        bool

	// Extra holds passthrough fields (temperature, max_tokens, tools, ...)
	Extra map[string]json.RawMessage
}

// UnmarshalJSON splits the payload into known fields and the passthrough bag
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ChatRequest{}

	known := []struct {
		key string
		dst interface{}
	}{
		{fieldModel, &r.Model},
		{fieldMessages, &r.Messages},
		{fieldStream, &r.Stream},
		{fieldPreferredProvider, &r.PreferredProvider},
		{fieldCustomProviders, &r.CustomProviders},
		{fieldSessionID, &r.SessionID},
		{fieldUseContext, &r.UseContext},
	}
	for _, k := range known {
		value, ok := raw[k.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, k.dst); err != nil {
			return fmt.Errorf("field %q: %w", k.key, err)
		}
		delete(raw, k.key)
	}

	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// OutboundBody builds the upstream payload for targetModel. Passthrough
// fields are copied verbatim and control fields are never present.
func (r *ChatRequest) OutboundBody(targetModel string) ([]byte, error) {
	return json.Marshal(r.outbound(targetModel))
}

func (r *ChatRequest) outbound(model string) map[string]interface{} {
	out := make(map[string]interface{}, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[fieldModel] = model

	messages := r.Messages
	if messages == nil {
		messages = []Message{}
	}
	out[fieldMessages] = messages
	if r.Stream {
		out[fieldStream] = true
	}
	return out
}

// UserMessages returns the request's own user-role messages in order
func (r *ChatRequest) UserMessages() []Message {
	var msgs []Message
	for _, m := range r.Messages {
		if m.Role == RoleUser {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// Clone returns a copy whose message list can be rewritten independently
func (r *ChatRequest) Clone() *ChatRequest {
	c := *r
	c.Messages = append([]Message(nil), r.Messages...)
	return &c
}
