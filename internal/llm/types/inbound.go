package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InboundChatRequest is a chat completion request received from a flat-format client.
// Decoding is permissive: optional fields may be absent and tools stay raw JSON.
type InboundChatRequest struct {
	Model           *string           `json:"model,omitempty"`
	Messages        []InboundMessage  `json:"messages"`
	MaxTokens       *uint32           `json:"max_tokens,omitempty"`
	Temperature     *float64          `json:"temperature,omitempty"`
	Stream          *bool             `json:"stream,omitempty"`
	TopP            *float64          `json:"top_p,omitempty"`
	Tools           []json.RawMessage `json:"tools,omitempty"`
	ToolChoice      json.RawMessage   `json:"tool_choice,omitempty"`
	ReasoningEffort *string           `json:"reasoning_effort,omitempty"`
}

// InboundMessage is one message of an inbound request.
type InboundMessage struct {
	Role       string            `json:"role"`
	Content    InboundContent    `json:"content"`
	ToolCalls  []InboundToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string           `json:"tool_call_id,omitempty"`
}

// InboundContent is a message body that is a string, an array of parts, or null.
type InboundContent struct {
	Text  *string
	Parts []InboundContentPart
}

// TextContent returns string content.
func TextContent(s string) InboundContent {
	return InboundContent{Text: &s}
}

// PartsContent returns array content.
func PartsContent(parts ...InboundContentPart) InboundContent {
	if parts == nil {
		parts = []InboundContentPart{}
	}
	return InboundContent{Parts: parts}
}

// IsNull reports whether the content was null or absent.
func (c InboundContent) IsNull() bool {
	return c.Text == nil && c.Parts == nil
}

// UnmarshalJSON accepts a string, an array of parts or null.
func (c *InboundContent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = InboundContent{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
	case len(data) > 0 && data[0] == '[':
		var parts []InboundContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
	default:
		return fmt.Errorf("content must be a string, an array or null")
	}
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (c InboundContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.Text != nil:
		return json.Marshal(*c.Text)
	case c.Parts != nil:
		return json.Marshal(c.Parts)
	default:
		return []byte("null"), nil
	}
}

// Inbound content part types.
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// InboundContentPart is a typed element of array content. Parts of other types are
// decoded but carry no data the converters use.
type InboundContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *ImageURLData `json:"image_url,omitempty"`
}

// TextPart returns a text part.
func TextPart(text string) InboundContentPart {
	return InboundContentPart{Type: PartTypeText, Text: text}
}

// ImagePart returns an image_url part.
func ImagePart(url string) InboundContentPart {
	return InboundContentPart{Type: PartTypeImageURL, ImageURL: &ImageURLData{URL: url}}
}

// ImageURLData holds an image reference, typically a data: URL.
type ImageURLData struct {
	URL string `json:"url"`
}

// InboundToolCall is a tool call in an inbound assistant message.
type InboundToolCall struct {
	ID       string          `json:"id"`
	Function InboundFunction `json:"function"`
}

// InboundFunction carries the called function name and its JSON-encoded arguments.
type InboundFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
