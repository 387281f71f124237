package types

import (
	"encoding/json"
	"strings"
)

// Message roles of the structured format.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a structured conversation.
type Message struct {
	Role    string        `json:"role"`
	Content ContentBlocks `json:"content"`
}

// UserMessage returns a user turn with the given blocks.
func UserMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// AssistantMessage returns an assistant turn with the given blocks.
func AssistantMessage(blocks ...ContentBlock) Message {
	return Message{Role: RoleAssistant, Content: blocks}
}

// UserText returns a user turn holding a single text block.
func UserText(text string) Message {
	return UserMessage(TextBlock{Text: text})
}

// ToolResults returns a user turn that supplies tool output back to the model.
func ToolResults(results ...ToolResultBlock) Message {
	blocks := make([]ContentBlock, len(results))
	for i, r := range results {
		blocks[i] = r
	}
	return UserMessage(blocks...)
}

// Thinking parameter types on the wire.
const (
	ThinkingTypeAdaptive = "adaptive"
	ThinkingTypeEnabled  = "enabled"
)

// ThinkingParam is the "thinking" field of a Messages request:
// {"type":"adaptive"} or {"type":"enabled","budget_tokens":N}.
type ThinkingParam struct {
	Type         string
	BudgetTokens uint32
}

// MarshalJSON emits budget_tokens only for the enabled variant.
func (p ThinkingParam) MarshalJSON() ([]byte, error) {
	if p.Type == ThinkingTypeEnabled {
		return json.Marshal(struct {
			Type         string `json:"type"`
			BudgetTokens uint32 `json:"budget_tokens"`
		}{p.Type, p.BudgetTokens})
	}
	return json.Marshal(struct {
		Type string `json:"type"`
	}{p.Type})
}

// UnmarshalJSON reads either wire shape.
func (p *ThinkingParam) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type         string `json:"type"`
		BudgetTokens uint32 `json:"budget_tokens"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.Type, p.BudgetTokens = wire.Type, wire.BudgetTokens
	return nil
}

// OutputConfig carries the adaptive effort level when it differs from the default.
type OutputConfig struct {
	Effort string `json:"effort"`
}

// MessagesRequest is the Messages API request body.
type MessagesRequest struct {
	Model        string           `json:"model"`
	MaxTokens    uint32           `json:"max_tokens"`
	System       *string          `json:"system,omitempty"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Thinking     *ThinkingParam   `json:"thinking,omitempty"`
	OutputConfig *OutputConfig    `json:"output_config,omitempty"`
	Temperature  *float64         `json:"temperature,omitempty"`
}

// MessagesResponse is the Messages API response body. It is also the canonical
// response shape callers observe regardless of backend.
type MessagesResponse struct {
	ID         string        `json:"id,omitempty"`
	Model      string        `json:"model,omitempty"`
	Content    ContentBlocks `json:"content"`
	StopReason StopReason    `json:"stop_reason"`
	Usage      *Usage        `json:"usage,omitempty"`
}

// Text returns all text blocks concatenated.
func (r MessagesResponse) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if b, ok := block.(TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ThinkingText returns all thinking blocks concatenated, or false when there are none.
func (r MessagesResponse) ThinkingText() (string, bool) {
	var parts []string
	for _, block := range r.Content {
		if b, ok := block.(ThinkingBlock); ok {
			parts = append(parts, b.Thinking)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ""), true
}

// Stop returns the normalized stop reason.
func (r MessagesResponse) Stop() StopReason {
	return r.StopReason
}

// HasToolUse reports whether the model stopped to call tools.
func (r MessagesResponse) HasToolUse() bool {
	return r.Stop().IsToolUse()
}

// ToolUses returns the tool invocation blocks in order.
func (r MessagesResponse) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, block := range r.Content {
		if b, ok := block.(ToolUseBlock); ok {
			uses = append(uses, b)
		}
	}
	return uses
}
