package types

import (
	"errors"

	"github.com/samber/lo"
)

// Flat-format roles.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// ToolTypeFunction is the only tool and tool-call kind of the flat format.
const ToolTypeFunction = "function"

// ChatRequest is an outbound chat completion request.
type ChatRequest struct {
	Model          string          `json:"model"`
	MaxTokens      *uint32         `json:"max_tokens,omitempty"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	Tools          []Tool          `json:"tools,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage is a flat-format message. Content and ToolCalls are mutually
// meaningful per role; "tool" messages always carry ToolCallID.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
}

// SystemChatMessage returns a system message.
func SystemChatMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleSystem, Content: lo.ToPtr(content)}
}

// UserChatMessage returns a user message.
func UserChatMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: lo.ToPtr(content)}
}

// AssistantChatMessage returns an assistant message with text content.
func AssistantChatMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleAssistant, Content: lo.ToPtr(content)}
}

// ToolChatMessage returns the output of the tool call identified by toolCallID.
func ToolChatMessage(toolCallID, content string) ChatMessage {
	return ChatMessage{Role: ChatRoleTool, Content: lo.ToPtr(content), ToolCallID: lo.ToPtr(toolCallID)}
}

// Tool is a flat-format tool declaration.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes a callable function.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters"`
}

// ToolCall is a function invocation emitted by the assistant. Arguments is JSON text.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction names the function and carries its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResponse is a chat completion response.
type ChatResponse struct {
	ID      string         `json:"id,omitempty"`
	Object  string         `json:"object,omitempty"`
	Created int64          `json:"created,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []Choice       `json:"choices"`
	Usage   *ResponseUsage `json:"usage,omitempty"`
}

// ErrNoContent is returned by TextOrErr when the response carries no text.
var ErrNoContent = errors.New("no response content (empty choices)")

// Text returns the content of the first choice.
func (r ChatResponse) Text() (string, bool) {
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == nil {
		return "", false
	}
	return *r.Choices[0].Message.Content, true
}

// TextOrErr returns the content of the first choice or ErrNoContent.
func (r ChatResponse) TextOrErr() (string, error) {
	text, ok := r.Text()
	if !ok {
		return "", ErrNoContent
	}
	return text, nil
}

// Choice is one completion alternative.
type Choice struct {
	Index        *int            `json:"index,omitempty"`
	Message      ResponseMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}

// ResponseMessage is the assistant message of a choice. ReasoningContent is the
// extension field carrying thinking text.
type ResponseMessage struct {
	Role             string     `json:"role,omitempty"`
	Content          *string    `json:"content"`
	ReasoningContent *string    `json:"reasoning_content,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
}

// ResponseUsage reports token consumption in flat-format terms. Cache counters use the
// structured-format names so they survive a round trip unchanged.
type ResponseUsage struct {
	PromptTokens             int64  `json:"prompt_tokens"`
	CompletionTokens         int64  `json:"completion_tokens"`
	TotalTokens              int64  `json:"total_tokens"`
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens,omitempty"`
}
