package convert

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// ErrNoChoices is returned when a flat-format response carries no choices, since no
// structured response can be synthesized from it.
var ErrNoChoices = errors.New("OpenAI response had no choices")

// chatCompletionObject is the object tag of a non-streaming chat completion.
const chatCompletionObject = "chat.completion"

// emptyObject substitutes for tool arguments or inputs that fail to encode or parse.
var emptyObject = json.RawMessage(`{}`)

// MessagesToOpenAI converts structured messages to flat chat messages.
//
// Transformation rules:
//   - system becomes a leading system message
//   - assistant text blocks are joined by newline; tool uses become tool_calls;
//     thinking blocks are dropped because the flat format has no field for them
//   - a user message holding any tool result expands into one tool message per result;
//     its text blocks are not emitted
//   - other user messages join their text blocks by newline
//   - messages with any other role are ignored
func MessagesToOpenAI(system *string, messages []types.Message) []types.ChatMessage {
	result := make([]types.ChatMessage, 0, len(messages)+1)

	if system != nil {
		result = append(result, types.SystemChatMessage(*system))
	}

	for _, msg := range messages {
		switch msg.Role {
		case types.RoleAssistant:
			result = append(result, assistantToOpenAI(msg))
		case types.RoleUser:
			result = append(result, userToOpenAI(msg)...)
		}
	}

	return result
}

func assistantToOpenAI(msg types.Message) types.ChatMessage {
	var texts []string
	var toolCalls []types.ToolCall

	for _, block := range msg.Content {
		switch b := block.(type) {
		case types.TextBlock:
			texts = append(texts, b.Text)
		case types.ToolUseBlock:
			toolCalls = append(toolCalls, types.ToolCall{
				ID:   b.ID,
				Type: types.ToolTypeFunction,
				Function: types.ToolCallFunction{
					Name:      b.Name,
					Arguments: encodeArguments(b.Input),
				},
			})
		case types.ThinkingBlock, types.ToolResultBlock:
			// No flat-format representation in an assistant turn.
		}
	}

	out := types.ChatMessage{Role: types.ChatRoleAssistant, ToolCalls: toolCalls}
	if len(texts) > 0 {
		out.Content = lo.ToPtr(strings.Join(texts, "\n"))
	}
	return out
}

func userToOpenAI(msg types.Message) []types.ChatMessage {
	var results []types.ChatMessage
	var texts []string

	for _, block := range msg.Content {
		switch b := block.(type) {
		case types.ToolResultBlock:
			results = append(results, types.ToolChatMessage(b.ToolUseID, b.Content))
		case types.TextBlock:
			texts = append(texts, b.Text)
		case types.ThinkingBlock, types.ToolUseBlock:
			// Not meaningful in a user turn.
		}
	}

	if len(results) > 0 {
		return results
	}
	return []types.ChatMessage{types.UserChatMessage(strings.Join(texts, "\n"))}
}

// encodeArguments serializes tool input as compact JSON text, falling back to "{}".
func encodeArguments(input json.RawMessage) string {
	if len(input) == 0 {
		return string(emptyObject)
	}
	data, err := json.Marshal(input)
	if err != nil {
		return string(emptyObject)
	}
	return string(data)
}

// ToolsToOpenAI wraps provider-agnostic tool definitions in the flat function envelope.
func ToolsToOpenAI(tools []types.ToolDefinition) []types.Tool {
	return lo.Map(tools, func(t types.ToolDefinition, _ int) types.Tool {
		return types.Tool{
			Type: types.ToolTypeFunction,
			Function: types.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	})
}

// ResponseToAnthropic converts a flat-format response to the structured format.
// Only the first choice is considered. Malformed tool arguments degrade to an empty
// object; a response without choices returns ErrNoChoices.
func ResponseToAnthropic(resp types.ChatResponse) (types.MessagesResponse, error) {
	if len(resp.Choices) == 0 {
		return types.MessagesResponse{}, ErrNoChoices
	}
	choice := resp.Choices[0]

	content := make(types.ContentBlocks, 0, 1+len(choice.Message.ToolCalls))
	if text := lo.FromPtr(choice.Message.Content); text != "" {
		content = append(content, types.TextBlock{Text: text})
	}

	for _, tc := range choice.Message.ToolCalls {
		content = append(content, types.ToolUseBlock{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: decodeArguments(tc.Function.Name, tc.Function.Arguments),
		})
	}

	finishReason := lo.FromPtrOr(choice.FinishReason, "stop")

	out := types.MessagesResponse{
		ID:         resp.ID,
		Model:      resp.Model,
		Content:    content,
		StopReason: types.StopReasonFromOpenAI(finishReason),
	}

	if resp.Usage != nil {
		out.Usage = &types.Usage{
			InputTokens:              resp.Usage.PromptTokens,
			OutputTokens:             resp.Usage.CompletionTokens,
			CacheCreationInputTokens: resp.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     resp.Usage.CacheReadInputTokens,
		}
	}

	return out, nil
}

// decodeArguments parses JSON-encoded tool arguments, substituting an empty object when
// they are not valid JSON.
func decodeArguments(name, arguments string) json.RawMessage {
	if !json.Valid([]byte(arguments)) {
		slog.Warn("failed to parse tool call arguments, using empty object",
			"tool", name,
			"arguments", arguments,
		)
		return emptyObject
	}
	return json.RawMessage(arguments)
}

// AnthropicResponseToOpenAI converts a structured response to a flat chat completion
// stamped with the current time.
func AnthropicResponseToOpenAI(resp types.MessagesResponse) types.ChatResponse {
	return AnthropicResponseToOpenAIAt(resp, time.Now())
}

// AnthropicResponseToOpenAIAt converts a structured response to a flat chat completion
// stamped with created. Text and thinking blocks are concatenated without separator into
// content and reasoning_content.
func AnthropicResponseToOpenAIAt(resp types.MessagesResponse, created time.Time) types.ChatResponse {
	var texts, reasoning []string
	var toolCalls []types.ToolCall

	for _, block := range resp.Content {
		switch b := block.(type) {
		case types.TextBlock:
			texts = append(texts, b.Text)
		case types.ThinkingBlock:
			reasoning = append(reasoning, b.Thinking)
		case types.ToolUseBlock:
			toolCalls = append(toolCalls, types.ToolCall{
				ID:   b.ID,
				Type: types.ToolTypeFunction,
				Function: types.ToolCallFunction{
					Name:      b.Name,
					Arguments: encodeArguments(b.Input),
				},
			})
		case types.ToolResultBlock:
			// Tool results never appear in a model response.
		}
	}

	message := types.ResponseMessage{
		Role:      types.ChatRoleAssistant,
		ToolCalls: toolCalls,
	}
	if len(texts) > 0 {
		message.Content = lo.ToPtr(strings.Join(texts, ""))
	}
	if len(reasoning) > 0 {
		message.ReasoningContent = lo.ToPtr(strings.Join(reasoning, ""))
	}

	out := types.ChatResponse{
		ID:      resp.ID,
		Object:  chatCompletionObject,
		Created: created.Unix(),
		Model:   resp.Model,
		Choices: []types.Choice{{
			Index:        lo.ToPtr(0),
			Message:      message,
			FinishReason: lo.ToPtr(resp.Stop().OpenAI()),
		}},
	}

	if resp.Usage != nil {
		out.Usage = &types.ResponseUsage{
			PromptTokens:             resp.Usage.InputTokens,
			CompletionTokens:         resp.Usage.OutputTokens,
			TotalTokens:              resp.Usage.TotalTokens(),
			CacheCreationInputTokens: resp.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     resp.Usage.CacheReadInputTokens,
		}
	}

	return out
}
