package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

func TestMessagesToOpenAI(t *testing.T) {
	t.Run("system and plain turns", func(t *testing.T) {
		got := MessagesToOpenAI(lo.ToPtr("be brief"), []types.Message{
			types.UserText("hi"),
			types.AssistantMessage(types.TextBlock{Text: "hello"}, types.TextBlock{Text: "there"}),
		})

		require.Len(t, got, 3)
		assert.Equal(t, types.SystemChatMessage("be brief"), got[0])
		assert.Equal(t, types.UserChatMessage("hi"), got[1])
		assert.Equal(t, types.ChatRoleAssistant, got[2].Role)
		assert.Equal(t, "hello\nthere", *got[2].Content)
	})

	t.Run("assistant tool calls without text", func(t *testing.T) {
		got := MessagesToOpenAI(nil, []types.Message{
			types.AssistantMessage(
				types.ThinkingBlock{Thinking: "let me check"},
				types.ToolUseBlock{ID: "tu_1", Name: "weather", Input: json.RawMessage(`{ "city": "Oslo" }`)},
			),
		})

		require.Len(t, got, 1)
		assert.Nil(t, got[0].Content)
		require.Len(t, got[0].ToolCalls, 1)
		call := got[0].ToolCalls[0]
		assert.Equal(t, "tu_1", call.ID)
		assert.Equal(t, types.ToolTypeFunction, call.Type)
		assert.Equal(t, "weather", call.Function.Name)
		assert.Equal(t, `{"city":"Oslo"}`, call.Function.Arguments)
	})

	t.Run("tool results expand and drop sibling text", func(t *testing.T) {
		got := MessagesToOpenAI(nil, []types.Message{
			types.UserMessage(
				types.TextBlock{Text: "ignored"},
				types.ToolResultBlock{ToolUseID: "tu_1", Content: "sunny"},
				types.ToolResultBlock{ToolUseID: "tu_2", Content: "rainy"},
			),
		})

		assert.Equal(t, []types.ChatMessage{
			types.ToolChatMessage("tu_1", "sunny"),
			types.ToolChatMessage("tu_2", "rainy"),
		}, got)
	})

	t.Run("unknown roles are ignored", func(t *testing.T) {
		got := MessagesToOpenAI(nil, []types.Message{{Role: "narrator", Content: types.ContentBlocks{types.TextBlock{Text: "x"}}}})
		assert.Empty(t, got)
	})

	t.Run("nil tool input encodes as empty object", func(t *testing.T) {
		got := MessagesToOpenAI(nil, []types.Message{
			types.AssistantMessage(types.ToolUseBlock{ID: "tu_1", Name: "now"}),
		})
		assert.Equal(t, "{}", got[0].ToolCalls[0].Function.Arguments)
	})
}

func TestTextRoundTrip(t *testing.T) {
	texts := []string{"first line", "", "third\nwith newline", "ünïcødé"}
	blocks := lo.Map(texts, func(s string, _ int) types.ContentBlock { return types.TextBlock{Text: s} })

	flat := MessagesToOpenAI(nil, []types.Message{types.AssistantMessage(blocks...)})
	require.Len(t, flat, 1)

	resp, err := ResponseToAnthropic(types.ChatResponse{
		Choices: []types.Choice{{Message: types.ResponseMessage{Content: flat[0].Content}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "first line\n\nthird\nwith newline\nünïcødé", resp.Text())
}

func TestToolsToOpenAI(t *testing.T) {
	schema := map[string]any{"type": "object"}
	got := ToolsToOpenAI([]types.ToolDefinition{{Name: "search", Description: "web search", InputSchema: schema}})

	require.Len(t, got, 1)
	assert.Equal(t, types.Tool{
		Type:     types.ToolTypeFunction,
		Function: types.ToolFunction{Name: "search", Description: "web search", Parameters: schema},
	}, got[0])
}

func TestResponseToAnthropic(t *testing.T) {
	tests := []struct {
		name      string
		resp      types.ChatResponse
		wantJSON  string
		wantError error
	}{
		{
			name:      "no choices",
			resp:      types.ChatResponse{ID: "x"},
			wantError: ErrNoChoices,
		},
		{
			name: "text with usage",
			resp: types.ChatResponse{
				ID:    "chatcmpl-1",
				Model: "gpt-4o",
				Choices: []types.Choice{{
					Message:      types.ResponseMessage{Content: lo.ToPtr("hello")},
					FinishReason: lo.ToPtr("length"),
				}},
				Usage: &types.ResponseUsage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10},
			},
			wantJSON: `{
				"id": "chatcmpl-1",
				"model": "gpt-4o",
				"content": [{"type": "text", "text": "hello"}],
				"stop_reason": "max_tokens",
				"usage": {"input_tokens": 7, "output_tokens": 3}
			}`,
		},
		{
			name: "tool calls with malformed arguments",
			resp: types.ChatResponse{
				ID: "chatcmpl-2",
				Choices: []types.Choice{{
					Message: types.ResponseMessage{
						Content: lo.ToPtr(""),
						ToolCalls: []types.ToolCall{
							{ID: "c1", Function: types.ToolCallFunction{Name: "ok", Arguments: `{"a":1}`}},
							{ID: "c2", Function: types.ToolCallFunction{Name: "bad", Arguments: `{"a":`}},
						},
					},
					FinishReason: lo.ToPtr("tool_calls"),
				}},
			},
			wantJSON: `{
				"id": "chatcmpl-2",
				"content": [
					{"type": "tool_use", "id": "c1", "name": "ok", "input": {"a": 1}},
					{"type": "tool_use", "id": "c2", "name": "bad", "input": {}}
				],
				"stop_reason": "tool_use"
			}`,
		},
		{
			name: "missing finish reason defaults to end turn",
			resp: types.ChatResponse{
				ID:      "chatcmpl-3",
				Choices: []types.Choice{{Message: types.ResponseMessage{}}},
			},
			wantJSON: `{"id": "chatcmpl-3", "content": [], "stop_reason": "end_turn"}`,
		},
		{
			name: "unknown finish reason passes through",
			resp: types.ChatResponse{
				ID: "chatcmpl-4",
				Choices: []types.Choice{{
					Message:      types.ResponseMessage{Content: lo.ToPtr("…")},
					FinishReason: lo.ToPtr("content_filter"),
				}},
			},
			wantJSON: `{"id": "chatcmpl-4", "content": [{"type": "text", "text": "…"}], "stop_reason": "content_filter"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResponseToAnthropic(tt.resp)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			data, err := json.Marshal(got)
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantJSON, string(data))
		})
	}
}

func TestAnthropicResponseToOpenAIAt(t *testing.T) {
	created := time.Unix(1700000000, 0)

	t.Run("text thinking and tools", func(t *testing.T) {
		resp := types.MessagesResponse{
			ID:    "msg_1",
			Model: "claude-sonnet-4-5",
			Content: types.ContentBlocks{
				types.ThinkingBlock{Thinking: "a"},
				types.TextBlock{Text: "Hello, "},
				types.ThinkingBlock{Thinking: "b"},
				types.TextBlock{Text: "world"},
				types.ToolUseBlock{ID: "tu_1", Name: "lookup", Input: json.RawMessage(`{"k":1}`)},
			},
			StopReason: types.StopToolUse,
			Usage:      &types.Usage{InputTokens: 10, OutputTokens: 5, CacheReadInputTokens: lo.ToPtr[int64](4)},
		}

		got := AnthropicResponseToOpenAIAt(resp, created)
		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": "msg_1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "claude-sonnet-4-5",
			"choices": [{
				"index": 0,
				"message": {
					"role": "assistant",
					"content": "Hello, world",
					"reasoning_content": "ab",
					"tool_calls": [{"id": "tu_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"k\":1}"}}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15, "cache_read_input_tokens": 4}
		}`, string(data))
	})

	t.Run("empty text block keeps content present", func(t *testing.T) {
		got := AnthropicResponseToOpenAIAt(types.MessagesResponse{
			Content:    types.ContentBlocks{types.TextBlock{Text: ""}},
			StopReason: types.StopEndTurn,
		}, created)

		require.NotNil(t, got.Choices[0].Message.Content)
		assert.Equal(t, "", *got.Choices[0].Message.Content)
		assert.Nil(t, got.Choices[0].Message.ReasoningContent)
		assert.Equal(t, "stop", *got.Choices[0].FinishReason)
		assert.Nil(t, got.Usage)
	})

	t.Run("tool only response has null content", func(t *testing.T) {
		got := AnthropicResponseToOpenAIAt(types.MessagesResponse{
			Content:    types.ContentBlocks{types.ToolUseBlock{ID: "tu_1", Name: "now"}},
			StopReason: types.StopOther("pause_turn"),
		}, created)

		assert.Nil(t, got.Choices[0].Message.Content)
		assert.Equal(t, "{}", got.Choices[0].Message.ToolCalls[0].Function.Arguments)
		assert.Equal(t, "pause_turn", *got.Choices[0].FinishReason)
	})
}
