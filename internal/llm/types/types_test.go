package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentBlockWireShapes(t *testing.T) {
	tests := []struct {
		name  string
		block ContentBlock
		want  string
	}{
		{
			name:  "text",
			block: TextBlock{Text: "hi"},
			want:  `{"type":"text","text":"hi"}`,
		},
		{
			name:  "thinking without signature",
			block: ThinkingBlock{Thinking: "hmm"},
			want:  `{"type":"thinking","thinking":"hmm"}`,
		},
		{
			name:  "thinking with signature",
			block: ThinkingBlock{Thinking: "hmm", Signature: ptr("sig")},
			want:  `{"type":"thinking","thinking":"hmm","signature":"sig"}`,
		},
		{
			name:  "tool use",
			block: ToolUseBlock{ID: "tu_1", Name: "search", Input: json.RawMessage(`{"q":"go"}`)},
			want:  `{"type":"tool_use","id":"tu_1","name":"search","input":{"q":"go"}}`,
		},
		{
			name:  "tool use without input",
			block: ToolUseBlock{ID: "tu_1", Name: "now"},
			want:  `{"type":"tool_use","id":"tu_1","name":"now","input":{}}`,
		},
		{
			name:  "tool result",
			block: ToolResultBlock{ToolUseID: "tu_1", Content: "42"},
			want:  `{"type":"tool_result","tool_use_id":"tu_1","content":"42"}`,
		},
		{
			name:  "tool result error",
			block: ToolResultBlock{ToolUseID: "tu_1", Content: "boom", IsError: ptr(true)},
			want:  `{"type":"tool_result","tool_use_id":"tu_1","content":"boom","is_error":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.block)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))

			decoded, err := UnmarshalContentBlock(got)
			require.NoError(t, err)
			assert.Equal(t, tt.block.BlockType(), decoded.BlockType())
		})
	}
}

func TestMessageDecodesStringContent(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hello"}`), &msg))

	assert.Equal(t, RoleUser, msg.Role)
	require.Len(t, msg.Content, 1)
	assert.Equal(t, TextBlock{Text: "hello"}, msg.Content[0])
}

func TestMessageRejectsUnknownBlock(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"role":"assistant","content":[{"type":"hologram"}]}`), &msg)
	assert.ErrorContains(t, err, `unknown content block type "hologram"`)
}

func TestMessagesResponseHelpers(t *testing.T) {
	var resp MessagesResponse
	body := `{
		"id": "msg_1",
		"model": "claude-sonnet-4-5",
		"content": [
			{"type": "thinking", "thinking": "step 1 "},
			{"type": "text", "text": "Hello, "},
			{"type": "thinking", "thinking": "step 2"},
			{"type": "text", "text": "world"},
			{"type": "tool_use", "id": "tu_1", "name": "lookup", "input": {"k": 1}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5, "cache_read_input_tokens": 3}
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &resp))

	assert.Equal(t, "Hello, world", resp.Text())
	thinking, ok := resp.ThinkingText()
	assert.True(t, ok)
	assert.Equal(t, "step 1 step 2", thinking)
	assert.Equal(t, StopToolUse, resp.Stop())
	assert.Equal(t, StopToolUse, resp.StopReason)
	assert.True(t, resp.HasToolUse())
	require.Len(t, resp.ToolUses(), 1)
	assert.Equal(t, "lookup", resp.ToolUses()[0].Name)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(15), resp.Usage.TotalTokens())
	assert.Equal(t, int64(3), *resp.Usage.CacheReadInputTokens)
	assert.Nil(t, resp.Usage.CacheCreationInputTokens)

	_, ok = MessagesResponse{Content: ContentBlocks{TextBlock{Text: "x"}}}.ThinkingText()
	assert.False(t, ok)
}

func TestMessagesResponseStopReasonField(t *testing.T) {
	out, err := json.Marshal(MessagesResponse{Content: ContentBlocks{}, StopReason: StopOther("pause_turn")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content": [], "stop_reason": "pause_turn"}`, string(out))

	var resp MessagesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"content": [], "stop_reason": "max_tokens"}`), &resp))
	assert.Equal(t, StopMaxTokens, resp.StopReason)
	assert.False(t, resp.StopReason.IsOther())
}

func TestStopReasonMapping(t *testing.T) {
	tests := []struct {
		normalized StopReason
		anthropic  string
		openai     string
	}{
		{StopEndTurn, "end_turn", "stop"},
		{StopToolUse, "tool_use", "tool_calls"},
		{StopMaxTokens, "max_tokens", "length"},
		{StopOther("pause_turn"), "pause_turn", "pause_turn"},
	}

	for _, tt := range tests {
		t.Run(tt.anthropic, func(t *testing.T) {
			assert.Equal(t, tt.normalized, StopReasonFromAnthropic(tt.anthropic))
			assert.Equal(t, tt.anthropic, tt.normalized.Anthropic())
			assert.Equal(t, tt.openai, tt.normalized.OpenAI())
			assert.Equal(t, tt.anthropic, tt.normalized.String())
		})
	}

	t.Run("openai vocabulary", func(t *testing.T) {
		assert.Equal(t, StopEndTurn, StopReasonFromOpenAI("stop"))
		assert.Equal(t, StopToolUse, StopReasonFromOpenAI("tool_calls"))
		assert.Equal(t, StopMaxTokens, StopReasonFromOpenAI("length"))
		assert.Equal(t, StopOther("content_filter"), StopReasonFromOpenAI("content_filter"))
	})

	t.Run("other is opaque", func(t *testing.T) {
		// end_turn is not part of the flat vocabulary, so it stays raw.
		other := StopReasonFromOpenAI("end_turn")
		assert.True(t, other.IsOther())
		assert.NotEqual(t, StopEndTurn, other)
		assert.Equal(t, StopOther("end_turn"), other)
	})

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(StopMaxTokens)
		require.NoError(t, err)
		assert.Equal(t, `"max_tokens"`, string(data))

		var decoded StopReason
		require.NoError(t, json.Unmarshal([]byte(`"refusal"`), &decoded))
		assert.Equal(t, StopOther("refusal"), decoded)
	})
}

func TestEffortLevel(t *testing.T) {
	for _, level := range AllEffortLevels() {
		parsed, err := ParseEffortLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	aliases := map[string]EffortLevel{"med": EffortMedium, "minimal": EffortLow}
	for alias, want := range aliases {
		got, err := ParseEffortLevel(alias)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseEffortLevel("extreme")
	assert.Error(t, err)

	var zero EffortLevel
	assert.Equal(t, EffortHigh, zero)
}

func TestThinkingConfigJSON(t *testing.T) {
	data, err := json.Marshal(AdaptiveThinking{Effort: EffortLow})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"adaptive","effort":"low"}`, string(data))

	data, err = json.Marshal(EnabledThinking{BudgetTokens: 2048})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"enabled","budget_tokens":2048}`, string(data))

	cfg, err := UnmarshalThinkingConfig([]byte(`{"type":"adaptive"}`))
	require.NoError(t, err)
	assert.Equal(t, AdaptiveThinking{Effort: EffortHigh}, cfg)

	cfg, err = UnmarshalThinkingConfig([]byte(`{"type":"enabled","budget_tokens":99}`))
	require.NoError(t, err)
	assert.Equal(t, EnabledThinking{BudgetTokens: 99}, cfg)

	_, err = UnmarshalThinkingConfig([]byte(`{"type":"turbo"}`))
	assert.Error(t, err)
}

func TestThinkingParamWireShape(t *testing.T) {
	data, err := json.Marshal(ThinkingParam{Type: ThinkingTypeAdaptive})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"adaptive"}`, string(data))

	data, err = json.Marshal(ThinkingParam{Type: ThinkingTypeEnabled, BudgetTokens: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"enabled","budget_tokens":0}`, string(data))
}

func TestProvider(t *testing.T) {
	p, err := ParseProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAICompatible, p)
	assert.Equal(t, "https://api.openai.com", p.DefaultBaseURL())
	assert.Equal(t, "https://api.anthropic.com", ProviderAnthropic.DefaultBaseURL())
	assert.Equal(t, "anthropic", ProviderAnthropic.String())

	_, err = ParseProvider("gemini")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestChatMessageConstructors(t *testing.T) {
	data, err := json.Marshal(ToolChatMessage("call_1", "done"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"tool","content":"done","tool_call_id":"call_1"}`, string(data))

	data, err = json.Marshal(SystemChatMessage("be brief"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"system","content":"be brief"}`, string(data))
}

func TestChatResponseText(t *testing.T) {
	text, err := ChatResponse{Choices: []Choice{{Message: ResponseMessage{Content: ptr("ok")}}}}.TextOrErr()
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	_, err = ChatResponse{}.TextOrErr()
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestInboundContentDecoding(t *testing.T) {
	body := `{
		"model": "gpt-4o",
		"messages": [
			{"role": "system", "content": "sys"},
			{"role": "user", "content": [{"type": "text", "text": "look"}, {"type": "image_url", "image_url": {"url": "data:image/png;base64,AAAA"}}]},
			{"role": "assistant", "content": null, "tool_calls": [{"id": "c1", "type": "function", "function": {"name": "f", "arguments": "{}"}}]},
			{"role": "tool", "tool_call_id": "c1"}
		]
	}`

	var req InboundChatRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Len(t, req.Messages, 4)

	assert.Equal(t, "sys", *req.Messages[0].Content.Text)
	require.Len(t, req.Messages[1].Content.Parts, 2)
	assert.Equal(t, "data:image/png;base64,AAAA", req.Messages[1].Content.Parts[1].ImageURL.URL)
	assert.True(t, req.Messages[2].Content.IsNull())
	assert.Equal(t, "f", req.Messages[2].ToolCalls[0].Function.Name)
	assert.True(t, req.Messages[3].Content.IsNull())

	var bad InboundContent
	assert.Error(t, json.Unmarshal([]byte(`42`), &bad))
}

func ptr[T any](v T) *T {
	return &v
}
