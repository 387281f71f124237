package anthropicclaude

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// fromToolChoice converts OpenAI tool_choice to Anthropic's tool_choice object.
//
//	"none"                                      → {"type":"none"}
//	"auto"                                      → {"type":"auto"}
//	"required"                                  → {"type":"any"}
//	{"type":"function","function":{"name":"x"}} → {"type":"tool","name":"x"}
//
// A nil or null choice returns nil, leaving Anthropic's default (auto) in place.
func fromToolChoice(raw json.RawMessage) (json.RawMessage, error) {
	choice := gjson.ParseBytes(raw)
	if len(raw) == 0 || choice.Type == gjson.Null {
		return nil, nil
	}

	if choice.Type == gjson.String {
		switch choice.Str {
		case "none":
			return json.RawMessage(`{"type":"none"}`), nil
		case "auto":
			return json.RawMessage(`{"type":"auto"}`), nil
		case "required":
			return json.RawMessage(`{"type":"any"}`), nil
		default:
			return nil, fmt.Errorf("unsupported tool choice string: %s", choice.Str)
		}
	}

	// Union types require discriminator validation, not just structural compatibility.
	if choice.IsObject() && choice.Get("type").String() == types.ToolTypeFunction {
		name := choice.Get("function.name")
		if name.Type != gjson.String || name.Str == "" {
			return nil, fmt.Errorf("named tool choice requires function.name")
		}
		return json.Marshal(map[string]string{"type": "tool", "name": name.Str})
	}

	// OpenAI's allowed_tools restricts the model to a subset of functions; Anthropic only
	// supports restricting to a single tool.
	return nil, fmt.Errorf("unsupported tool choice: %s", choice.Raw)
}

// fillToolCallIDs assigns generated IDs to tool calls that lack one, since OpenAI clients
// require tool_call_id to reply.
func fillToolCallIDs(calls []types.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = newToolCallID()
		}
	}
}

// newToolCallID generates an OpenAI-style tool call ID (format: call_<8-char-uuid>).
func newToolCallID() string {
	return fmt.Sprintf("call_%s", uuid.New().String()[:8])
}
