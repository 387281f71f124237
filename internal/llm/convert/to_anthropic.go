package convert

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// defaultInputSchema is used when a flat tool declares no parameters.
const defaultInputSchema = `{"type":"object","properties":{}}`

// block is a structured-format content block in raw form. Inbound requests may carry
// image blocks, which have no variant in types.ContentBlock.
type block map[string]any

type anthropicMessage struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type anthropicRequestBody struct {
	Model       *string            `json:"model,omitempty"`
	MaxTokens   *uint32            `json:"max_tokens,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	System      []block            `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       *[]json.RawMessage `json:"tools,omitempty"`
}

// InboundRequestToAnthropic converts a flat-format request received by a proxy into a
// structured-format request body.
//
// Transformation rules:
//   - system messages are hoisted into "system" text blocks; empty ones are dropped
//   - tool messages become user messages with a single tool_result block
//   - assistant messages keep non-empty text, text and data-URL image parts, and tool
//     calls as tool_use blocks; they are omitted when nothing remains
//   - all other messages become user messages with their text and data-URL image parts;
//     null content becomes a single empty text block
//
// Malformed fragments degrade locally: unparseable tool arguments become {} and
// malformed data URLs are dropped.
func InboundRequestToAnthropic(req types.InboundChatRequest) (json.RawMessage, error) {
	body := anthropicRequestBody{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    make([]anthropicMessage, 0, len(req.Messages)),
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case types.ChatRoleSystem:
			if text := systemText(msg.Content); text != "" {
				body.System = append(body.System, textBlock(text))
			}

		case types.ChatRoleTool:
			body.Messages = append(body.Messages, anthropicMessage{
				Role: types.RoleUser,
				Content: []block{{
					"type":        types.BlockTypeToolResult,
					"tool_use_id": lo.FromPtr(msg.ToolCallID),
					"content":     lo.FromPtr(msg.Content.Text),
				}},
			})

		case types.ChatRoleAssistant:
			var blocks []block
			switch {
			case msg.Content.Text != nil:
				if *msg.Content.Text != "" {
					blocks = append(blocks, textBlock(*msg.Content.Text))
				}
			case msg.Content.Parts != nil:
				blocks = append(blocks, partsToBlocks(msg.Content.Parts)...)
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, block{
					"type":  types.BlockTypeToolUse,
					"id":    tc.ID,
					"name":  tc.Function.Name,
					"input": parseToolInput(tc.Function.Arguments),
				})
			}
			if len(blocks) > 0 {
				body.Messages = append(body.Messages, anthropicMessage{Role: types.RoleAssistant, Content: blocks})
			}

		default:
			var blocks []block
			switch {
			case msg.Content.Text != nil:
				blocks = []block{textBlock(*msg.Content.Text)}
			case msg.Content.Parts != nil:
				blocks = partsToBlocks(msg.Content.Parts)
			default:
				blocks = []block{textBlock("")}
			}
			if len(blocks) > 0 {
				body.Messages = append(body.Messages, anthropicMessage{Role: types.RoleUser, Content: blocks})
			}
		}
	}

	if req.Tools != nil {
		tools := lo.Map(req.Tools, func(t json.RawMessage, _ int) json.RawMessage {
			return OpenAIToolToAnthropic(t)
		})
		body.Tools = &tools
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode anthropic request: %w", err)
	}
	return data, nil
}

func textBlock(text string) block {
	return block{"type": types.BlockTypeText, "text": text}
}

func systemText(content types.InboundContent) string {
	switch {
	case content.Text != nil:
		return *content.Text
	case content.Parts != nil:
		texts := lo.FilterMap(content.Parts, func(p types.InboundContentPart, _ int) (string, bool) {
			return p.Text, p.Type == types.PartTypeText
		})
		return strings.Join(texts, "")
	default:
		return ""
	}
}

// partsToBlocks keeps text parts and data-URL image parts. Remote image URLs and
// malformed data URLs are dropped.
func partsToBlocks(parts []types.InboundContentPart) []block {
	return lo.FilterMap(parts, func(p types.InboundContentPart, _ int) (block, bool) {
		switch p.Type {
		case types.PartTypeText:
			return textBlock(p.Text), true
		case types.PartTypeImageURL:
			if p.ImageURL == nil {
				return nil, false
			}
			mediaType, data, ok := ParseDataURL(p.ImageURL.URL)
			if !ok {
				return nil, false
			}
			return block{
				"type": "image",
				"source": map[string]string{
					"type":       "base64",
					"media_type": mediaType,
					"data":       data,
				},
			}, true
		default:
			return nil, false
		}
	})
}

func parseToolInput(arguments string) json.RawMessage {
	if !json.Valid([]byte(arguments)) {
		return emptyObject
	}
	return json.RawMessage(arguments)
}

// ParseDataURL splits "data:<media type>;base64,<payload>" into media type and payload.
// It reports false for any other shape.
func ParseDataURL(url string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	header, data, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType, found = strings.CutSuffix(header, ";base64")
	if !found {
		return "", "", false
	}
	return mediaType, data, true
}

// OpenAIToolToAnthropic converts a flat tool declaration to the structured shape
// {name, description, input_schema}. Values without a "function" key are assumed to be
// structured already and are returned unchanged, so conversion is idempotent.
func OpenAIToolToAnthropic(tool json.RawMessage) json.RawMessage {
	function := gjson.GetBytes(tool, "function")
	if !function.Exists() {
		return tool
	}

	name := rawOr(function.Get("name"), `"unknown"`)
	description := rawOr(function.Get("description"), `""`)
	parameters := rawOr(function.Get("parameters"), defaultInputSchema)

	out := []byte(`{}`)
	var err error
	for _, field := range []struct{ path, raw string }{
		{"name", name},
		{"description", description},
		{"input_schema", parameters},
	} {
		if out, err = sjson.SetRawBytes(out, field.path, []byte(field.raw)); err != nil {
			return tool
		}
	}
	return out
}

func rawOr(result gjson.Result, fallback string) string {
	if !result.Exists() {
		return fallback
	}
	return result.Raw
}
