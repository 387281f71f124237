package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content block type tags as they appear on the wire.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is one element of a structured message. The set of variants is closed:
// TextBlock, ThinkingBlock, ToolUseBlock and ToolResultBlock are the only implementations,
// and conversion code switches over all four.
type ContentBlock interface {
	// BlockType returns the wire tag of the variant.
	BlockType() string

	sealed()
}

// TextBlock carries plain text.
type TextBlock struct {
	Text string `json:"text"`
}

// ThinkingBlock carries a reasoning trace. Signature is an opaque provenance token.
type ThinkingBlock struct {
	Thinking  string  `json:"thinking"`
	Signature *string `json:"signature,omitempty"`
}

// ToolUseBlock is a model request to invoke a tool with arbitrary JSON input.
type ToolUseBlock struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResultBlock returns tool output to the model. It only appears in user messages.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   *bool  `json:"is_error,omitempty"`
}

func (TextBlock) BlockType() string       { return BlockTypeText }
func (ThinkingBlock) BlockType() string   { return BlockTypeThinking }
func (ToolUseBlock) BlockType() string    { return BlockTypeToolUse }
func (ToolResultBlock) BlockType() string { return BlockTypeToolResult }

func (TextBlock) sealed()       {}
func (ThinkingBlock) sealed()   {}
func (ToolUseBlock) sealed()    {}
func (ToolResultBlock) sealed() {}

// MarshalJSON adds the "type" tag to the variant fields.
func (b TextBlock) MarshalJSON() ([]byte, error) {
	type fields TextBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{BlockTypeText, fields(b)})
}

// MarshalJSON adds the "type" tag to the variant fields.
func (b ThinkingBlock) MarshalJSON() ([]byte, error) {
	type fields ThinkingBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{BlockTypeThinking, fields(b)})
}

// MarshalJSON adds the "type" tag to the variant fields.
// A nil input is encoded as an empty object.
func (b ToolUseBlock) MarshalJSON() ([]byte, error) {
	type fields ToolUseBlock
	if len(b.Input) == 0 {
		b.Input = json.RawMessage(`{}`)
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{BlockTypeToolUse, fields(b)})
}

// MarshalJSON adds the "type" tag to the variant fields.
func (b ToolResultBlock) MarshalJSON() ([]byte, error) {
	type fields ToolResultBlock
	return json.Marshal(struct {
		Type string `json:"type"`
		fields
	}{BlockTypeToolResult, fields(b)})
}

// ContentBlocks is an ordered sequence of content blocks with tag-dispatched decoding.
type ContentBlocks []ContentBlock

// UnmarshalJSON decodes an array of tagged blocks. A bare string is accepted as a
// single text block, which is how callers commonly send simple user turns.
func (c *ContentBlocks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*c = ContentBlocks{TextBlock{Text: text}}
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode content blocks: %w", err)
	}
	if raw == nil {
		*c = nil
		return nil
	}

	blocks := make(ContentBlocks, 0, len(raw))
	for i, item := range raw {
		block, err := UnmarshalContentBlock(item)
		if err != nil {
			return fmt.Errorf("content block %d: %w", i, err)
		}
		blocks = append(blocks, block)
	}
	*c = blocks
	return nil
}

// UnmarshalContentBlock decodes a single tagged block into its variant.
func UnmarshalContentBlock(data []byte) (ContentBlock, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode content block type: %w", err)
	}

	switch head.Type {
	case BlockTypeText:
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case BlockTypeThinking:
		var b ThinkingBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case BlockTypeToolUse:
		var b ToolUseBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	case BlockTypeToolResult:
		var b ToolResultBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown content block type %q", head.Type)
	}
}
