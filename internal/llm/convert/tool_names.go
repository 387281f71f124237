package convert

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// MCPPrefix namespaces client tool names on OAuth-authenticated upstream requests.
const MCPPrefix = "mcp_"

// AddMCPPrefix prefixes name with MCPPrefix unless it already carries it.
func AddMCPPrefix(name string) string {
	if strings.HasPrefix(name, MCPPrefix) {
		return name
	}
	return MCPPrefix + name
}

// StripMCPPrefix removes every leading MCPPrefix from name, so stripping twice is the
// same as stripping once.
func StripMCPPrefix(name string) string {
	for strings.HasPrefix(name, MCPPrefix) {
		name = name[len(MCPPrefix):]
	}
	return name
}

// TransformRequestToolNames namespaces the tool names of a structured-format request body:
// custom tool definitions (built-in tools declare a non-empty "type" and are left alone),
// a tool_choice of type "tool", and tool_use blocks in the conversation history.
func TransformRequestToolNames(body []byte) []byte {
	var renames []string

	eachElement(gjson.GetBytes(body, "tools"), func(index, tool gjson.Result) bool {
		if kind := tool.Get("type"); kind.Type == gjson.String && kind.Str != "" {
			return true
		}
		if tool.Get("name").Type == gjson.String {
			renames = append(renames, fmt.Sprintf("tools.%d.name", index.Int()))
		}
		return true
	})

	if gjson.GetBytes(body, "tool_choice.type").String() == "tool" {
		if name := gjson.GetBytes(body, "tool_choice.name"); name.Type == gjson.String && name.Str != "" {
			renames = append(renames, "tool_choice.name")
		}
	}

	eachElement(gjson.GetBytes(body, "messages"), func(msgIndex, msg gjson.Result) bool {
		eachElement(msg.Get("content"), func(blockIndex, block gjson.Result) bool {
			if block.Get("type").String() == "tool_use" && block.Get("name").Type == gjson.String {
				renames = append(renames, fmt.Sprintf("messages.%d.content.%d.name", msgIndex.Int(), blockIndex.Int()))
			}
			return true
		})
		return true
	})

	return renameAll(body, renames, AddMCPPrefix)
}

// TransformResponseToolNames strips the namespace from tool_use blocks in a structured-format
// response body.
func TransformResponseToolNames(body []byte) []byte {
	var renames []string
	eachElement(gjson.GetBytes(body, "content"), func(index, block gjson.Result) bool {
		if block.Get("type").String() == "tool_use" && block.Get("name").Type == gjson.String {
			renames = append(renames, fmt.Sprintf("content.%d.name", index.Int()))
		}
		return true
	})
	return renameAll(body, renames, StripMCPPrefix)
}

// eachElement iterates list only when it is a JSON array.
func eachElement(list gjson.Result, fn func(index, item gjson.Result) bool) {
	if list.IsArray() {
		list.ForEach(fn)
	}
}

func renameAll(body []byte, paths []string, rename func(string) string) []byte {
	for _, path := range paths {
		name := gjson.GetBytes(body, path).String()
		out, err := sjson.SetBytes(body, path, rename(name))
		if err != nil {
			slog.Warn("failed to rewrite tool name", "path", path, "error", err)
			continue
		}
		body = out
	}
	return body
}
