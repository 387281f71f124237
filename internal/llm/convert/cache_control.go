package convert

import (
	"fmt"
	"log/slog"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxCacheBreakpoints is the number of cache_control annotations the upstream accepts per request.
const maxCacheBreakpoints = 4

var ephemeral = map[string]string{"type": "ephemeral"}

// EnsureCacheControl adds prompt-cache breakpoints to a structured-format request body.
//
// Zones are visited in cache order, each receiving at most one breakpoint and only when
// it holds none yet:
//  1. the last tool definition
//  2. the last system block; a string system prompt becomes a single text block
//  3. the last block of the second-to-last user message; string content becomes a
//     single text block
//
// Annotations already present count toward the limit. Bodies that are not JSON objects
// are returned unchanged, and applying the function twice is the same as applying it once.
func EnsureCacheControl(body []byte) []byte {
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return body
	}

	remaining := maxCacheBreakpoints - countCacheControls(body)
	zones := []func([]byte) []byte{
		markTools,
		markSystem,
		markHistory,
	}
	for _, mark := range zones {
		if remaining <= 0 {
			break
		}
		before := countCacheControls(body)
		body = mark(body)
		remaining -= countCacheControls(body) - before
	}
	return body
}

func countCacheControls(body []byte) int {
	count := countMarked(gjson.GetBytes(body, "system")) + countMarked(gjson.GetBytes(body, "tools"))
	gjson.GetBytes(body, "messages").ForEach(func(_, msg gjson.Result) bool {
		count += countMarked(msg.Get("content"))
		return true
	})
	return count
}

// countMarked counts elements of an array that carry cache_control. Non-arrays count zero.
func countMarked(list gjson.Result) int {
	if !list.IsArray() {
		return 0
	}
	n := 0
	list.ForEach(func(_, item gjson.Result) bool {
		if item.Get("cache_control").Exists() {
			n++
		}
		return true
	})
	return n
}

func markTools(body []byte) []byte {
	tools := gjson.GetBytes(body, "tools")
	if countMarked(tools) > 0 {
		return body
	}
	return markLastElement(body, "tools", tools)
}

func markSystem(body []byte) []byte {
	system := gjson.GetBytes(body, "system")
	switch {
	case system.IsArray():
		if countMarked(system) > 0 {
			return body
		}
		return markLastElement(body, "system", system)
	case system.Type == gjson.String:
		return setMarkedText(body, "system", system.String())
	default:
		return body
	}
}

func markHistory(body []byte) []byte {
	messages := gjson.GetBytes(body, "messages")
	if !messages.IsArray() {
		return body
	}

	marked := false
	var userTurns []int
	messages.ForEach(func(index, msg gjson.Result) bool {
		if countMarked(msg.Get("content")) > 0 {
			marked = true
			return false
		}
		if msg.Get("role").String() == "user" {
			userTurns = append(userTurns, int(index.Int()))
		}
		return true
	})
	if marked || len(userTurns) < 2 {
		return body
	}

	path := fmt.Sprintf("messages.%d.content", userTurns[len(userTurns)-2])
	content := gjson.GetBytes(body, path)
	switch {
	case content.IsArray():
		return markLastElement(body, path, content)
	case content.Type == gjson.String:
		return setMarkedText(body, path, content.String())
	default:
		return body
	}
}

// markLastElement annotates the last element of list, found at path, when it is an object.
func markLastElement(body []byte, path string, list gjson.Result) []byte {
	if !list.IsArray() {
		return body
	}
	items := list.Array()
	if len(items) == 0 || !items[len(items)-1].IsObject() {
		return body
	}

	target := fmt.Sprintf("%s.%d.cache_control", path, len(items)-1)
	out, err := sjson.SetBytes(body, target, ephemeral)
	if err != nil {
		slog.Warn("failed to inject cache_control", "path", target, "error", err)
		return body
	}
	return out
}

// setMarkedText replaces the string at path with a single annotated text block.
func setMarkedText(body []byte, path, text string) []byte {
	blocks := []map[string]any{{
		"type":          "text",
		"text":          text,
		"cache_control": ephemeral,
	}}
	out, err := sjson.SetBytes(body, path, blocks)
	if err != nil {
		slog.Warn("failed to inject cache_control", "path", path, "error", err)
		return body
	}
	return out
}
