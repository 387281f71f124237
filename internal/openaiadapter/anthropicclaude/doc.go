// Package anthropicclaude adapts OpenAI requests to Anthropic, enabling OpenAI SDK clients
// to work with Claude models without code changes.
//
// The adapter handles:
//
//   - Message transformation: System messages are hoisted to Anthropic's system field,
//     tool messages become tool_result blocks and base64 data-URL images become image
//     blocks. Remote image URLs are dropped.
//
//   - Tool calling: Tool definitions and tool_choice are translated; tool call IDs are
//     preserved in both directions and generated when missing.
//
//   - Reasoning: A "(effort)" model suffix or reasoning_effort selects adaptive thinking
//     or a fixed thinking budget depending on the model. Thinking text is returned in
//     reasoning_content.
//
//   - Upstream shaping: Optional prompt-cache breakpoints and tool-name namespacing for
//     OAuth-authenticated upstreams.
//
// Streaming is not supported; stream=true is rejected as an invalid request.
//
// # Adapters
//
// CreateChatCompletionAdapter: OpenAI CreateChatCompletion → Anthropic Messages
package anthropicclaude
