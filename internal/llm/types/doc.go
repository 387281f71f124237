// Package types defines the wire schemas of both LLM protocols handled by llm-relay.
//
// The structured format (Anthropic Messages) is the canonical shape callers observe:
// [Message] values hold an ordered sequence of [ContentBlock] variants. The flat format
// (OpenAI Chat Completions) is modeled by [ChatRequest], [ChatMessage] and [ChatResponse].
// The Inbound* types decode flat-format requests permissively when llm-relay is the
// receiving side of a proxy.
//
// All values are immutable by convention and produced fresh per request or response.
package types
