// Package convert translates between the structured (Anthropic Messages) and flat
// (OpenAI Chat Completions) formats.
//
// All conversions are pure and total: malformed fragments such as unparseable tool
// arguments or bad data URLs degrade to a safe default instead of failing the request.
// The only error surfaced is [ErrNoChoices].
//
// The package also covers the request-shaping concerns of an Anthropic upstream:
//
//   - Thinking: [BuildThinkingForModel] resolves effort tokens and "model(suffix)" names
//     into a [types.ThinkingConfig]; [BuildThinkingParams] renders it as request fields.
//
//   - Prompt caching: [EnsureCacheControl] places up to four cache breakpoints on a raw
//     request body.
//
//   - Tool namespacing: [TransformRequestToolNames] and [TransformResponseToolNames]
//     add and strip the [MCPPrefix] on raw bodies for OAuth-authenticated upstreams.
package convert
