package client

import (
	"context"
	"log/slog"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// ChatOptions are the optional parts of a chat request.
type ChatOptions struct {
	// Model and MaxTokens override the configured values when non-zero.
	Model     string
	MaxTokens uint32

	System   *string
	Tools    []types.ToolDefinition
	Thinking types.ThinkingConfig

	// Temperature is forwarded to OpenAI-compatible upstreams, and to Anthropic when
	// thinking is disabled.
	Temperature *float64
}

// Chat sends messages to the configured upstream. The response is always in the
// structured format, converted when the upstream speaks the flat format.
func (c *Client) Chat(ctx context.Context, messages []types.Message, opts ChatOptions) (types.MessagesResponse, error) {
	slog.InfoContext(ctx, "sending request to LLM",
		"provider", c.config.Provider,
		"model", c.model(opts),
		"messages", len(messages),
	)

	var (
		resp types.MessagesResponse
		err  error
	)
	switch c.config.Provider {
	case types.ProviderOpenAICompatible:
		resp, err = c.chatOpenAI(ctx, messages, opts)
	default:
		resp, err = c.chatAnthropic(ctx, messages, opts)
	}
	if err != nil {
		return types.MessagesResponse{}, err
	}

	slog.InfoContext(ctx, "LLM responded",
		"stop_reason", resp.StopReason.String(),
		"content_blocks", len(resp.Content),
	)
	return resp, nil
}

// Complete sends a single user message, optionally with a system prompt and thinking.
// Use Text on the result for the reply text.
func (c *Client) Complete(ctx context.Context, system *string, user string, thinking types.ThinkingConfig) (types.MessagesResponse, error) {
	return c.Chat(ctx, []types.Message{types.UserText(user)}, ChatOptions{
		System:   system,
		Thinking: thinking,
	})
}

func (c *Client) model(opts ChatOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	return c.config.Model
}

func (c *Client) maxTokens(opts ChatOptions) uint32 {
	if opts.MaxTokens != 0 {
		return opts.MaxTokens
	}
	return c.config.MaxTokens
}
