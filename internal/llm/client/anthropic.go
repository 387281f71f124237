package client

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

const messagesPath = "v1/messages"

func (c *Client) chatAnthropic(ctx context.Context, messages []types.Message, opts ChatOptions) (types.MessagesResponse, error) {
	thinking, outputConfig := convert.BuildThinkingParams(opts.Thinking)

	req := types.MessagesRequest{
		Model:        c.model(opts),
		MaxTokens:    c.maxTokens(opts),
		System:       opts.System,
		Messages:     messages,
		Tools:        opts.Tools,
		Thinking:     thinking,
		OutputConfig: outputConfig,
	}
	if thinking == nil {
		req.Temperature = opts.Temperature
	}

	body, err := json.Marshal(req)
	if err != nil {
		return types.MessagesResponse{}, newError(KindRequest, err)
	}

	raw, err := c.PostMessages(ctx, body)
	if err != nil {
		return types.MessagesResponse{}, err
	}

	var resp types.MessagesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		slog.ErrorContext(ctx, "failed to parse response", "error", err)
		return types.MessagesResponse{}, newError(KindParseResponse, err)
	}
	return resp, nil
}

// PostMessages sends a raw structured-format request body to the Messages endpoint and
// returns the raw response body. Only available for the Anthropic provider.
func (c *Client) PostMessages(ctx context.Context, body json.RawMessage) (json.RawMessage, error) {
	if c.anthropic == nil {
		return nil, newError(KindClient, errors.New("messages endpoint requires the anthropic provider"))
	}

	slog.DebugContext(ctx, "POST "+messagesPath, "model", c.config.Model)

	var raw []byte
	if err := c.anthropic.Post(ctx, messagesPath, body, &raw); err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			errBody := apiErr.RawJSON()
			if errBody == "" {
				errBody = apiErr.Error()
			}
			slog.ErrorContext(ctx, "API error", "status", apiErr.StatusCode, "body", errBody)
			return nil, apiError(apiErr.StatusCode, errBody)
		}
		return nil, newError(KindRequest, err)
	}

	if len(raw) == 0 {
		return nil, newError(KindEmptyResponse, nil)
	}
	return raw, nil
}
