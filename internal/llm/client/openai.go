package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

func (c *Client) chatOpenAI(ctx context.Context, messages []types.Message, opts ChatOptions) (types.MessagesResponse, error) {
	req := types.ChatRequest{
		Model:       c.model(opts),
		MaxTokens:   lo.ToPtr(c.maxTokens(opts)),
		Messages:    convert.MessagesToOpenAI(opts.System, messages),
		Temperature: opts.Temperature,
	}
	if opts.Tools != nil {
		req.Tools = convert.ToolsToOpenAI(opts.Tools)
	}

	chatResp, err := c.ChatOpenAIRaw(ctx, req)
	if err != nil {
		return types.MessagesResponse{}, err
	}

	resp, err := convert.ResponseToAnthropic(chatResp)
	if err != nil {
		return types.MessagesResponse{}, newError(KindConversion, err)
	}
	return resp, nil
}

// ChatOpenAIRaw sends a flat-format request and returns the flat-format response without
// structured-format conversion. Only available for OpenAI-compatible providers.
func (c *Client) ChatOpenAIRaw(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	if c.openai == nil {
		return types.ChatResponse{}, newError(KindClient, errors.New("chat completions require an openai-compatible provider"))
	}

	slog.DebugContext(ctx, "POST /v1/chat/completions", "model", req.Model)

	var raw rawBody
	resp, err := c.openai.CreateChatCompletion(withRawBody(ctx, &raw), toOpenAIRequest(req))
	if err != nil {
		return types.ChatResponse{}, classifyOpenAIError(ctx, err)
	}
	return fromOpenAIResponse(resp, gjson.GetBytes(raw.data, "usage")), nil
}

// reasoningModelPrefixes name the model families that take max_completion_tokens instead
// of max_tokens.
var reasoningModelPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

func isReasoningModel(model string) bool {
	return lo.SomeBy(reasoningModelPrefixes, func(prefix string) bool {
		return strings.HasPrefix(model, prefix)
	})
}

func classifyOpenAIError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		slog.ErrorContext(ctx, "API error", "status", apiErr.HTTPStatusCode, "body", apiErr.Message)
		return apiError(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		slog.ErrorContext(ctx, "API error", "status", reqErr.HTTPStatusCode, "error", reqErr.Err)
		return &Error{Kind: KindAPI, Status: reqErr.HTTPStatusCode, Body: reqErr.Error(), Err: reqErr.Err}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		slog.ErrorContext(ctx, "failed to parse response", "error", err)
		return newError(KindParseResponse, err)
	}

	if errors.Is(err, io.EOF) {
		return newError(KindEmptyResponse, err)
	}

	return newError(KindRequest, err)
}

func toOpenAIRequest(req types.ChatRequest) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: lo.Map(req.Messages, func(m types.ChatMessage, _ int) openai.ChatCompletionMessage {
			return openai.ChatCompletionMessage{
				Role:       m.Role,
				Content:    lo.FromPtr(m.Content),
				ToolCalls:  lo.Map(m.ToolCalls, toOpenAIToolCall),
				ToolCallID: lo.FromPtr(m.ToolCallID),
			}
		}),
		Temperature: float32(lo.FromPtr(req.Temperature)),
	}
	if req.MaxTokens != nil {
		if isReasoningModel(req.Model) {
			out.MaxCompletionTokens = int(*req.MaxTokens)
		} else {
			out.MaxTokens = int(*req.MaxTokens)
		}
	}
	if len(req.Tools) > 0 {
		out.Tools = lo.Map(req.Tools, func(t types.Tool, _ int) openai.Tool {
			return openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Function.Name,
					Description: t.Function.Description,
					Parameters:  t.Function.Parameters,
				},
			}
		})
	}
	if req.ResponseFormat != nil {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatType(req.ResponseFormat.Type),
		}
	}
	return out
}

func toOpenAIToolCall(tc types.ToolCall, _ int) openai.ToolCall {
	return openai.ToolCall{
		ID:   tc.ID,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		},
	}
}

// fromOpenAIResponse converts the SDK response. usage is the raw usage object, which also
// carries the cache counters some compatible backends report at its top level; Usage stays
// nil when the upstream sent none.
func fromOpenAIResponse(resp openai.ChatCompletionResponse, usage gjson.Result) types.ChatResponse {
	out := types.ChatResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
		Choices: lo.Map(resp.Choices, func(ch openai.ChatCompletionChoice, _ int) types.Choice {
			return types.Choice{
				Index: lo.ToPtr(ch.Index),
				Message: types.ResponseMessage{
					Role:             ch.Message.Role,
					Content:          lo.EmptyableToPtr(ch.Message.Content),
					ReasoningContent: lo.EmptyableToPtr(ch.Message.ReasoningContent),
					ToolCalls: lo.Map(ch.Message.ToolCalls, func(tc openai.ToolCall, _ int) types.ToolCall {
						return types.ToolCall{
							ID:   tc.ID,
							Type: string(tc.Type),
							Function: types.ToolCallFunction{
								Name:      tc.Function.Name,
								Arguments: tc.Function.Arguments,
							},
						}
					}),
				},
				FinishReason: lo.EmptyableToPtr(string(ch.FinishReason)),
			}
		}),
	}
	if !usage.IsObject() {
		return out
	}

	out.Usage = &types.ResponseUsage{
		PromptTokens:             int64(resp.Usage.PromptTokens),
		CompletionTokens:         int64(resp.Usage.CompletionTokens),
		TotalTokens:              int64(resp.Usage.TotalTokens),
		CacheCreationInputTokens: optionalInt(usage.Get("cache_creation_input_tokens")),
		CacheReadInputTokens:     optionalInt(usage.Get("cache_read_input_tokens")),
	}
	if details := resp.Usage.PromptTokensDetails; out.Usage.CacheReadInputTokens == nil && details != nil && details.CachedTokens > 0 {
		out.Usage.CacheReadInputTokens = lo.ToPtr(int64(details.CachedTokens))
	}
	return out
}

func optionalInt(v gjson.Result) *int64 {
	if v.Type != gjson.Number {
		return nil
	}
	return lo.ToPtr(v.Int())
}
