package proxy

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/okhsunrog/llm-relay/internal/llm/client"
	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// messagesRequest is an inbound Messages API request. System accepts both the string
// and the text-block array form.
type messagesRequest struct {
	types.MessagesRequest
	System json.RawMessage `json:"system,omitempty"`
	Stream bool            `json:"stream,omitempty"`
}

// MessagesHandler serves the Anthropic Messages API on top of the configured upstream,
// converting through the flat format when the upstream is OpenAI-compatible.
type MessagesHandler struct {
	Client *client.Client
}

// Compile-time check to ensure MessagesHandler implements http.Handler
var _ http.Handler = (*MessagesHandler)(nil)

// ServeHTTP implements http.Handler.
func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req messagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			slog.WarnContext(ctx, "request exceeds size limit", "limit_bytes", maxBytesErr.Limit)
			writeJSONAnthropicError(ctx, w, http.StatusRequestEntityTooLarge, "request_too_large",
				http.StatusText(http.StatusRequestEntityTooLarge))
			return
		}
		slog.ErrorContext(ctx, "failed to decode request", "error", err)
		writeJSONAnthropicError(ctx, w, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	if req.Stream {
		writeJSONAnthropicError(ctx, w, http.StatusBadRequest, "invalid_request_error", "streaming is not supported")
		return
	}

	model, thinking := resolveMessagesThinking(req.MessagesRequest)

	resp, err := h.Client.Chat(ctx, req.Messages, client.ChatOptions{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		System:      systemPrompt(req.System),
		Tools:       req.Tools,
		Thinking:    thinking,
		Temperature: req.Temperature,
	})
	if err != nil {
		slog.ErrorContext(ctx, "request failed", "error", err)
		status, errType, message := clientErrorDetails(err)
		writeJSONAnthropicError(ctx, w, status, errType, message)
		return
	}

	if resp.Model == "" {
		resp.Model = lo.CoalesceOrEmpty(model, h.Client.Config().Model)
	}
	writeJSON(ctx, w, messagesResponse{
		Type:             "message",
		Role:             types.RoleAssistant,
		MessagesResponse: resp,
	}, http.StatusOK)
}

// messagesResponse adds the constant envelope fields of a Messages response.
type messagesResponse struct {
	Type string `json:"type"`
	Role string `json:"role"`
	types.MessagesResponse
}

// resolveMessagesThinking splits an optional "(effort)" suffix off the model. The suffix
// takes precedence over thinking parameters in the request body.
func resolveMessagesThinking(req types.MessagesRequest) (string, types.ThinkingConfig) {
	base, suffix, ok := convert.ParseModelSuffix(req.Model)
	if ok {
		return base, convert.BuildThinkingForModel(base, suffix)
	}
	return req.Model, convert.ThinkingConfigFromParams(req.Thinking, req.OutputConfig)
}

// systemPrompt flattens a string or text-block array system prompt.
func systemPrompt(raw json.RawMessage) *string {
	system := gjson.ParseBytes(raw)
	switch {
	case system.Type == gjson.String:
		return lo.ToPtr(system.Str)
	case system.IsArray():
		var texts []string
		for _, block := range system.Array() {
			if block.Get("type").String() == types.BlockTypeText {
				texts = append(texts, block.Get("text").String())
			}
		}
		if len(texts) == 0 {
			return nil
		}
		return lo.ToPtr(strings.Join(texts, "\n\n"))
	default:
		return nil
	}
}

// clientErrorDetails maps a client error to an HTTP status and Anthropic error type.
// Upstream API errors keep their status and message.
func clientErrorDetails(err error) (status int, errType, message string) {
	var clientErr *client.Error
	if !errors.As(err, &clientErr) {
		return http.StatusInternalServerError, "api_error", err.Error()
	}

	if clientErr.Kind != client.KindAPI {
		return http.StatusBadGateway, "api_error", clientErr.Error()
	}
	message = clientErr.Body
	if msg := gjson.Get(clientErr.Body, "error.message"); msg.Type == gjson.String {
		message = msg.Str
	}
	return clientErr.Status, errorTypeForStatus(clientErr.Status), message
}

func errorTypeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return "invalid_request_error"
	case http.StatusUnauthorized:
		return "authentication_error"
	case http.StatusForbidden:
		return "permission_error"
	case http.StatusNotFound:
		return "not_found_error"
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusTooManyRequests:
		return "rate_limit_error"
	case 529:
		return "overloaded_error"
	default:
		return "api_error"
	}
}
