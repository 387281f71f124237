package anthropicclaude

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/openaiadapter"
)

const (
	messagesPath = "v1/messages"

	defaultMaxTokens = 16384
	defaultTimeout   = 10 * time.Minute
)

// CreateChatCompletionAdapter translates OpenAI chat completion requests into Anthropic
// Messages calls. It holds no per-request state and is safe for concurrent use.
type CreateChatCompletionAdapter struct {
	baseURL          string
	defaultModel     string
	defaultMaxTokens uint32
	timeout          time.Duration
	cacheControl     bool
	namespaceTools   bool
	now              func() time.Time
}

// Compile-time check to ensure CreateChatCompletionAdapter implements the adapter contract.
var _ openaiadapter.ChatCompletionAdapter = (*CreateChatCompletionAdapter)(nil)

// Option configures a CreateChatCompletionAdapter.
type Option func(*CreateChatCompletionAdapter)

// WithBaseURL sets the Anthropic API base URL. Defaults to the SDK default.
func WithBaseURL(baseURL string) Option {
	return func(a *CreateChatCompletionAdapter) { a.baseURL = baseURL }
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(a *CreateChatCompletionAdapter) { a.defaultModel = model }
}

// WithDefaultMaxTokens sets max_tokens for requests that omit it. Anthropic requires the field.
func WithDefaultMaxTokens(maxTokens uint32) Option {
	return func(a *CreateChatCompletionAdapter) { a.defaultMaxTokens = maxTokens }
}

// WithTimeout bounds each upstream call.
func WithTimeout(timeout time.Duration) Option {
	return func(a *CreateChatCompletionAdapter) { a.timeout = timeout }
}

// WithCacheControl enables automatic prompt-cache breakpoints.
func WithCacheControl(enabled bool) Option {
	return func(a *CreateChatCompletionAdapter) { a.cacheControl = enabled }
}

// WithNamespacedTools prefixes client tool names upstream and strips the prefix from
// responses. Needed for OAuth-authenticated upstreams.
func WithNamespacedTools(enabled bool) Option {
	return func(a *CreateChatCompletionAdapter) { a.namespaceTools = enabled }
}

// WithClock overrides the time source for the created timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *CreateChatCompletionAdapter) { a.now = now }
}

// NewCreateChatCompletionAdapter creates an adapter with the given options.
func NewCreateChatCompletionAdapter(opts ...Option) *CreateChatCompletionAdapter {
	a := &CreateChatCompletionAdapter{
		defaultMaxTokens: defaultMaxTokens,
		timeout:          defaultTimeout,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessRequest converts the request, calls Anthropic through transport and converts
// the response back. Failures are returned as *openaiadapter.ChatCompletionErrorResponse.
func (a *CreateChatCompletionAdapter) ProcessRequest(
	ctx context.Context,
	clientReq openaiadapter.ChatCompletionRequest,
	transport http.RoundTripper,
) (*openaiadapter.ChatCompletionResponse, error) {
	body, err := a.buildRequest(clientReq)
	if err != nil {
		return nil, err
	}

	client, err := newClient(transport, a.baseURL, a.timeout)
	if err != nil {
		return nil, toChatCompletionError(err)
	}

	slog.DebugContext(ctx, "forwarding chat completion",
		"model", gjson.GetBytes(body, "model").String(),
		"messages", gjson.GetBytes(body, "messages.#").Int(),
	)

	var raw []byte
	if err := client.Post(ctx, messagesPath, json.RawMessage(body), &raw); err != nil {
		return nil, toChatCompletionError(err)
	}

	if a.namespaceTools {
		raw = convert.TransformResponseToolNames(raw)
	}

	resp, err := toChatCompletionResponse(raw, a.now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to convert upstream response", "error", err)
		return nil, openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeAPI, "invalid upstream response")
	}
	return resp, nil
}

// buildRequest produces the Anthropic request body for an OpenAI chat completion request.
func (a *CreateChatCompletionAdapter) buildRequest(clientReq openaiadapter.ChatCompletionRequest) ([]byte, error) {
	if lo.FromPtr(clientReq.Stream) {
		return nil, openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeInvalidRequest, "streaming is not supported")
	}

	model := lo.FromPtrOr(clientReq.Model, a.defaultModel)
	if model == "" {
		return nil, openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeInvalidRequest, "model is required")
	}
	model, thinking := resolveThinking(model, clientReq.ReasoningEffort)
	clientReq.Model = &model

	if clientReq.MaxTokens == nil {
		clientReq.MaxTokens = lo.ToPtr(a.defaultMaxTokens)
	}

	toolChoice, err := fromToolChoice(clientReq.ToolChoice)
	if err != nil {
		return nil, openaiadapter.NewErrorResponse(openaiadapter.ErrorTypeInvalidRequest, err.Error())
	}

	body, err := convert.InboundRequestToAnthropic(clientReq)
	if err != nil {
		return nil, toChatCompletionError(err)
	}

	if body, err = setOptional(body, "tool_choice", toolChoice); err != nil {
		return nil, toChatCompletionError(err)
	}
	if clientReq.TopP != nil {
		if body, err = sjson.SetBytes(body, "top_p", *clientReq.TopP); err != nil {
			return nil, toChatCompletionError(err)
		}
	}
	if body, err = applyThinking(body, thinking); err != nil {
		return nil, toChatCompletionError(err)
	}

	if a.cacheControl {
		body = convert.EnsureCacheControl(body)
	}
	if a.namespaceTools {
		body = convert.TransformRequestToolNames(body)
	}
	return body, nil
}

func setOptional(body []byte, path string, raw json.RawMessage) ([]byte, error) {
	if raw == nil {
		return body, nil
	}
	out, err := sjson.SetRawBytes(body, path, raw)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return out, nil
}
