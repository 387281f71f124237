package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/okhsunrog/llm-relay/internal/llm/client"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// mockUpstreamTransport returns a canned response without network calls and records
// the last request.
type mockUpstreamTransport struct {
	responseBody   string
	responseStatus int

	mu      sync.Mutex
	path    string
	header  http.Header
	request []byte
}

func (m *mockUpstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.path = req.URL.Path
	m.header = req.Header.Clone()
	if req.Body != nil {
		m.request, _ = io.ReadAll(req.Body)
	}
	m.mu.Unlock()

	status := m.responseStatus
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(m.responseBody)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

type mockReadinessChecker struct{ ready bool }

func (m mockReadinessChecker) IsReady() bool { return m.ready }

const anthropicMessage = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-sonnet-4-5",
	"content": [{"type": "text", "text": "Hello!"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 3}
}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProxy(t *testing.T, cfg client.Config, transport http.RoundTripper, opts ...Option) *Proxy {
	t.Helper()
	opts = append([]Option{WithTransport(transport), WithLogger(quietLogger())}, opts...)
	p, err := New(cfg, mockReadinessChecker{ready: true}, opts...)
	require.NoError(t, err)
	return p
}

func anthropicConfig() client.Config {
	return client.AnthropicConfig("sk-test", "claude-sonnet-4-5").WithBaseURL("http://upstream.test")
}

func serve(p http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresReadinessChecker(t *testing.T) {
	_, err := New(anthropicConfig(), nil)
	assert.Error(t, err)
}

func TestChatCompletions(t *testing.T) {
	transport := &mockUpstreamTransport{responseBody: anthropicMessage}
	p := newTestProxy(t, anthropicConfig(), transport)

	rec := serve(p, http.MethodPost, "/v1/chat/completions", `{
		"model": "claude-sonnet-4-5",
		"messages": [{"role": "user", "content": "Hi"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := rec.Body.String()
	assert.Equal(t, "chat.completion", gjson.Get(body, "object").String())
	assert.Equal(t, "Hello!", gjson.Get(body, "choices.0.message.content").String())
	assert.Equal(t, "stop", gjson.Get(body, "choices.0.finish_reason").String())

	assert.Equal(t, "/v1/messages", transport.path)
	assert.Equal(t, "sk-test", transport.header.Get("X-Api-Key"))
	assert.Equal(t, int64(client.DefaultMaxTokens), gjson.GetBytes(transport.request, "max_tokens").Int())
}

func TestChatCompletionsOAuth(t *testing.T) {
	transport := &mockUpstreamTransport{responseBody: anthropicMessage}
	cfg := anthropicConfig()
	cfg.OAuth = true
	p := newTestProxy(t, cfg, transport, WithNamespacedTools(true))

	rec := serve(p, http.MethodPost, "/v1/chat/completions", `{
		"messages": [{"role": "user", "content": "Hi"}],
		"tools": [{"type": "function", "function": {"name": "lookup"}}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Bearer sk-test", transport.header.Get("Authorization"))
	assert.Empty(t, transport.header.Get("X-Api-Key"))
	assert.Contains(t, transport.header.Get("Anthropic-Beta"), "oauth-2025-04-20")
	assert.Equal(t, "mcp_lookup", gjson.GetBytes(transport.request, "tools.0.name").String())
}

func TestChatCompletionsErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		upstream   *mockUpstreamTransport
		opts       []Option
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed json",
			body:       `{"messages": [`,
			upstream:   &mockUpstreamTransport{responseBody: anthropicMessage},
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_request_error",
		},
		{
			name:       "streaming",
			body:       `{"stream": true, "messages": [{"role": "user", "content": "Hi"}]}`,
			upstream:   &mockUpstreamTransport{responseBody: anthropicMessage},
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_request_error",
		},
		{
			name:       "body too large",
			body:       `{"messages": [{"role": "user", "content": "` + strings.Repeat("x", 256) + `"}]}`,
			upstream:   &mockUpstreamTransport{responseBody: anthropicMessage},
			opts:       []Option{WithMaxRequestBytes(64)},
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_request_error",
		},
		{
			name: "upstream overloaded",
			body: `{"messages": [{"role": "user", "content": "Hi"}]}`,
			upstream: &mockUpstreamTransport{
				responseStatus: 529,
				responseBody:   `{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`,
			},
			wantStatus: http.StatusInternalServerError,
			wantType:   "server_error",
		},
		{
			name: "upstream permission error",
			body: `{"messages": [{"role": "user", "content": "Hi"}]}`,
			upstream: &mockUpstreamTransport{
				responseStatus: http.StatusForbidden,
				responseBody:   `{"type": "error", "error": {"type": "permission_error", "message": "nope"}}`,
			},
			wantStatus: http.StatusForbidden,
			wantType:   "permission_denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProxy(t, anthropicConfig(), tt.upstream, tt.opts...)
			rec := serve(p, http.MethodPost, "/v1/chat/completions", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, gjson.Get(rec.Body.String(), "error.type").String())
			assert.NotEmpty(t, gjson.Get(rec.Body.String(), "error.message").String())
		})
	}
}

func TestChatCompletionsNotServedForOpenAIUpstream(t *testing.T) {
	cfg := client.OpenAICompatibleConfig("http://upstream.test", "sk-test", "gpt-4o")
	p := newTestProxy(t, cfg, &mockUpstreamTransport{})

	rec := serve(p, http.MethodPost, "/v1/chat/completions", `{"messages": []}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessagesAnthropicUpstream(t *testing.T) {
	transport := &mockUpstreamTransport{responseBody: anthropicMessage}
	p := newTestProxy(t, anthropicConfig(), transport)

	rec := serve(p, http.MethodPost, "/v1/messages", `{
		"model": "claude-opus-4-6(low)",
		"max_tokens": 1024,
		"system": [{"type": "text", "text": "Be brief."}],
		"messages": [{"role": "user", "content": "Hi"}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := rec.Body.String()
	assert.Equal(t, "message", gjson.Get(body, "type").String())
	assert.Equal(t, "assistant", gjson.Get(body, "role").String())
	assert.Equal(t, "Hello!", gjson.Get(body, "content.0.text").String())
	assert.Equal(t, "end_turn", gjson.Get(body, "stop_reason").String())

	assert.Equal(t, "claude-opus-4-6", gjson.GetBytes(transport.request, "model").String())
	assert.Equal(t, int64(1024), gjson.GetBytes(transport.request, "max_tokens").Int())
	assert.Equal(t, "Be brief.", gjson.GetBytes(transport.request, "system").String())
	assert.Equal(t, "adaptive", gjson.GetBytes(transport.request, "thinking.type").String())
	assert.Equal(t, "low", gjson.GetBytes(transport.request, "output_config.effort").String())
}

func TestMessagesOpenAIUpstream(t *testing.T) {
	transport := &mockUpstreamTransport{responseBody: `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": null, "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "lookup", "arguments": "{\"q\":\"go\"}"}}
			]},
			"finish_reason": "tool_calls"
		}],
		"usage": {"prompt_tokens": 7, "completion_tokens": 5, "total_tokens": 12}
	}`}
	cfg := client.OpenAICompatibleConfig("http://upstream.test", "sk-test", "gpt-4o")
	p := newTestProxy(t, cfg, transport)

	rec := serve(p, http.MethodPost, "/v1/messages", `{
		"system": "Be brief.",
		"messages": [{"role": "user", "content": [{"type": "text", "text": "Search go"}]}],
		"tools": [{"name": "lookup", "description": "Search", "input_schema": {"type": "object"}}]
	}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "/v1/chat/completions", transport.path)
	assert.Equal(t, "Bearer sk-test", transport.header.Get("Authorization"))
	assert.Equal(t, "system", gjson.GetBytes(transport.request, "messages.0.role").String())
	assert.Equal(t, "lookup", gjson.GetBytes(transport.request, "tools.0.function.name").String())

	body := rec.Body.String()
	assert.Equal(t, "tool_use", gjson.Get(body, "stop_reason").String())
	assert.Equal(t, "tool_use", gjson.Get(body, "content.0.type").String())
	assert.Equal(t, "go", gjson.Get(body, "content.0.input.q").String())
	assert.Equal(t, int64(7), gjson.Get(body, "usage.input_tokens").Int())
}

func TestMessagesErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		upstream   *mockUpstreamTransport
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{
			name:       "unknown content block",
			body:       `{"messages": [{"role": "user", "content": [{"type": "hologram"}]}]}`,
			upstream:   &mockUpstreamTransport{responseBody: anthropicMessage},
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_request_error",
		},
		{
			name:       "streaming",
			body:       `{"stream": true, "messages": []}`,
			upstream:   &mockUpstreamTransport{responseBody: anthropicMessage},
			wantStatus: http.StatusBadRequest,
			wantType:   "invalid_request_error",
			wantMsg:    "streaming is not supported",
		},
		{
			name: "upstream rate limit",
			body: `{"messages": [{"role": "user", "content": "Hi"}]}`,
			upstream: &mockUpstreamTransport{
				responseStatus: http.StatusTooManyRequests,
				responseBody:   `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`,
			},
			wantStatus: http.StatusTooManyRequests,
			wantType:   "rate_limit_error",
			wantMsg:    "slow down",
		},
		{
			name:       "unparseable upstream body",
			body:       `{"messages": [{"role": "user", "content": "Hi"}]}`,
			upstream:   &mockUpstreamTransport{responseBody: `{"content": "oops"`},
			wantStatus: http.StatusBadGateway,
			wantType:   "api_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProxy(t, anthropicConfig(), tt.upstream)
			rec := serve(p, http.MethodPost, "/v1/messages", tt.body)

			body := rec.Body.String()
			assert.Equal(t, tt.wantStatus, rec.Code, body)
			assert.Equal(t, "error", gjson.Get(body, "type").String())
			assert.Equal(t, tt.wantType, gjson.Get(body, "error.type").String())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, gjson.Get(body, "error.message").String())
			}
		})
	}
}

func TestModels(t *testing.T) {
	p := newTestProxy(t, anthropicConfig(), &mockUpstreamTransport{},
		WithModels("claude-sonnet-4-5", "claude-opus-4-6", "claude-sonnet-4-5", ""))

	rec := serve(p, http.MethodGet, "/v1/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Object string `json:"object"`
		Data   []struct {
			ID      string `json:"id"`
			Object  string `json:"object"`
			OwnedBy string `json:"owned_by"`
		} `json:"data"`
		FirstID string `json:"first_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "list", list.Object)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "claude-sonnet-4-5", list.Data[0].ID)
	assert.Equal(t, "claude-opus-4-6", list.Data[1].ID)
	assert.Equal(t, "model", list.Data[0].Object)
	assert.Equal(t, types.ProviderAnthropic.String(), list.Data[0].OwnedBy)
	assert.Equal(t, "claude-sonnet-4-5", list.FirstID)
}

func TestHealth(t *testing.T) {
	for _, ready := range []bool{true, false} {
		p, err := New(anthropicConfig(), mockReadinessChecker{ready: ready}, WithLogger(quietLogger()))
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, serve(p, http.MethodGet, "/health/live", "").Code)

		want := http.StatusServiceUnavailable
		if ready {
			want = http.StatusOK
		}
		rec := serve(p, http.MethodGet, "/health/ready", "")
		assert.Equal(t, want, rec.Code)
		assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	}
}

func TestRequestIDPropagation(t *testing.T) {
	p := newTestProxy(t, anthropicConfig(), &mockUpstreamTransport{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	p.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "server_error", gjson.Get(rec.Body.String(), "error.type").String())
}

func TestStartAndShutdown(t *testing.T) {
	p := newTestProxy(t, anthropicConfig(), &mockUpstreamTransport{})

	errCh, err := p.Start(context.Background(), "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("server did not stop")
	}
}
