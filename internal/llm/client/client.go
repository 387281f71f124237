package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
	"github.com/okhsunrog/llm-relay/internal/tokensource"
)

// Client sends chat requests to one configured upstream. It is safe for concurrent use.
type Client struct {
	config    Config
	anthropic *anthropic.Client
	openai    *openai.Client
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	transport http.RoundTripper
}

// WithTransport sets the base transport for upstream requests. Authentication is layered on top.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// New creates a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, newError(KindClient, err)
	}

	o := options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{config: cfg}
	switch cfg.Provider {
	case types.ProviderAnthropic:
		c.anthropic = newAnthropicClient(cfg, o.transport)
	case types.ProviderOpenAICompatible:
		c.openai = newOpenAIClient(cfg, o.transport)
	default:
		return nil, newError(KindClient, fmt.Errorf("unsupported provider %s", cfg.Provider))
	}
	return c, nil
}

// Config returns the configuration the client was created with.
func (c *Client) Config() Config {
	return c.config
}

func newAnthropicClient(cfg Config, base http.RoundTripper) *anthropic.Client {
	var transport http.RoundTripper
	if cfg.OAuth {
		transport = tokensource.NewTransport(tokensource.NewTokenSource(cfg.APIKey), base)
	} else {
		transport = tokensource.NewAPIKeyTransport(cfg.APIKey, base)
	}

	client := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithRequestTimeout(cfg.Timeout),
		// Transport failures are reported to the caller as-is.
		option.WithMaxRetries(0),
	)
	return &client
}

func newOpenAIClient(cfg Config, base http.RoundTripper) *openai.Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	oc.HTTPClient = &http.Client{Transport: rawBodyTransport{base: base}, Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(oc)
}
