package client

import (
	"fmt"
	"time"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// Defaults applied by the preset constructors.
const (
	DefaultMaxTokens        = 16384
	DefaultAnthropicTimeout = 180 * time.Second
	DefaultOpenAITimeout    = 60 * time.Second
)

// Config selects the upstream provider and how requests to it are shaped.
type Config struct {
	Provider  types.Provider
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Model     string
	MaxTokens uint32

	// OAuth sends APIKey as a bearer access token instead of an x-api-key header.
	// Only meaningful for the Anthropic provider.
	OAuth bool
}

// AnthropicConfig returns a configuration for the Anthropic Messages API.
func AnthropicConfig(apiKey, model string) Config {
	return Config{
		Provider:  types.ProviderAnthropic,
		BaseURL:   types.ProviderAnthropic.DefaultBaseURL(),
		APIKey:    apiKey,
		Timeout:   DefaultAnthropicTimeout,
		Model:     model,
		MaxTokens: DefaultMaxTokens,
	}
}

// OpenAICompatibleConfig returns a configuration for an OpenAI-compatible API such as
// OpenAI, OpenRouter or Ollama. baseURL excludes the /v1 path segment.
func OpenAICompatibleConfig(baseURL, apiKey, model string) Config {
	return Config{
		Provider:  types.ProviderOpenAICompatible,
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Timeout:   DefaultOpenAITimeout,
		Model:     model,
		MaxTokens: DefaultMaxTokens,
	}
}

// WithTimeout returns a copy of c with the given per-request timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithMaxTokens returns a copy of c with the given output token limit.
func (c Config) WithMaxTokens(maxTokens uint32) Config {
	c.MaxTokens = maxTokens
	return c
}

// WithBaseURL returns a copy of c pointing at baseURL.
func (c Config) WithBaseURL(baseURL string) Config {
	c.BaseURL = baseURL
	return c
}

func (c Config) validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("base URL is required")
	case c.Model == "":
		return fmt.Errorf("model is required")
	case c.Timeout < 0:
		return fmt.Errorf("timeout must not be negative")
	case c.OAuth && c.Provider != types.ProviderAnthropic:
		return fmt.Errorf("oauth is only supported for the %s provider", types.ProviderAnthropic)
	}
	return nil
}
