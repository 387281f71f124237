package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okhsunrog/llm-relay/internal/llm/client"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
	"github.com/okhsunrog/llm-relay/internal/proxy"
)

// EnvPrefix is the prefix of configuration environment variables. Nested keys are
// separated by a double underscore: LLM_RELAY_UPSTREAM__API_KEY sets upstream.api_key.
const EnvPrefix = "LLM_RELAY_"

// Upstream authentication modes.
const (
	AuthAPIKey = "api_key"
	AuthOAuth  = "oauth"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Proxy    ProxyConfig    `koanf:"proxy"`
	Log      LogConfig      `koanf:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required,hostname_port"`
	MaxRequestBytes int64         `koanf:"max_request_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0s"`
}

// UpstreamConfig selects the LLM backend and its credentials.
type UpstreamConfig struct {
	Provider    string           `koanf:"provider" validate:"oneof=anthropic openai"`
	BaseURL     string           `koanf:"base_url" validate:"omitempty,url"`
	APIKey      string           `koanf:"api_key"`
	Credentials CredentialSource `koanf:"credentials" validate:"oneof=config env keyring"`
	Auth        string           `koanf:"auth" validate:"oneof=api_key oauth"`
	Model       string           `koanf:"model" validate:"required"`
	Models      []string         `koanf:"models"`
	MaxTokens   uint32           `koanf:"max_tokens" validate:"gt=0"`
	// Timeout of zero selects the provider default.
	Timeout time.Duration `koanf:"timeout" validate:"gte=0s"`
}

// ProxyConfig toggles request shaping on the chat completions endpoint.
type ProxyConfig struct {
	CacheControl   bool `koanf:"cache_control"`
	NamespaceTools bool `koanf:"namespace_tools"`
}

// LogConfig configures the default logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=auto text json otlp-http otlp-grpc otel-stdout"`
}

// Defaults returns the configuration applied before any file, environment or flag.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":              "127.0.0.1:4000",
		"server.max_request_bytes": proxy.DefaultMaxRequestBytes,
		"server.shutdown_timeout":  "10s",
		"upstream.provider":        types.ProviderAnthropic.String(),
		"upstream.credentials":     string(CredentialsEnv),
		"upstream.auth":            AuthAPIKey,
		"upstream.model":           "claude-sonnet-4-5",
		"upstream.max_tokens":      client.DefaultMaxTokens,
		"proxy.cache_control":      false,
		"proxy.namespace_tools":    false,
		"log.level":                "info",
		"log.format":               "auto",
	}
}

// LoadConfig layers defaults, the optional TOML file at path, LLM_RELAY_* variables from
// environ and overrides (flat keys such as "log.level"), then validates the result.
func LoadConfig(path string, overrides map[string]any, environ func() []string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if environ == nil {
		environ = os.Environ
	}
	envProvider := env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   environ,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// transformEnv maps LLM_RELAY_UPSTREAM__API_KEY to upstream.api_key. List values are
// comma separated.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if key == "upstream.models" {
		return key, strings.Split(value, ",")
	}
	return key, value
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Upstream.Auth == AuthOAuth && c.Upstream.Provider != types.ProviderAnthropic.String() {
		return fmt.Errorf("invalid config: upstream.auth %q requires the anthropic provider", AuthOAuth)
	}
	return nil
}

// ClientConfig builds the upstream client configuration with the resolved API key.
func (u UpstreamConfig) ClientConfig(apiKey string) (client.Config, error) {
	provider, err := types.ParseProvider(u.Provider)
	if err != nil {
		return client.Config{}, err
	}

	var cfg client.Config
	switch provider {
	case types.ProviderOpenAICompatible:
		cfg = client.OpenAICompatibleConfig(provider.DefaultBaseURL(), apiKey, u.Model)
	default:
		if apiKey == "" {
			return client.Config{}, fmt.Errorf("no API key configured for %s (credentials source %q)", provider, u.Credentials)
		}
		cfg = client.AnthropicConfig(apiKey, u.Model)
		cfg.OAuth = u.Auth == AuthOAuth
	}

	if u.BaseURL != "" {
		cfg = cfg.WithBaseURL(u.BaseURL)
	}
	if u.Timeout > 0 {
		cfg = cfg.WithTimeout(u.Timeout)
	}
	return cfg.WithMaxTokens(u.MaxTokens), nil
}

// ModelList returns the configured model followed by any additional models.
func (u UpstreamConfig) ModelList() []string {
	return append([]string{u.Model}, u.Models...)
}
