package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/zalando/go-keyring"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// KeyringService is the OS keyring service name under which API keys are stored.
const KeyringService = "llm-relay"

// CredentialSource selects where the upstream API key is read from.
type CredentialSource string

const (
	// CredentialsConfig uses upstream.api_key from the configuration.
	CredentialsConfig CredentialSource = "config"
	// CredentialsEnv reads the provider's conventional variable (ANTHROPIC_API_KEY, OPENAI_API_KEY).
	CredentialsEnv CredentialSource = "env"
	// CredentialsKeyring reads the OS keyring entry for the provider.
	CredentialsKeyring CredentialSource = "keyring"
)

// ErrReadOnlyStore is returned when writing to a credential source that cannot be modified.
var ErrReadOnlyStore = errors.New("credential store is read-only")

// CredentialStore reads and writes the upstream API key.
type CredentialStore interface {
	Read(ctx context.Context) (string, error)
	// Write stores secret. An empty secret clears the stored value.
	Write(ctx context.Context, secret string) error
}

// NewCredentialStore returns the store for the configured credential source.
func (u UpstreamConfig) NewCredentialStore() (CredentialStore, error) {
	switch u.Credentials {
	case CredentialsConfig:
		return staticStore(u.APIKey), nil
	case CredentialsEnv:
		return envStore{name: envVarFor(u.Provider), fallback: u.APIKey}, nil
	case CredentialsKeyring:
		return keyringStore{service: KeyringService, user: u.Provider}, nil
	default:
		return nil, fmt.Errorf("unsupported credentials source %q", u.Credentials)
	}
}

func envVarFor(provider string) string {
	if provider == types.ProviderOpenAICompatible.String() {
		return "OPENAI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

// staticStore serves the key from the configuration.
type staticStore string

func (s staticStore) Read(context.Context) (string, error) { return string(s), nil }

func (staticStore) Write(context.Context, string) error { return ErrReadOnlyStore }

// envStore reads the key from an environment variable. upstream.api_key, which may itself
// come from LLM_RELAY_UPSTREAM__API_KEY, takes precedence.
type envStore struct {
	name     string
	fallback string
}

func (s envStore) Read(context.Context) (string, error) {
	if s.fallback != "" {
		return s.fallback, nil
	}
	return os.Getenv(s.name), nil
}

func (envStore) Write(context.Context, string) error { return ErrReadOnlyStore }

// keyringStore keeps the key in the OS keyring.
type keyringStore struct {
	service string
	user    string
}

func (s keyringStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	secret, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring entry %s/%s: %w", s.service, s.user, err)
	}
	return secret, nil
}

func (s keyringStore) Write(ctx context.Context, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if secret == "" {
		if err := keyring.Delete(s.service, s.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete keyring entry %s/%s: %w", s.service, s.user, err)
		}
		return nil
	}
	if err := keyring.Set(s.service, s.user, secret); err != nil {
		return fmt.Errorf("failed to write keyring entry %s/%s: %w", s.service, s.user, err)
	}
	return nil
}
