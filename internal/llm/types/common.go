package types

import (
	"encoding/json"
	"fmt"
)

// Provider selects the wire protocol of the upstream backend.
type Provider uint8

const (
	// ProviderAnthropic speaks the structured Messages protocol natively.
	ProviderAnthropic Provider = iota
	// ProviderOpenAICompatible speaks the flat chat protocol (OpenAI, OpenRouter, Ollama, ...).
	ProviderOpenAICompatible
)

// ParseProvider parses "anthropic" or "openai".
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "anthropic":
		return ProviderAnthropic, nil
	case "openai":
		return ProviderOpenAICompatible, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

func (p Provider) String() string {
	if p == ProviderOpenAICompatible {
		return "openai"
	}
	return "anthropic"
}

// DefaultBaseURL returns the public API root of the provider, without version path.
func (p Provider) DefaultBaseURL() string {
	if p == ProviderOpenAICompatible {
		return "https://api.openai.com"
	}
	return "https://api.anthropic.com"
}

// MarshalText implements encoding.TextMarshaler.
func (p Provider) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Provider) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// EffortLevel controls reasoning depth under adaptive thinking.
// The zero value is EffortHigh, the provider default.
type EffortLevel uint8

const (
	EffortHigh EffortLevel = iota
	EffortMax
	EffortMedium
	EffortLow
)

// AllEffortLevels lists the levels from deepest to shallowest.
func AllEffortLevels() []EffortLevel {
	return []EffortLevel{EffortMax, EffortHigh, EffortMedium, EffortLow}
}

// ParseEffortLevel accepts max, high, medium|med and low|minimal.
func ParseEffortLevel(s string) (EffortLevel, error) {
	switch s {
	case "max":
		return EffortMax, nil
	case "high":
		return EffortHigh, nil
	case "medium", "med":
		return EffortMedium, nil
	case "low", "minimal":
		return EffortLow, nil
	default:
		return 0, fmt.Errorf("unknown effort level: %s", s)
	}
}

func (e EffortLevel) String() string {
	switch e {
	case EffortMax:
		return "max"
	case EffortMedium:
		return "medium"
	case EffortLow:
		return "low"
	default:
		return "high"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e EffortLevel) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EffortLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseEffortLevel(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ThinkingConfig requests extended thinking. Exactly one of AdaptiveThinking or
// EnabledThinking is active; a nil ThinkingConfig disables thinking.
type ThinkingConfig interface {
	thinkingConfig()
}

// AdaptiveThinking lets the model decide how much to think, hinted by Effort.
type AdaptiveThinking struct {
	Effort EffortLevel
}

// EnabledThinking requests manual extended thinking with a fixed token budget.
type EnabledThinking struct {
	BudgetTokens uint32
}

func (AdaptiveThinking) thinkingConfig() {}
func (EnabledThinking) thinkingConfig()  {}

// MarshalJSON encodes {"type":"adaptive","effort":...}.
func (t AdaptiveThinking) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   string      `json:"type"`
		Effort EffortLevel `json:"effort"`
	}{ThinkingTypeAdaptive, t.Effort})
}

// MarshalJSON encodes {"type":"enabled","budget_tokens":N}.
func (t EnabledThinking) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string `json:"type"`
		BudgetTokens uint32 `json:"budget_tokens"`
	}{ThinkingTypeEnabled, t.BudgetTokens})
}

// UnmarshalThinkingConfig decodes either tagged representation. A missing effort on the
// adaptive variant defaults to EffortHigh.
func UnmarshalThinkingConfig(data []byte) (ThinkingConfig, error) {
	var wire struct {
		Type         string       `json:"type"`
		Effort       *EffortLevel `json:"effort"`
		BudgetTokens uint32       `json:"budget_tokens"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Type {
	case ThinkingTypeAdaptive:
		cfg := AdaptiveThinking{}
		if wire.Effort != nil {
			cfg.Effort = *wire.Effort
		}
		return cfg, nil
	case ThinkingTypeEnabled:
		return EnabledThinking{BudgetTokens: wire.BudgetTokens}, nil
	default:
		return nil, fmt.Errorf("unknown thinking type %q", wire.Type)
	}
}

// ToolDefinition is a provider-agnostic tool declaration. It serializes in the
// structured format's tool shape.
type ToolDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

// Usage reports token consumption in structured-format terms.
type Usage struct {
	InputTokens              int64  `json:"input_tokens"`
	OutputTokens             int64  `json:"output_tokens"`
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens,omitempty"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// ResponseFormat selects a structured output mode of the flat protocol.
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObjectFormat requests JSON mode.
func JSONObjectFormat() ResponseFormat {
	return ResponseFormat{Type: "json_object"}
}
