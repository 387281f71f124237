package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

func TestBuildThinkingParams(t *testing.T) {
	tests := []struct {
		name       string
		cfg        types.ThinkingConfig
		wantParam  *types.ThinkingParam
		wantOutput *types.OutputConfig
	}{
		{"disabled", nil, nil, nil},
		{
			name:      "adaptive default effort",
			cfg:       types.AdaptiveThinking{Effort: types.EffortHigh},
			wantParam: &types.ThinkingParam{Type: types.ThinkingTypeAdaptive},
		},
		{
			name:       "adaptive low",
			cfg:        types.AdaptiveThinking{Effort: types.EffortLow},
			wantParam:  &types.ThinkingParam{Type: types.ThinkingTypeAdaptive},
			wantOutput: &types.OutputConfig{Effort: "low"},
		},
		{
			name:       "adaptive max",
			cfg:        types.AdaptiveThinking{Effort: types.EffortMax},
			wantParam:  &types.ThinkingParam{Type: types.ThinkingTypeAdaptive},
			wantOutput: &types.OutputConfig{Effort: "max"},
		},
		{
			name:      "enabled budget",
			cfg:       types.EnabledThinking{BudgetTokens: 4096},
			wantParam: &types.ThinkingParam{Type: types.ThinkingTypeEnabled, BudgetTokens: 4096},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param, output := BuildThinkingParams(tt.cfg)
			assert.Equal(t, tt.wantParam, param)
			assert.Equal(t, tt.wantOutput, output)
			assert.Equal(t, tt.cfg, ThinkingConfigFromParams(param, output))
		})
	}
}

func TestParseModelSuffix(t *testing.T) {
	tests := []struct {
		model      string
		wantBase   string
		wantSuffix string
		wantOK     bool
	}{
		{"claude-sonnet-4-5(medium)", "claude-sonnet-4-5", "medium", true},
		{"claude-sonnet-4-5(bogus)", "claude-sonnet-4-5(bogus)", "", false},
		{"plain-model", "plain-model", "", false},
		{"claude-opus-4-6(HIGH)", "claude-opus-4-6", "HIGH", true},
		{"claude-opus-4-6(10000)", "claude-opus-4-6", "10000", true},
		{"claude-opus-4-6(-5)", "claude-opus-4-6(-5)", "", false},
		{"claude-opus-4-6(high", "claude-opus-4-6(high", "", false},
		{"claude-opus-4-6high)", "claude-opus-4-6high)", "", false},
		{"claude-opus-4-6()", "claude-opus-4-6()", "", false},
		{"a(b)(low)", "a(b)", "low", true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			base, suffix, ok := ParseModelSuffix(tt.model)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantSuffix, suffix)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestSupportsAdaptiveThinking(t *testing.T) {
	assert.True(t, SupportsAdaptiveThinking("claude-opus-4-6"))
	assert.True(t, SupportsAdaptiveThinking("Claude-Sonnet-4-6-20260101"))
	assert.True(t, SupportsAdaptiveThinking("anthropic/claude-opus-4-6"))
	assert.False(t, SupportsAdaptiveThinking("claude-sonnet-4-5"))
	assert.False(t, SupportsAdaptiveThinking("gpt-4o"))
}

func TestBuildThinkingForModel(t *testing.T) {
	const adaptive = "claude-opus-4-6"
	const fixed = "claude-sonnet-4-5"

	tests := []struct {
		name   string
		model  string
		effort string
		want   types.ThinkingConfig
	}{
		{"disabled none", adaptive, "none", nil},
		{"disabled off uppercase", fixed, "OFF", nil},
		{"disabled keyword", fixed, "disabled", nil},

		{"adaptive low", adaptive, "low", types.AdaptiveThinking{Effort: types.EffortLow}},
		{"adaptive minimal", adaptive, "minimal", types.AdaptiveThinking{Effort: types.EffortLow}},
		{"adaptive med", adaptive, "med", types.AdaptiveThinking{Effort: types.EffortMedium}},
		{"adaptive auto", adaptive, "auto", types.AdaptiveThinking{Effort: types.EffortMedium}},
		{"adaptive high", adaptive, "High", types.AdaptiveThinking{Effort: types.EffortHigh}},
		{"adaptive xhigh", adaptive, "xhigh", types.AdaptiveThinking{Effort: types.EffortMax}},
		{"adaptive unknown", adaptive, "turbo", types.AdaptiveThinking{Effort: types.EffortHigh}},
		{"adaptive zero", adaptive, "0", nil},
		{"adaptive 1", adaptive, "1", types.AdaptiveThinking{Effort: types.EffortLow}},
		{"adaptive 2048", adaptive, "2048", types.AdaptiveThinking{Effort: types.EffortLow}},
		{"adaptive 2049", adaptive, "2049", types.AdaptiveThinking{Effort: types.EffortMedium}},
		{"adaptive 16384", adaptive, "16384", types.AdaptiveThinking{Effort: types.EffortMedium}},
		{"adaptive 16385", adaptive, "16385", types.AdaptiveThinking{Effort: types.EffortHigh}},
		{"adaptive 49152", adaptive, "49152", types.AdaptiveThinking{Effort: types.EffortHigh}},
		{"adaptive 49153", adaptive, "49153", types.AdaptiveThinking{Effort: types.EffortMax}},

		{"fixed low", fixed, "low", types.EnabledThinking{BudgetTokens: 1024}},
		{"fixed medium", fixed, "medium", types.EnabledThinking{BudgetTokens: 8192}},
		{"fixed high", fixed, "high", types.EnabledThinking{BudgetTokens: 32000}},
		{"fixed max", fixed, "max", types.EnabledThinking{BudgetTokens: 64000}},
		{"fixed auto", fixed, "auto", types.EnabledThinking{BudgetTokens: 16000}},
		{"fixed literal", fixed, "12345", types.EnabledThinking{BudgetTokens: 12345}},
		{"fixed unparseable", fixed, "lots", types.EnabledThinking{BudgetTokens: 8192}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildThinkingForModel(tt.model, tt.effort))
		})
	}
}
