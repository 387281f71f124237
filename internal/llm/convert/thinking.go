package convert

import (
	"strconv"
	"strings"

	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// Fixed thinking budgets for models without adaptive thinking.
const (
	budgetLow     = 1024
	budgetMedium  = 8192
	budgetHigh    = 32000
	budgetMax     = 64000
	budgetAuto    = 16000
	budgetDefault = budgetMedium
)

// Upper bounds of the numeric effort buckets for adaptive models.
const (
	bucketLowMax    = 2048
	bucketMediumMax = 16384
	bucketHighMax   = 49152
)

// BuildThinkingParams maps a thinking configuration to the request's thinking and
// output_config fields. Adaptive thinking at the default High effort omits output_config.
// A nil configuration yields neither.
func BuildThinkingParams(cfg types.ThinkingConfig) (*types.ThinkingParam, *types.OutputConfig) {
	switch c := cfg.(type) {
	case types.AdaptiveThinking:
		thinking := &types.ThinkingParam{Type: types.ThinkingTypeAdaptive}
		if c.Effort == types.EffortHigh {
			return thinking, nil
		}
		return thinking, &types.OutputConfig{Effort: c.Effort.String()}
	case types.EnabledThinking:
		return &types.ThinkingParam{Type: types.ThinkingTypeEnabled, BudgetTokens: c.BudgetTokens}, nil
	default:
		return nil, nil
	}
}

// ThinkingConfigFromParams reverses BuildThinkingParams for requests that already carry
// wire-level thinking fields. Unknown thinking types yield nil.
func ThinkingConfigFromParams(thinking *types.ThinkingParam, output *types.OutputConfig) types.ThinkingConfig {
	if thinking == nil {
		return nil
	}
	switch thinking.Type {
	case types.ThinkingTypeAdaptive:
		cfg := types.AdaptiveThinking{Effort: types.EffortHigh}
		if output != nil {
			if effort, err := types.ParseEffortLevel(output.Effort); err == nil {
				cfg.Effort = effort
			}
		}
		return cfg
	case types.ThinkingTypeEnabled:
		return types.EnabledThinking{BudgetTokens: thinking.BudgetTokens}
	default:
		return nil
	}
}

// ParseModelSuffix splits "model(suffix)" into the model and its suffix. The suffix must
// be an effort keyword or an unsigned integer; otherwise, and for malformed parentheses,
// the model is returned unchanged with ok=false. The suffix keeps its original case.
func ParseModelSuffix(model string) (base, suffix string, ok bool) {
	open := strings.LastIndexByte(model, '(')
	if open < 0 || !strings.HasSuffix(model, ")") {
		return model, "", false
	}

	candidate := model[open+1 : len(model)-1]
	if !isValidSuffix(candidate) {
		return model, "", false
	}
	return model[:open], candidate, true
}

func isValidSuffix(s string) bool {
	switch strings.ToLower(s) {
	case "none", "off", "disabled", "low", "minimal", "medium", "med", "high", "xhigh", "max", "auto":
		return true
	}
	_, ok := parseUint32(s)
	return ok
}

// parseUint32 parses a decimal u32, allowing a single leading '+'.
func parseUint32(s string) (uint32, bool) {
	s = strings.TrimPrefix(s, "+")
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// SupportsAdaptiveThinking reports whether the model accepts adaptive thinking.
func SupportsAdaptiveThinking(model string) bool {
	m := strings.ToLower(model)
	return strings.Contains(m, "opus-4-6") || strings.Contains(m, "sonnet-4-6")
}

// BuildThinkingForModel resolves an effort token for the given model. It returns nil when
// thinking is disabled, adaptive thinking for models that support it, and a fixed token
// budget otherwise.
func BuildThinkingForModel(model, effort string) types.ThinkingConfig {
	token := strings.ToLower(effort)
	switch token {
	case "none", "off", "disabled":
		return nil
	}

	if SupportsAdaptiveThinking(model) {
		return adaptiveThinkingFor(token)
	}
	return types.EnabledThinking{BudgetTokens: budgetFor(token)}
}

func adaptiveThinkingFor(token string) types.ThinkingConfig {
	switch token {
	case "low", "minimal":
		return types.AdaptiveThinking{Effort: types.EffortLow}
	case "medium", "med", "auto":
		return types.AdaptiveThinking{Effort: types.EffortMedium}
	case "high":
		return types.AdaptiveThinking{Effort: types.EffortHigh}
	case "xhigh", "max":
		return types.AdaptiveThinking{Effort: types.EffortMax}
	}

	n, ok := parseUint32(token)
	if !ok {
		return types.AdaptiveThinking{Effort: types.EffortHigh}
	}

	switch {
	case n == 0:
		return nil
	case n <= bucketLowMax:
		return types.AdaptiveThinking{Effort: types.EffortLow}
	case n <= bucketMediumMax:
		return types.AdaptiveThinking{Effort: types.EffortMedium}
	case n <= bucketHighMax:
		return types.AdaptiveThinking{Effort: types.EffortHigh}
	default:
		return types.AdaptiveThinking{Effort: types.EffortMax}
	}
}

func budgetFor(token string) uint32 {
	switch token {
	case "low", "minimal":
		return budgetLow
	case "medium", "med":
		return budgetMedium
	case "high":
		return budgetHigh
	case "xhigh", "max":
		return budgetMax
	case "auto":
		return budgetAuto
	}

	n, ok := parseUint32(token)
	if !ok {
		return budgetDefault
	}
	return n
}
