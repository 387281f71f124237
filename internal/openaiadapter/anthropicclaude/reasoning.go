package anthropicclaude

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tidwall/sjson"

	"github.com/okhsunrog/llm-relay/internal/llm/convert"
	"github.com/okhsunrog/llm-relay/internal/llm/types"
)

// resolveThinking splits an optional "(effort)" suffix off the model and resolves the
// thinking configuration. The suffix takes precedence over reasoning_effort, which
// accepts the same vocabulary:
//
//	"claude-opus-4-6(low)"                       → adaptive thinking, effort low
//	"claude-sonnet-4-5", reasoning_effort "high" → enabled thinking, 32000 budget tokens
//	"claude-sonnet-4-5(none)"                    → no thinking
func resolveThinking(model string, reasoningEffort *string) (string, types.ThinkingConfig) {
	base, suffix, ok := convert.ParseModelSuffix(model)
	effort := suffix
	if !ok {
		effort = lo.FromPtr(reasoningEffort)
	}
	if effort == "" {
		return base, nil
	}
	return base, convert.BuildThinkingForModel(base, effort)
}

// applyThinking writes the thinking and output_config fields into an Anthropic request body.
// Thinking requires the default sampling temperature, so temperature is dropped when set.
func applyThinking(body []byte, cfg types.ThinkingConfig) ([]byte, error) {
	thinking, outputConfig := convert.BuildThinkingParams(cfg)
	if thinking == nil {
		return body, nil
	}

	body, err := sjson.SetBytes(body, "thinking", thinking)
	if err != nil {
		return nil, fmt.Errorf("set thinking: %w", err)
	}
	if outputConfig != nil {
		if body, err = sjson.SetBytes(body, "output_config", outputConfig); err != nil {
			return nil, fmt.Errorf("set output_config: %w", err)
		}
	}
	if body, err = sjson.DeleteBytes(body, "temperature"); err != nil {
		return nil, fmt.Errorf("drop temperature: %w", err)
	}
	return body, nil
}
